package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Controller 控制器接口
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	core.BaseBuilder
	port        int
	engine      *gin.Engine
	controllers []any // 控制器构造函数、实例指针或类型
	errors      []error
}

// NewBuilder 创建 Web 构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	// 设置 Gin 为发布模式（默认）
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// 默认中间件：恢复 panic
	engine.Use(gin.Recovery())

	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		port:        8080,
		engine:      engine,
	}
}

// UsePort 设置端口，0 表示随机端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// UsePortFromConfig 从配置读取端口，配置不存在时保持当前值
func (b *Builder) UsePortFromConfig(key string) *Builder {
	cfg := b.ConfigContext().GetConfiguration()
	if !cfg.Exists(key) {
		return b
	}
	port, err := cfg.GetInt(key)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("web: invalid port '%s': %w", key, err))
		return b
	}
	return b.UsePort(port)
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// AddControllers 注册控制器
// 传入参数可以是：
// 1. 控制器的构造函数 (例如 NewUserController)，参数从容器解析
// 2. 控制器实例指针 (例如 &UserController{})，支持字段注入 (di tag)
// 3. 控制器类型 (reflect.Type)，由容器创建并注入
// 控制器在 Host 启动时从容器解析并注册路由
func (b *Builder) AddControllers(controllers ...any) *Builder {
	b.controllers = append(b.controllers, controllers...)
	return b
}

// AddDiagnostics 注册注入诊断接口，挂载在 prefix 下（默认 /debug/inject）
func (b *Builder) AddDiagnostics(prefix ...string) *Builder {
	ctrl := &DiagnosticsController{prefix: DefaultDiagnosticsPrefix}
	if len(prefix) > 0 && prefix[0] != "" {
		ctrl.prefix = prefix[0]
	}
	return b.AddControllers(ctrl)
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PUT(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.DELETE(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	gin.SetMode(mode)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// Build 将控制器注册到容器并构建 Web 主机
// 必须在容器 Build 之前调用
func (b *Builder) Build(container di.Container, logger logging.Logger) (*Host, error) {
	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}

	types := make([]reflect.Type, 0, len(b.controllers))
	var errs []error
	for _, item := range b.controllers {
		serviceType, err := di.Provide(container, item)
		if err != nil {
			errs = append(errs, fmt.Errorf("web: register controller %T: %w", item, err))
			continue
		}
		types = append(types, serviceType)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Host{
		port:            b.port,
		engine:          b.engine,
		container:       container,
		controllerTypes: types,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", b.port),
			Handler: b.engine,
		},
		logger: logger,
	}, nil
}
