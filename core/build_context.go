package core

import (
	"errors"
	"reflect"
	"sync"

	"github.com/gocrud/component/config"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/hosting"
	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
	"github.com/gocrud/component/scene"
	"github.com/gocrud/component/singleton"
)

// Configurator 配置器函数类型
// 配置器用于扩展应用程序，可以注册服务、添加托管服务等
type Configurator func(*BuildContext)

type cleanup struct {
	key string
	fn  func()
}

// BuildContext 构建上下文
// 提供给配置器的上下文环境，包含容器、配置、日志和注入引擎等核心组件
type BuildContext struct {
	container     di.Container
	configuration config.Configuration
	logger        logging.Logger
	loggerFactory logging.LoggerFactory
	environment   Environment
	engine        *inject.Engine
	scene         *scene.Scene
	registry      *singleton.Registry

	hostedServices []hosting.HostedService
	// cleanups 按注册顺序保存，关闭时逆序执行
	cleanups []cleanup
	errs     []error

	mu sync.Mutex
}

// AddHostedService 添加托管服务
func (c *BuildContext) AddHostedService(service hosting.HostedService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostedServices = append(c.hostedServices, service)
}

// SetCleanup 设置资源清理函数，相同 key 覆盖之前的函数
func (c *BuildContext) SetCleanup(key string, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.cleanups {
		if c.cleanups[i].key == key {
			c.cleanups[i].fn = fn
			return
		}
	}
	c.cleanups = append(c.cleanups, cleanup{key: key, fn: fn})
}

// AddError 记录配置错误，Build 时统一返回
func (c *BuildContext) AddError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// Err 返回累积的配置错误
func (c *BuildContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}

// Container 返回底层的 DI 容器
// 可以直接使用 di.Register[T](ctx.Container(), ...)
func (c *BuildContext) Container() di.Container {
	return c.container
}

// ResolveService 从容器中解析服务，仅在容器构建后可用（例如清理函数或托管服务中）
func (c *BuildContext) ResolveService(serviceType reflect.Type) (any, error) {
	return c.container.Get(serviceType)
}

// GetLogger 获取日志记录器
func (c *BuildContext) GetLogger() logging.Logger {
	return c.logger
}

// LoggerFactory 获取日志工厂
func (c *BuildContext) LoggerFactory() logging.LoggerFactory {
	return c.loggerFactory
}

// GetConfiguration 获取配置对象
func (c *BuildContext) GetConfiguration() config.Configuration {
	return c.configuration
}

// GetEnvironment 获取环境信息
func (c *BuildContext) GetEnvironment() Environment {
	return c.environment
}

// Engine 获取注入引擎
func (c *BuildContext) Engine() *inject.Engine {
	return c.engine
}

// Scene 获取组件场景
func (c *BuildContext) Scene() *scene.Scene {
	return c.scene
}

// Singletons 获取单例注册表
func (c *BuildContext) Singletons() *singleton.Registry {
	return c.registry
}

// ConfigureOptions 配置选项模式（支持静态、快照和监听三种模式）
// 使用示例: core.ConfigureOptions[AppSetting](ctx, "app")
func ConfigureOptions[T any](ctx *BuildContext, section string) {
	cache := config.NewOptionsCache[T](ctx.configuration, section)
	if err := cache.Err(); err != nil {
		ctx.logger.Warn("Options section not bound",
			logging.Field{Key: "section", Value: section},
			logging.Field{Key: "error", Value: err.Error()})
	}

	// Option[T]：应用生命周期内不变
	di.Register[config.Option[T]](ctx.container,
		di.WithValue(config.NewOption(cache.Get())),
	)

	// OptionMonitor[T]：配置重载后返回新值
	di.Register[config.OptionMonitor[T]](ctx.container,
		di.WithValue(config.NewOptionMonitor(cache)),
	)

	// OptionSnapshot[T]：每个作用域创建时的快照
	di.Register[config.OptionSnapshot[T]](ctx.container,
		di.WithFactory(func() config.OptionSnapshot[T] {
			return config.NewOptionSnapshot(cache.Snapshot())
		}),
		di.WithScoped(),
	)

	ctx.logger.Info("Configured options",
		logging.Field{Key: "type", Value: di.TypeOf[T]().String()},
		logging.Field{Key: "section", Value: section})
}
