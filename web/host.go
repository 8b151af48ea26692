package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Host Web 主机
type Host struct {
	port            int
	engine          *gin.Engine
	server          *http.Server
	logger          logging.Logger
	container       di.Container
	controllerTypes []reflect.Type

	mapOnce sync.Once
	mapErr  error
	mu      sync.RWMutex
	addr    string
}

func (h *Host) Name() string { return "web" }

// Address 获取监听地址 (e.g., "[::]:50234")
// 仅在 Start 后有效
func (h *Host) Address() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.addr
}

// Handler 返回注册了所有控制器路由的处理器
func (h *Host) Handler() (http.Handler, error) {
	if err := h.mapControllers(); err != nil {
		return nil, err
	}
	return h.engine, nil
}

// Start 启动 Web 主机
// 此方法会阻塞，直到服务退出
func (h *Host) Start(ctx context.Context) error {
	// 1. 延迟解析并注册控制器路由
	if err := h.mapControllers(); err != nil {
		return err
	}

	// 2. 监听端口 (同步，确保端口可用)
	addr := fmt.Sprintf(":%d", h.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", addr, err)
	}

	h.mu.Lock()
	h.addr = ln.Addr().String()
	h.mu.Unlock()
	h.logger.Info("Web host started", logging.Field{Key: "address", Value: h.Address()})

	// 3. Serve 会一直阻塞直到 Shutdown 被调用或发生错误
	if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}

// mapControllers 从容器解析并注册控制器，只执行一次
func (h *Host) mapControllers() error {
	h.mapOnce.Do(func() {
		for _, typ := range h.controllerTypes {
			instance, err := h.container.Get(typ)
			if err != nil {
				h.mapErr = fmt.Errorf("web: failed to resolve controller %v: %w", typ, err)
				return
			}

			ctrl, ok := instance.(Controller)
			if !ok {
				h.mapErr = fmt.Errorf("web: %v does not implement web.Controller", typ)
				return
			}

			ctrl.MountRoutes(h.engine)
			h.logger.Debug("Mapped controller routes", logging.Field{Key: "controller", Value: typ.String()})
		}
	})
	return h.mapErr
}
