package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/component/logging"
)

// HostedService 托管服务接口（类似于 .NET Core IHostedService）
// 框架会在独立的 goroutine 中调用 Start
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error
	// Stop 执行优雅关闭逻辑，必须遵守 ctx 的超时。
	Stop(ctx context.Context) error
}

// Named 可选接口，提供用于日志的服务名称
type Named interface {
	Name() string
}

// NameOf 返回服务名称，未实现 Named 时使用类型名
func NameOf(service HostedService) string {
	if n, ok := service.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", service)
}

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostedServiceManager{logger: logger}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// Len 返回服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 并发启动所有服务。返回的通道接收服务的非取消类错误。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info("Starting hosted services", logging.Field{Key: "count", Value: len(m.services)})

	for _, service := range m.services {
		m.wg.Add(1)
		go func(svc HostedService) {
			defer m.wg.Done()
			name := NameOf(svc)

			m.logger.Debug("Starting hosted service", logging.Field{Key: "service", Value: name})
			err := svc.Start(ctx)
			switch {
			case err == nil:
				m.logger.Info("Hosted service completed", logging.Field{Key: "service", Value: name})
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("Hosted service stopped (context done)", logging.Field{Key: "service", Value: name})
			default:
				m.logger.Error("Hosted service error",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				errCh <- fmt.Errorf("hosted service %s: %w", name, err)
			}
		}(service)
	}

	return errCh
}

// StopAll 按注册的逆序并发停止所有服务，返回合并后的错误
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("Stopping hosted services", logging.Field{Key: "count", Value: len(m.services)})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := len(m.services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(svc HostedService) {
			defer wg.Done()
			name := NameOf(svc)
			if err := svc.Stop(ctx); err != nil {
				m.logger.Error("Failed to stop hosted service",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				return
			}
			m.logger.Debug("Hosted service stopped", logging.Field{Key: "service", Value: name})
		}(m.services[i])
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Wait 等待所有 Start 调用返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}

// FuncService 将阻塞函数适配为托管服务
type FuncService struct {
	name string
	task func(ctx context.Context) error
}

// NewFuncService 创建函数式托管服务
func NewFuncService(name string, task func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, task: task}
}

func (f *FuncService) Name() string { return f.name }

func (f *FuncService) Start(ctx context.Context) error { return f.task(ctx) }

func (f *FuncService) Stop(context.Context) error { return nil }

// BackgroundService 后台服务基类，可被嵌入
type BackgroundService struct {
	name     string
	logger   logging.Logger
	stopOnce sync.Once
	doneOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBackgroundService 创建后台服务
func NewBackgroundService(name string, logger logging.Logger) *BackgroundService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BackgroundService{
		name:   name,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (s *BackgroundService) Name() string { return s.name }

// Start 阻塞直到停止信号或上下文取消
func (s *BackgroundService) Start(ctx context.Context) error {
	defer s.Done()
	select {
	case <-s.stopCh:
	case <-ctx.Done():
	}
	return nil
}

// Stop 发出停止信号并等待完成
func (s *BackgroundService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Background service stop timeout", logging.Field{Key: "service", Value: s.name})
		return ctx.Err()
	}
}

// StopChan 返回停止通道
func (s *BackgroundService) StopChan() <-chan struct{} {
	return s.stopCh
}

// Done 标记服务完成，可重复调用
func (s *BackgroundService) Done() {
	s.doneOnce.Do(func() { close(s.doneCh) })
}

// TimedHostedService 按固定间隔执行任务的托管服务
type TimedHostedService struct {
	*BackgroundService
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewTimedHostedService 创建定时托管服务
func NewTimedHostedService(name string, interval time.Duration, task func(ctx context.Context) error, logger logging.Logger) *TimedHostedService {
	return &TimedHostedService{
		BackgroundService: NewBackgroundService(name, logger),
		interval:          interval,
		task:              task,
	}
}

// Start 运行定时循环，任务失败只记录日志
func (s *TimedHostedService) Start(ctx context.Context) error {
	defer s.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				s.logger.Error("Timed task failed",
					logging.Field{Key: "service", Value: s.name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
