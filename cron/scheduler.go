package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/component/logging"
)

// Scheduler Cron 定时任务托管服务
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	jobs   map[string]cron.EntryID // 任务名称到任务ID的映射
}

// options Cron 服务配置选项
type options struct {
	// Location 时区，默认 UTC
	Location *time.Location
	// EnableSeconds 是否启用秒级精度（默认分钟级）
	EnableSeconds bool
	// EnableCronLogger 是否启用 cron 库的内部调度日志
	EnableCronLogger bool
}

func newScheduler(logger logging.Logger, opt options) *Scheduler {
	cronOpts := []cron.Option{
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if opt.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	if opt.EnableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	if opt.Location != nil {
		cronOpts = append(cronOpts, cron.WithLocation(opt.Location))
	}

	return &Scheduler{
		cron:   cron.New(cronOpts...),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// addJob 添加定时任务
// spec: cron 表达式，如 "0 */5 * * * *" (每5分钟) 或 "@every 1h"
func (s *Scheduler) addJob(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job '%s' already registered", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("Cron job started", logging.Field{Key: "job", Value: name})
		defer s.logger.Debug("Cron job completed", logging.Field{Key: "job", Value: name})
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("Cron job registered",
		logging.Field{Key: "job", Value: name},
		logging.Field{Key: "spec", Value: spec})
	return nil
}

// Remove 移除定时任务
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobs[name]
	if !exists {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.jobs, name)
	s.logger.Info("Cron job removed", logging.Field{Key: "job", Value: name})
	return true
}

// Jobs 返回已注册的任务名称（已排序）
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow 立即同步执行一次任务，不影响调度
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	entryID, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("cron job '%s' not found", name)
	}

	entry := s.cron.Entry(entryID)
	if entry.WrappedJob == nil {
		return fmt.Errorf("cron job '%s' not found", name)
	}
	entry.WrappedJob.Run()
	return nil
}

func (s *Scheduler) Name() string { return "cron" }

// Start 启动调度并阻塞直到 ctx 结束
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("CronService starting", logging.Field{Key: "jobs", Value: len(s.Jobs())})
	s.cron.Start()

	<-ctx.Done()
	return nil
}

// Stop 停止调度并等待正在运行的任务完成
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("CronService stopping")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("CronService stop timeout")
		return ctx.Err()
	}
}

// cronLogger 将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
