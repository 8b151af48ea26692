package cron

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
)

// Job 可调度的任务
type Job interface {
	Run() error
}

// Builder Cron 配置构建器
type Builder struct {
	core.BaseBuilder
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDefinition
	errors           []error
}

// jobDefinition 任务定义
type jobDefinition struct {
	spec string
	name string
	// build 在容器可用后生成实际执行的函数
	build func(c di.Container, engine *inject.Engine, logger logging.Logger) (func(), error)
}

// NewBuilder 创建 Cron 构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		location:    "UTC",
	}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区，如 "Asia/Shanghai"
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加简单任务（无依赖注入）
func (b *Builder) AddJob(spec, name string, handler func()) *Builder {
	if handler == nil {
		b.errors = append(b.errors, fmt.Errorf("cron job '%s': handler is nil", name))
		return b
	}
	b.jobs = append(b.jobs, jobDefinition{
		spec: spec,
		name: name,
		build: func(di.Container, *inject.Engine, logging.Logger) (func(), error) {
			return handler, nil
		},
	})
	return b
}

// AddJobWithDI 添加带依赖注入的任务
// handler 可以是任何函数，参数在每次执行时从容器解析；最后一个返回值若为 error 则记录日志
//
// 示例：
//
//	builder.AddJobWithDI("0 */5 * * * *", "sync-data", func(svc *DataService, logger logging.Logger) error {
//	    return svc.Sync()
//	})
func (b *Builder) AddJobWithDI(spec, name string, handler any) *Builder {
	handlerValue := reflect.ValueOf(handler)
	if handler == nil || handlerValue.Kind() != reflect.Func {
		b.errors = append(b.errors, fmt.Errorf("cron job '%s': handler must be a function, got %T", name, handler))
		return b
	}
	b.jobs = append(b.jobs, jobDefinition{
		spec: spec,
		name: name,
		build: func(c di.Container, _ *inject.Engine, logger logging.Logger) (func(), error) {
			return wrapHandlerWithDI(c, name, handlerValue, logger), nil
		},
	})
	return b
}

// AddTypedJob 添加结构体任务，每次执行都会新建实例并注入字段
//
//	type CleanupJob struct {
//	    DB *gorm.DB `di:""`
//	}
//	func (j *CleanupJob) Run() error { ... }
//
//	cron.AddTypedJob[CleanupJob](b, "@hourly", "cleanup")
func AddTypedJob[T any, PT interface {
	*T
	Job
}](b *Builder, spec, name string) *Builder {
	b.jobs = append(b.jobs, jobDefinition{
		spec: spec,
		name: name,
		build: func(c di.Container, engine *inject.Engine, logger logging.Logger) (func(), error) {
			return func() {
				job := PT(new(T))
				if err := engine.Populate(c, job); err != nil {
					logger.Error("Cron job injection failed",
						append([]logging.Field{{Key: "job", Value: name}}, logging.ErrorFields(err)...)...)
					return
				}
				if err := job.Run(); err != nil {
					logger.Error("Cron job failed",
						logging.Field{Key: "job", Value: name},
						logging.Field{Key: "error", Value: err.Error()})
				}
			}, nil
		},
	})
	return b
}

// Build 创建调度器并注册所有任务
func (b *Builder) Build(c di.Container, engine *inject.Engine, logger logging.Logger) (*Scheduler, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("cron: %w", errors.Join(b.errors...))
	}

	opt := options{
		EnableSeconds:    b.enableSeconds,
		EnableCronLogger: b.enableCronLogger,
	}
	if b.location != "" {
		loc, err := time.LoadLocation(b.location)
		if err != nil {
			return nil, fmt.Errorf("cron: invalid location '%s': %w", b.location, err)
		}
		opt.Location = loc
	}

	scheduler := newScheduler(logger, opt)
	var errs []error
	for _, job := range b.jobs {
		run, err := job.build(c, engine, logger)
		if err == nil {
			err = scheduler.addJob(job.spec, job.name, run)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("cron: %w", errors.Join(errs...))
	}
	return scheduler, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// wrapHandlerWithDI 包装依赖注入的处理器，参数在执行时解析
func wrapHandlerWithDI(c di.Container, name string, handler reflect.Value, logger logging.Logger) func() {
	handlerType := handler.Type()
	return func() {
		args := make([]reflect.Value, handlerType.NumIn())
		for i := range args {
			paramType := handlerType.In(i)
			instance, err := c.Get(paramType)
			if err != nil {
				logger.Error("Failed to resolve cron job dependency",
					logging.Field{Key: "job", Value: name},
					logging.Field{Key: "type", Value: paramType.String()},
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			args[i] = reflect.ValueOf(instance)
		}

		results := handler.Call(args)
		if n := len(results); n > 0 && handlerType.Out(n-1) == errorType {
			if err, _ := results[n-1].Interface().(error); err != nil {
				logger.Error("Cron job failed",
					logging.Field{Key: "job", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}
	}
}
