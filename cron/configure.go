package cron

import (
	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
)

// SweepScheduleKey 配置项：跟踪器清理任务的 cron 表达式
const SweepScheduleKey = "inject:sweepSchedule"

// Configure 返回 Cron 配置器
// 调度器作为托管服务运行，并以 *cron.Scheduler 注册到容器。
// 配置了 inject:sweepSchedule 时自动添加跟踪器清理任务。
//
//	builder.Configure(cron.Configure(func(b *cron.Builder) {
//		b.AddJob("@every 1m", "heartbeat", func() { ... })
//	}))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}
		if spec := ctx.GetConfiguration().Get(SweepScheduleKey); spec != "" {
			AddTypedJob[SweepJob](builder, spec, SweepJobName)
		}

		scheduler, err := builder.Build(ctx.Container(), ctx.Engine(), builder.Logger("Cron"))
		if err != nil {
			ctx.AddError(err)
			return
		}

		di.Register[*Scheduler](ctx.Container(), di.WithValue(scheduler))
		ctx.AddHostedService(scheduler)
	}
}
