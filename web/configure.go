package web

import (
	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Configure 返回 Web 配置器
// 端口默认读取 web:port，Host 同时注册为 *web.Host 服务。
//
//	builder.Configure(web.Configure(func(b *web.Builder) {
//		b.AddControllers(NewUserController).AddDiagnostics()
//	}))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		builder.UsePortFromConfig("web:port")
		if options != nil {
			options(builder)
		}

		logger := builder.Logger("Web")
		host, err := builder.Build(ctx.Container(), logger)
		if err != nil {
			ctx.AddError(err)
			return
		}

		di.Register[*Host](ctx.Container(), di.WithValue(host))
		ctx.AddHostedService(host)

		logger.Info("Web host configured", logging.Field{Key: "port", Value: host.port})
	}
}
