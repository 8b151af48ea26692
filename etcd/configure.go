package etcd

import (
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Configure 返回 Etcd 配置器
// 每个客户端以名称为键注册为 *clientv3.Client，default 同时注册为无键服务。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		logger := builder.Logger("Etcd")
		factory, err := builder.Build(logger)
		if err != nil {
			ctx.AddError(err)
			return
		}
		if factory == nil {
			return
		}

		c := ctx.Container()
		di.Register[*EtcdClientFactory](c, di.WithValue(factory))
		for _, name := range factory.Names() {
			client, _ := factory.Get(name)
			if err := c.Add(clientDefinition(client, name)); err != nil {
				ctx.AddError(fmt.Errorf("etcd: register client '%s': %w", name, err))
			}
			if name == DefaultClientName {
				if err := c.Add(clientDefinition(client, nil)); err != nil {
					ctx.AddError(fmt.Errorf("etcd: register default client: %w", err))
				}
			}
		}

		builder.RegisterCleanup("etcd", func() {
			logger.Info("Closing etcd clients")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close etcd clients",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}

func clientDefinition(client *clientv3.Client, key any) *di.ServiceDefinition {
	return &di.ServiceDefinition{
		Type:    di.TypeOf[*clientv3.Client](),
		Key:     key,
		Scope:   di.ScopeSingleton,
		Impl:    client,
		IsValue: true,
	}
}
