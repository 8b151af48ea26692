package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Configure 返回 Redis 配置器
// 每个客户端以名称为键注册为 *redis.Client，名为 default 的客户端同时注册为无键服务。
//
//	builder.Configure(redis.Configure(func(b *redis.Builder) {
//		b.AddClient("cache", func(o *redis.RedisClientOptions) { o.Addr = "cache:6379" })
//	}))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		logger := builder.Logger("Redis")
		factory, err := builder.Build(logger)
		if err != nil {
			ctx.AddError(err)
			return
		}
		if factory == nil {
			return
		}

		c := ctx.Container()
		di.Register[*RedisClientFactory](c, di.WithValue(factory))
		for _, name := range factory.Names() {
			client, _ := factory.Get(name)
			if err := c.Add(clientDefinition(client, name)); err != nil {
				ctx.AddError(fmt.Errorf("redis: register client '%s': %w", name, err))
			}
			if name == DefaultClientName {
				if err := c.Add(clientDefinition(client, nil)); err != nil {
					ctx.AddError(fmt.Errorf("redis: register default client: %w", err))
				}
			}
		}

		builder.RegisterCleanup("redis", func() {
			logger.Info("Closing redis clients")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close redis clients",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}

func clientDefinition(client *redis.Client, key any) *di.ServiceDefinition {
	return &di.ServiceDefinition{
		Type:    di.TypeOf[*redis.Client](),
		Key:     key,
		Scope:   di.ScopeSingleton,
		Impl:    client,
		IsValue: true,
	}
}
