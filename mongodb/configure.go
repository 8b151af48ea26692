package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Configure 返回 MongoDB 配置器
// 每个客户端以名称为键注册为 *mongo.Client，名为 default 的客户端同时注册为无键服务。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		logger := builder.Logger("MongoDB")
		factory, err := builder.Build(logger)
		if err != nil {
			ctx.AddError(err)
			return
		}
		if factory == nil {
			return
		}

		c := ctx.Container()
		di.Register[*MongoFactory](c, di.WithValue(factory))
		for _, name := range factory.Names() {
			client, _ := factory.Get(name)
			if err := c.Add(clientDefinition(client, name)); err != nil {
				ctx.AddError(fmt.Errorf("mongodb: register client '%s': %w", name, err))
			}
			if name == DefaultClientName {
				if err := c.Add(clientDefinition(client, nil)); err != nil {
					ctx.AddError(fmt.Errorf("mongodb: register default client: %w", err))
				}
			}
		}

		builder.RegisterCleanup("mongodb", func() {
			logger.Info("Closing mongo clients")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close mongo clients",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}

func clientDefinition(client *mongo.Client, key any) *di.ServiceDefinition {
	return &di.ServiceDefinition{
		Type:    di.TypeOf[*mongo.Client](),
		Key:     key,
		Scope:   di.ScopeSingleton,
		Impl:    client,
		IsValue: true,
	}
}
