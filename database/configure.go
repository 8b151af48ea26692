package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
)

// Configure 返回数据库配置器
// 每个实例以名称为键注册为 *gorm.DB，名为 default 的实例同时注册为无键服务。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder(ctx)
		if options != nil {
			options(builder)
		}

		logger := builder.Logger("Database")
		factory, err := builder.Build(logger)
		if err != nil {
			ctx.AddError(err)
			return
		}
		if factory == nil {
			return
		}

		c := ctx.Container()
		di.Register[*DatabaseFactory](c, di.WithValue(factory))
		for _, name := range factory.Names() {
			db, _ := factory.Get(name)
			if err := c.Add(dbDefinition(db, name)); err != nil {
				ctx.AddError(fmt.Errorf("database: register '%s': %w", name, err))
			}
			if name == DefaultDatabaseName {
				if err := c.Add(dbDefinition(db, nil)); err != nil {
					ctx.AddError(fmt.Errorf("database: register default: %w", err))
				}
			}
		}

		builder.RegisterCleanup("database", func() {
			logger.Info("Closing database connections")
			if err := factory.Close(); err != nil {
				logger.Error("Failed to close databases",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}

func dbDefinition(db *gorm.DB, key any) *di.ServiceDefinition {
	return &di.ServiceDefinition{
		Type:    di.TypeOf[*gorm.DB](),
		Key:     key,
		Scope:   di.ScopeSingleton,
		Impl:    db,
		IsValue: true,
	}
}
