package mongodb

import (
	"errors"
	"fmt"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/logging"
)

// Builder MongoDB 配置构建器
type Builder struct {
	core.BaseBuilder
	configs []MongoOptions
	names   map[string]bool
	errors  []error
}

// NewBuilder 创建构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		names:       make(map[string]bool),
	}
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name string, uri string, configure func(*MongoOptions)) *Builder {
	if b.names[name] {
		b.errors = append(b.errors, fmt.Errorf("mongo client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	opts.Name = name

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err))
		return b
	}

	b.names[name] = true
	b.configs = append(b.configs, *opts)
	return b
}

// AddFromConfig 从配置节读取连接串，节下形如 <name>: { uri: ... }
func (b *Builder) AddFromConfig(section string) *Builder {
	cfg := b.ConfigContext().GetConfiguration().GetSection(section)
	for name := range cfg.GetAll() {
		sub := cfg.GetSection(name)
		b.Add(name, sub.Get("uri"), func(o *MongoOptions) {
			o.Username = sub.GetWithDefault("username", o.Username)
			o.Password = sub.GetWithDefault("password", o.Password)
			if sub.Exists("timeout") {
				d, err := sub.GetDuration("timeout")
				if err != nil {
					b.errors = append(b.errors, fmt.Errorf("mongo client '%s' timeout: %w", name, err))
					return
				}
				o.Timeout = d
			}
		})
	}
	return b
}

// Build 构建 MongoDB 工厂，没有配置客户端时返回 nil
func (b *Builder) Build(logger logging.Logger) (*MongoFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("mongo configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewMongoFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register mongo client '%s': %w", opts.Name, err)
		}

		logger.Info("Mongo client registered",
			logging.Field{Key: "name", Value: opts.Name})
	}

	return factory, nil
}
