package redis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/component/config"
	"github.com/gocrud/component/core"
	"github.com/gocrud/component/logging"
)

// Builder Redis 客户端配置构建器
type Builder struct {
	core.BaseBuilder
	configs []RedisClientOptions
	names   map[string]bool
	errors  []error
}

// NewBuilder 创建 Redis 构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		names:       make(map[string]bool),
	}
}

// AddClient 添加一个 Redis 客户端配置
func (b *Builder) AddClient(name string, configure func(*RedisClientOptions)) *Builder {
	if b.names[name] {
		b.errors = append(b.errors, fmt.Errorf("redis client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	opts.Name = name

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid redis configuration for '%s': %w", name, err))
		return b
	}

	b.names[name] = true
	b.configs = append(b.configs, *opts)
	return b
}

// AddClientsFromConfig 从配置节读取客户端，节下每个子键是一个客户端名称
//
//	redis:
//	  default: { addr: "localhost:6379" }
//	  cache:   { addr: "cache:6379", db: 1 }
func (b *Builder) AddClientsFromConfig(section string) *Builder {
	cfg := b.ConfigContext().GetConfiguration().GetSection(section)

	names := make([]string, 0)
	for name := range cfg.GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sub := cfg.GetSection(name)
		b.AddClient(name, func(o *RedisClientOptions) {
			if err := bindOptions(sub, o); err != nil {
				b.errors = append(b.errors, fmt.Errorf("redis client '%s': %w", name, err))
			}
		})
	}
	return b
}

func bindOptions(cfg config.Configuration, o *RedisClientOptions) error {
	if cfg.Exists("addr") {
		o.Addr = cfg.Get("addr")
	}
	if cfg.Exists("password") {
		o.Password = cfg.Get("password")
	}

	var errs []error
	ints := map[string]*int{
		"db":           &o.DB,
		"poolSize":     &o.PoolSize,
		"minIdleConns": &o.MinIdleConns,
		"maxRetries":   &o.MaxRetries,
	}
	for key, dst := range ints {
		if !cfg.Exists(key) {
			continue
		}
		v, err := cfg.GetInt(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		*dst = v
	}

	durations := map[string]*time.Duration{
		"dialTimeout":  &o.DialTimeout,
		"readTimeout":  &o.ReadTimeout,
		"writeTimeout": &o.WriteTimeout,
	}
	for key, dst := range durations {
		if !cfg.Exists(key) {
			continue
		}
		v, err := cfg.GetDuration(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		*dst = v
	}

	if cfg.Exists("ping") {
		v, err := cfg.GetBool("ping")
		if err != nil {
			errs = append(errs, fmt.Errorf("ping: %w", err))
		}
		o.Ping = v
	}
	return errors.Join(errs...)
}

// Build 构建 Redis 客户端工厂，没有配置客户端时返回 nil
func (b *Builder) Build(logger logging.Logger) (*RedisClientFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("redis configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewRedisClientFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register redis client '%s': %w", opts.Name, err)
		}

		logger.Info("redis client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "addr", Value: opts.Addr},
			logging.Field{Key: "db", Value: opts.DB})
	}

	return factory, nil
}
