package etcd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/logging"
)

// Builder Etcd 客户端配置构建器
type Builder struct {
	core.BaseBuilder
	configs []EtcdClientOptions
	names   map[string]bool
	errors  []error
}

// NewBuilder 创建 Etcd 构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		names:       make(map[string]bool),
	}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*EtcdClientOptions)) *Builder {
	if b.names[name] {
		b.errors = append(b.errors, fmt.Errorf("etcd client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	opts.Name = name

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid etcd configuration for '%s': %w", name, err))
		return b
	}

	b.names[name] = true
	b.configs = append(b.configs, *opts)
	return b
}

// AddClientsFromConfig 从配置节读取客户端，endpoints 以逗号分隔
//
//	etcd:
//	  default: { endpoints: "etcd-0:2379,etcd-1:2379", dialTimeout: "3s" }
func (b *Builder) AddClientsFromConfig(section string) *Builder {
	cfg := b.ConfigContext().GetConfiguration().GetSection(section)

	names := make([]string, 0)
	for name := range cfg.GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sub := cfg.GetSection(name)
		b.AddClient(name, func(o *EtcdClientOptions) {
			if sub.Exists("endpoints") {
				o.Endpoints = splitEndpoints(sub.Get("endpoints"))
			}
			if sub.Exists("username") {
				o.Username = sub.Get("username")
			}
			if sub.Exists("password") {
				o.Password = sub.Get("password")
			}
			if sub.Exists("dialTimeout") {
				d, err := sub.GetDuration("dialTimeout")
				if err != nil {
					b.errors = append(b.errors, fmt.Errorf("etcd client '%s': dialTimeout: %w", name, err))
					return
				}
				o.DialTimeout = d
			}
		})
	}
	return b
}

func splitEndpoints(raw string) []string {
	var endpoints []string
	for _, ep := range strings.Split(raw, ",") {
		if ep = strings.TrimSpace(ep); ep != "" {
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

// Build 构建 Etcd 客户端工厂，没有配置客户端时返回 nil
func (b *Builder) Build(logger logging.Logger) (*EtcdClientFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("etcd configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewEtcdClientFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register etcd client '%s': %w", opts.Name, err)
		}

		logger.Info("etcd client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "endpoints", Value: strings.Join(opts.Endpoints, ",")})
	}

	return factory, nil
}
