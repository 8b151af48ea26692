package config

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// WatchableSource 支持变更通知的配置源。
// Watch 阻塞直到 ctx 结束，每次变更调用 onChange。
type WatchableSource interface {
	ConfigurationSource
	Watch(ctx context.Context, onChange func()) error
}

// ConfigurationBuilder 配置构建器，后添加的配置源覆盖先添加的
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&JsonFileSource{Path: path, Optional: isOptional(optional)})
}

// AddJsonGlob 添加匹配 pattern 的全部 JSON 文件，按文件名顺序合并
func (b *ConfigurationBuilder) AddJsonGlob(pattern string) *ConfigurationBuilder {
	return b.Add(&JsonGlobSource{Pattern: pattern})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional(optional)})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// Sources 返回配置源副本
func (b *ConfigurationBuilder) Sources() []ConfigurationSource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.sources)
}

// Build 构建静态配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	return b.BuildReloadable()
}

// BuildReloadable 构建可重载配置
func (b *ConfigurationBuilder) BuildReloadable() (*ReloadableConfiguration, error) {
	sources := b.Sources()
	data, err := loadSources(sources)
	if err != nil {
		return nil, err
	}
	return &ReloadableConfiguration{
		configuration: newConfiguration(data),
		sources:       sources,
	}, nil
}

func loadSources(sources []ConfigurationSource) (map[string]any, error) {
	data := make(map[string]any)
	for _, source := range sources {
		loaded, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}
	return data, nil
}

// ReloadableConfiguration 可重载配置。读取无锁，Reload 原子替换全部数据。
type ReloadableConfiguration struct {
	*configuration

	sources []ConfigurationSource

	mu        sync.Mutex
	callbacks []func()
}

// Reload 重新加载所有配置源。失败时保留旧数据。
func (r *ReloadableConfiguration) Reload() error {
	data, err := loadSources(r.sources)
	if err != nil {
		return err
	}
	r.store.Store(data)

	r.mu.Lock()
	callbacks := slices.Clone(r.callbacks)
	r.mu.Unlock()
	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// OnReload 注册重载回调
func (r *ReloadableConfiguration) OnReload(cb func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Watch 监听所有 WatchableSource，变更时重载。阻塞直到 ctx 结束。
// onError 接收监听和重载过程中的错误，可以为 nil。
func (r *ReloadableConfiguration) Watch(ctx context.Context, onError func(error)) {
	if onError == nil {
		onError = func(error) {}
	}

	var wg sync.WaitGroup
	for _, source := range r.sources {
		ws, ok := source.(WatchableSource)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ws.Watch(ctx, func() {
				if err := r.Reload(); err != nil {
					onError(err)
				}
			})
			if err != nil && ctx.Err() == nil {
				onError(fmt.Errorf("watch %s: %w", ws.Name(), err))
			}
		}()
	}
	wg.Wait()
}

func isOptional(optional []bool) bool {
	return len(optional) > 0 && optional[0]
}
