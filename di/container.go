package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/gocrud/component/inject"
)

// Container 是依赖注入容器的接口。
// 它同时是 inject 包的服务提供者，缺失的服务以 inject.ErrServiceNotFound 报告。
type Container interface {
	inject.ServiceProvider
	inject.KeyedServiceProvider

	// Add 注册服务定义。
	Add(def *ServiceDefinition) error

	// Build 构建依赖图并进行验证。
	Build() error

	// CreateScope 为作用域实例创建一个新作用域。
	CreateScope() Scope

	// Engine 返回容器用于结构体字段注入的引擎。
	Engine() *inject.Engine

	// Has 报告是否注册了指定的服务。
	Has(typ reflect.Type, key any) bool

	// serviceCount 返回注册服务的总数（用于数组大小调整）。
	serviceCount() int
}

// ContainerOption 配置容器。
type ContainerOption func(*container)

// WithEngine 指定结构体字段注入使用的引擎，默认新建一个。
func WithEngine(engine *inject.Engine) ContainerOption {
	return func(c *container) {
		c.engine = engine
	}
}

// container 是具体的实现。
type container struct {
	mu              sync.RWMutex
	definitions     map[ServiceKey]*ServiceDefinition
	built           atomic.Bool
	serviceCountVal int

	engine *inject.Engine
	// resolver 处理实例的创建
	resolver *resolver
}

// NewContainer 创建一个新的空容器。
func NewContainer(opts ...ContainerOption) Container {
	c := &container{
		definitions: make(map[ServiceKey]*ServiceDefinition),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = inject.New()
	}
	c.resolver = newResolver(c.engine)
	return c
}

// Add 向容器添加服务定义。
func (c *container) Add(def *ServiceDefinition) error {
	if c.built.Load() {
		return fmt.Errorf("di: build 后无法注册服务")
	}
	if def.Key != nil && !reflect.TypeOf(def.Key).Comparable() {
		return fmt.Errorf("di: 服务 %v 的键 %T 不可比较", def.Type, def.Key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := def.key()
	if _, exists := c.definitions[key]; exists {
		return fmt.Errorf("di: 服务 %v 已注册", key)
	}

	c.definitions[key] = def
	return nil
}

// Build 构建依赖图并进行验证。
func (c *container) Build() error {
	if c.built.Load() {
		return nil // 已构建
	}

	c.mu.Lock()
	// 双重检查
	if c.built.Load() {
		c.mu.Unlock()
		return nil
	}

	// 0. 为定义分配 ID，只要唯一即可
	c.serviceCountVal = 0
	for _, def := range c.definitions {
		def.ID = c.serviceCountVal
		c.serviceCountVal++
	}

	// 1. 依赖图和循环检测
	graph := newGraphBuilder(c.definitions, c.engine.Cache())
	order, err := graph.buildOrder()
	if err != nil {
		c.mu.Unlock()
		return err
	}

	// 标记为已构建。此后 Add() 将失败，定义不再变化。
	c.built.Store(true)
	c.mu.Unlock()

	// 2. 按拓扑顺序急切初始化单例，在锁外执行以避免死锁。
	for _, key := range order {
		def := c.definitions[key]
		if def.Scope == ScopeSingleton {
			if _, err := c.GetKeyed(key.Type, key.Key); err != nil {
				return fmt.Errorf("di: 构建单例 %v 失败: %w", key, err)
			}
		}
	}

	return nil
}

// Get 检索请求类型的无键实例。
func (c *container) Get(typ reflect.Type) (any, error) {
	return c.GetKeyed(typ, nil)
}

// GetKeyed 检索请求类型和键的实例。
func (c *container) GetKeyed(typ reflect.Type, key any) (any, error) {
	if !c.built.Load() {
		return nil, fmt.Errorf("di: 容器未构建")
	}

	sk := ServiceKey{Type: typ, Key: key}

	// 构建后定义不可变，可以无锁读取。
	def, ok := c.definitions[sk]
	if !ok {
		return nil, fmt.Errorf("di: 未找到服务 %v: %w", sk, inject.ErrServiceNotFound)
	}

	switch def.Scope {
	case ScopeSingleton:
		def.singletonOnce.Do(func() {
			def.singletonInst, def.singletonErr = c.resolver.createInstance(c, def)
		})
		return def.singletonInst, def.singletonErr
	case ScopeTransient:
		return c.resolver.createInstance(c, def)
	case ScopeScoped:
		return nil, fmt.Errorf("di: 无法从根容器解析作用域服务 %v。请使用 CreateScope()。", sk)
	}

	return nil, fmt.Errorf("di: 未知作用域 %v", def.Scope)
}

// Has 报告是否注册了指定的服务。
func (c *container) Has(typ reflect.Type, key any) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.definitions[ServiceKey{Type: typ, Key: key}]
	return ok
}

// CreateScope 为作用域实例创建一个新作用域。
func (c *container) CreateScope() Scope {
	return newScope(c)
}

func (c *container) Engine() *inject.Engine {
	return c.engine
}

func (c *container) serviceCount() int {
	return c.serviceCountVal
}
