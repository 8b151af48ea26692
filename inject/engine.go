package inject

import (
	"fmt"
	"reflect"

	"github.com/gocrud/component/logging"
)

// Reinitializable 由允许重复注入的实例实现。
type Reinitializable interface {
	AllowsReinitialization() bool
}

// PostInitializer 在一次成功注入之后被回调。
type PostInitializer interface {
	OnServicesInitialized() error
}

// Engine 组合缓存、解析器链与实例跟踪，是生命周期宿主调用注入的入口。
type Engine struct {
	cache    *Cache
	resolver Resolver
	tracker  *Tracker
	logger   logging.Logger

	cleanupInterval int
}

// Option 配置 Engine。
type Option func(*Engine)

// WithCache 使用指定的元数据缓存。
func WithCache(cache *Cache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithResolver 替换默认解析器链。
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithTracker 使用指定的实例跟踪器。
func WithTracker(t *Tracker) Option {
	return func(e *Engine) {
		e.tracker = t
	}
}

// WithCleanupInterval 设置跟踪器的自动清理间隔。
func WithCleanupInterval(n int) Option {
	return func(e *Engine) {
		e.cleanupInterval = n
	}
}

// WithLogger 设置日志记录器。
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New 创建注入引擎。
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewCache()
	}
	if e.tracker == nil {
		e.tracker = NewTracker(e.cleanupInterval)
	}
	if e.resolver == nil {
		e.resolver = DefaultResolver(e.cache)
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	return e
}

// Cache 返回元数据缓存。
func (e *Engine) Cache() *Cache { return e.cache }

// Resolver 返回解析器链。
func (e *Engine) Resolver() Resolver { return e.resolver }

// Tracker 返回实例跟踪器。
func (e *Engine) Tracker() *Tracker { return e.tracker }

// ShouldInject 报告实例是否需要注入：允许重复注入，或尚未被跟踪。
func (e *Engine) ShouldInject(instance any) bool {
	if allowsReinitialization(instance) {
		return true
	}
	return !e.tracker.Contains(instance)
}

// MarkInjected 将实例标记为已注入。
func (e *Engine) MarkInjected(instance any) {
	e.tracker.Add(instance)
}

// Forget 移除实例的注入记录。
func (e *Engine) Forget(instance any) {
	e.tracker.Remove(instance)
}

// Inject 对实例执行至多一次的注入。
//
// 已注入且不允许重复注入的实例被直接跳过。注入成功后调用
// PostInitializer 回调，然后记录该实例。必需服务缺失时
// 实例可能已被部分赋值，此时不会被记录。
func (e *Engine) Inject(sp ServiceProvider, instance any) error {
	if _, err := targetOf(instance); err != nil {
		return err
	}
	if !e.ShouldInject(instance) {
		return nil
	}
	if err := e.Populate(sp, instance); err != nil {
		return err
	}
	if !allowsReinitialization(instance) {
		e.MarkInjected(instance)
	}
	return nil
}

// Populate 对实例执行注入与回调，不检查也不更新跟踪状态。
// 用于刚构造出来的对象。
func (e *Engine) Populate(sp ServiceProvider, instance any) error {
	target, err := targetOf(instance)
	if err != nil {
		return err
	}
	typ := target.Type()

	in := e.resolver.Injector(typ)
	if in == nil {
		return fmt.Errorf("%w for %s", ErrNoInjector, typ)
	}
	if err := in.Inject(sp, instance); err != nil {
		e.logger.Debug("注入失败",
			logging.Field{Key: "type", Value: typ.String()},
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	if cb, ok := instance.(PostInitializer); ok {
		if err := cb.OnServicesInitialized(); err != nil {
			return fmt.Errorf("inject: %s post-initialization: %w", typ, err)
		}
	}
	e.logger.Trace("注入完成", logging.Field{Key: "type", Value: typ.String()})
	return nil
}

// TypeOf 返回 T 的 reflect.Type。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func allowsReinitialization(instance any) bool {
	r, ok := instance.(Reinitializable)
	return ok && r.AllowsReinitialization()
}
