package singleton

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
)

var (
	// ErrInstanceNotFound 场景中没有实例且缺失策略为 MissingFail
	ErrInstanceNotFound = errors.New("singleton: no instance found")
	// ErrDuplicateInstance 场景中出现了第二个存活实例
	ErrDuplicateInstance = errors.New("singleton: duplicate instance")
)

// DuplicateInstanceError 记录重复实例的类型
type DuplicateInstanceError struct {
	Type reflect.Type
}

func (e *DuplicateInstanceError) Error() string {
	return fmt.Sprintf("singleton: duplicate instance of %s found in the scene", e.Type.Elem().Name())
}

func (e *DuplicateInstanceError) Is(target error) bool {
	return target == ErrDuplicateInstance
}

// MissingBehavior 找不到实例时的处理方式
type MissingBehavior int

const (
	// MissingCreate 通过定位器创建新实例
	MissingCreate MissingBehavior = iota
	// MissingFail 返回 ErrInstanceNotFound
	MissingFail
)

func (m MissingBehavior) String() string {
	switch m {
	case MissingCreate:
		return "create"
	case MissingFail:
		return "fail"
	default:
		return fmt.Sprintf("MissingBehavior(%d)", int(m))
	}
}

// ParseMissingBehavior 解析配置中的缺失策略（create | fail）
func ParseMissingBehavior(s string) (MissingBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "create":
		return MissingCreate, nil
	case "fail", "throw":
		return MissingFail, nil
	default:
		return MissingCreate, fmt.Errorf("singleton: unknown missing behavior %q", s)
	}
}

// Locator 查找、创建和销毁组件，通常由 *scene.Scene 实现
type Locator interface {
	FindAnyByType(typ reflect.Type) (any, bool)
	AddComponent(typ reflect.Type) (any, error)
	Destroy(component any) bool
}

type entry struct {
	instance any
	missing  MissingBehavior
}

// Registry 按类型管理唯一组件实例。
//
// 只有通过 Configure 或 Instance 登记过的类型才受唯一性约束，
// 其余类型的 Claim 不做任何事。
type Registry struct {
	locator Locator
	missing MissingBehavior
	logger  logging.Logger

	mu      sync.Mutex
	entries map[reflect.Type]*entry
}

// Option 注册表选项
type Option func(*Registry)

// WithMissingBehavior 设置默认缺失策略
func WithMissingBehavior(m MissingBehavior) Option {
	return func(r *Registry) {
		r.missing = m
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry 创建注册表
func NewRegistry(locator Locator, opts ...Option) *Registry {
	r := &Registry{
		locator: locator,
		entries: make(map[reflect.Type]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	return r
}

// DefaultMissing 返回默认缺失策略
func (r *Registry) DefaultMissing() MissingBehavior {
	return r.missing
}

// Configure 登记类型并设置其缺失策略
func (r *Registry) Configure(typ reflect.Type, missing MissingBehavior) {
	typ = pointerType(typ)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entryLocked(typ).missing = missing
}

// Managed 报告类型是否受注册表管理
func (r *Registry) Managed(typ reflect.Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[pointerType(typ)]
	return ok
}

// Instance 返回类型的唯一实例：已缓存的存活实例，其次是场景中已有的实例，
// 最后按缺失策略创建或失败。
func (r *Registry) Instance(typ reflect.Type) (any, error) {
	typ = pointerType(typ)

	r.mu.Lock()
	e := r.entryLocked(typ)
	if alive(e.instance) {
		inst := e.instance
		r.mu.Unlock()
		return inst, nil
	}
	e.instance = nil
	missing := e.missing
	r.mu.Unlock()

	if found, ok := r.locator.FindAnyByType(typ); ok && alive(found) {
		return r.adopt(typ, found), nil
	}

	if missing == MissingFail {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, typ.Elem().Name())
	}

	// 创建过程会触发激活钩子，其中的 Claim 需要获取锁
	created, err := r.locator.AddComponent(typ)
	if err != nil {
		return nil, fmt.Errorf("singleton: create %s: %w", typ.Elem().Name(), err)
	}
	return r.adopt(typ, created), nil
}

// adopt 记录实例；若激活期间已有其他实例登记，返回已登记的实例
func (r *Registry) adopt(typ reflect.Type, instance any) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(typ)
	if alive(e.instance) {
		return e.instance
	}
	e.instance = instance
	return instance
}

// Claim 在组件激活时调用。若同类型已有另一个存活实例，
// 新组件会被销毁并返回 *DuplicateInstanceError。
func (r *Registry) Claim(component any) error {
	typ := reflect.TypeOf(component)

	r.mu.Lock()
	e, ok := r.entries[typ]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if !alive(e.instance) || e.instance == component {
		e.instance = component
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	r.logger.Warn("销毁重复的单例组件", logging.Field{Key: "type", Value: typ.String()})
	r.locator.Destroy(component)
	return &DuplicateInstanceError{Type: typ}
}

// Release 组件销毁时调用，清除对应的实例记录
func (r *Registry) Release(component any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[reflect.TypeOf(component)]; ok && e.instance == component {
		e.instance = nil
	}
}

func (r *Registry) entryLocked(typ reflect.Type) *entry {
	e, ok := r.entries[typ]
	if !ok {
		e = &entry{missing: r.missing}
		r.entries[typ] = e
	}
	return e
}

// Get 返回 T 的唯一实例
func Get[T any](r *Registry) (*T, error) {
	inst, err := r.Instance(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return inst.(*T), nil
}

func pointerType(typ reflect.Type) reflect.Type {
	if typ.Kind() != reflect.Pointer {
		return reflect.PointerTo(typ)
	}
	return typ
}

func alive(instance any) bool {
	if instance == nil {
		return false
	}
	if d, ok := instance.(inject.Destroyable); ok {
		return !d.Destroyed()
	}
	return true
}
