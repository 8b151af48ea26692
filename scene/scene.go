package scene

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/gocrud/component/logging"
)

var (
	// ErrInvalidComponent 组件必须是非 nil 的结构体指针
	ErrInvalidComponent = errors.New("scene: component must be a non-nil struct pointer")
	// ErrAlreadyAttached 组件已在场景中
	ErrAlreadyAttached = errors.New("scene: component already attached")
)

// Awaker 组件激活时调用
type Awaker interface {
	Awake() error
}

// Destroyer 组件销毁时调用
type Destroyer interface {
	OnDestroy()
}

// Activator 组件激活钩子，在 Awake 之前按注册顺序执行
type Activator func(component any) error

// Hook 组件销毁钩子
type Hook func(component any)

// Scene 组件宿主：创建、激活、查找和销毁组件
type Scene struct {
	name   string
	logger logging.Logger

	mu         sync.RWMutex
	components []any
	activators []Activator
	hooks      []Hook
}

// Option 场景选项
type Option func(*Scene)

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(s *Scene) {
		s.logger = logger
	}
}

// New 创建场景
func New(name string, opts ...Option) *Scene {
	s := &Scene{name: name}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	return s
}

// Name 返回场景名称
func (s *Scene) Name() string {
	return s.name
}

// OnActivate 注册激活钩子
func (s *Scene) OnActivate(a Activator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activators = append(s.activators, a)
}

// OnDestroy 注册销毁钩子
func (s *Scene) OnDestroy(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// AddComponent 创建 typ 的新实例并挂载到场景。typ 可以是结构体或结构体指针类型。
func (s *Scene) AddComponent(typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, ErrInvalidComponent
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrInvalidComponent, typ)
	}
	component := reflect.New(typ).Interface()
	if err := s.Attach(component); err != nil {
		return nil, err
	}
	return component, nil
}

// Add 创建并挂载 T 类型的组件
func Add[T any](s *Scene) (*T, error) {
	component, err := s.AddComponent(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return component.(*T), nil
}

// Attach 挂载已有组件并激活。
// 激活失败时组件会被销毁，返回激活错误。
func (s *Scene) Attach(component any) error {
	v := reflect.ValueOf(component)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrInvalidComponent, component)
	}

	s.mu.Lock()
	if slices.Contains(s.components, component) {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	s.components = append(s.components, component)
	activators := slices.Clone(s.activators)
	s.mu.Unlock()

	if b, ok := component.(behaviour); ok {
		b.behaviour().attach(v.Elem().Type().Name())
	}
	s.logger.Debug("组件已挂载",
		logging.Field{Key: "scene", Value: s.name},
		logging.Field{Key: "type", Value: v.Type().String()})

	// 钩子不在锁内执行，钩子中可以继续创建组件
	for _, activate := range activators {
		if err := activate(component); err != nil {
			s.logger.Warn("组件激活失败",
				append([]logging.Field{{Key: "scene", Value: s.name}, {Key: "type", Value: v.Type()}},
					logging.ErrorFields(err)...)...)
			s.Destroy(component)
			return err
		}
	}
	if a, ok := component.(Awaker); ok {
		if err := a.Awake(); err != nil {
			s.Destroy(component)
			return fmt.Errorf("scene: %T awake: %w", component, err)
		}
	}
	return nil
}

// Destroy 从场景中移除组件，并依次调用 OnDestroy 与销毁钩子。
// 组件不在场景中时返回 false。
func (s *Scene) Destroy(component any) bool {
	s.mu.Lock()
	i := slices.Index(s.components, component)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.components = slices.Delete(s.components, i, i+1)
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	if b, ok := component.(behaviour); ok {
		b.behaviour().destroy()
	}
	if d, ok := component.(Destroyer); ok {
		d.OnDestroy()
	}
	for _, h := range hooks {
		h(component)
	}
	s.logger.Debug("组件已销毁",
		logging.Field{Key: "scene", Value: s.name},
		logging.Field{Key: "type", Value: fmt.Sprintf("%T", component)})
	return true
}

// FindAnyByType 返回第一个类型匹配的组件。
// typ 为接口时匹配实现了该接口的组件，为结构体时按其指针类型匹配。
func (s *Scene) FindAnyByType(typ reflect.Type) (any, bool) {
	if typ == nil {
		return nil, false
	}
	if typ.Kind() == reflect.Struct {
		typ = reflect.PointerTo(typ)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.components {
		ct := reflect.TypeOf(c)
		if ct == typ || (typ.Kind() == reflect.Interface && ct.Implements(typ)) {
			return c, true
		}
	}
	return nil, false
}

// Contains 报告组件是否在场景中
func (s *Scene) Contains(component any) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.components, component)
}

// Components 返回当前组件的副本，按挂载顺序
func (s *Scene) Components() []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.components)
}

// Len 返回组件数量
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components)
}

// Clear 销毁所有组件，后挂载的先销毁
func (s *Scene) Clear() {
	components := s.Components()
	for i := len(components) - 1; i >= 0; i-- {
		s.Destroy(components[i])
	}
}
