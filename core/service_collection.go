package core

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/component/di"
	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
	"github.com/gocrud/component/singleton"
)

// ServiceCollection 服务集合
type ServiceCollection struct {
	container   di.Container
	engine      *inject.Engine
	registry    *singleton.Registry
	logger      logging.Logger
	hostedTypes []reflect.Type

	mu   sync.Mutex
	errs []error
}

// Container 返回底层的 DI 容器
func (s *ServiceCollection) Container() di.Container {
	return s.container
}

// Err 返回注册过程中累积的错误
func (s *ServiceCollection) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

func (s *ServiceCollection) addError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *ServiceCollection) add(def *di.ServiceDefinition) {
	if err := s.container.Add(def); err != nil {
		s.addError(err)
	}
}

// AddHostedService 添加托管服务（支持实例、构造函数或类型），
// 服务注册到容器并在构建后解析
func (s *ServiceCollection) AddHostedService(value any, opts ...di.Option) {
	typ, err := di.Provide(s.container, value, opts...)
	if err != nil {
		s.addError(fmt.Errorf("hosted service %T: %w", value, err))
		return
	}
	s.hostedTypes = append(s.hostedTypes, typ)
}

// AddComponent 注册组件服务：服务类型 serviceType 由场景中的 componentType 组件提供。
// 单例取场景中唯一的实例，瞬时和作用域每次新建组件。组件注入后返回。
func (s *ServiceCollection) AddComponent(serviceType, componentType reflect.Type, lifetime di.ScopeType, key any) {
	if componentType.Kind() != reflect.Pointer {
		componentType = reflect.PointerTo(componentType)
	}
	if componentType.Elem().Kind() != reflect.Struct {
		s.addError(fmt.Errorf("component %s must be a struct", componentType))
		return
	}
	if !componentType.AssignableTo(serviceType) {
		s.addError(fmt.Errorf("component %s does not implement %s", componentType, serviceType))
		return
	}

	if lifetime == di.ScopeSingleton && !s.registry.Managed(componentType) {
		s.registry.Configure(componentType, s.registry.DefaultMissing())
	}

	// 单例的唯一性由注册表保证，组件销毁后再次解析会得到新实例
	scope := lifetime
	if scope == di.ScopeSingleton {
		scope = di.ScopeTransient
	}

	s.add(&di.ServiceDefinition{
		Type:      serviceType,
		Key:       key,
		Scope:     scope,
		IsFactory: true,
		FieldsOf:  componentType,
		Impl: func() (any, error) {
			c, err := singleton.Create(s.registry, lifetime, componentType)
			if err != nil {
				return nil, err
			}
			if err := s.engine.Inject(s.container, c); err != nil {
				return nil, err
			}
			return c, nil
		},
	})

	s.logger.Debug("Registered component service",
		logging.Field{Key: "service", Value: serviceType.String()},
		logging.Field{Key: "component", Value: componentType.String()},
		logging.Field{Key: "lifetime", Value: lifetime.String()})
}

// AddComponentSingleton 将组件 *T 注册为单例服务
func AddComponentSingleton[T any](s *ServiceCollection) {
	s.AddComponent(di.TypeOf[*T](), di.TypeOf[*T](), di.ScopeSingleton, nil)
}

// AddKeyedComponentSingleton 将组件 *T 注册为按键的单例服务
func AddKeyedComponentSingleton[T any](s *ServiceCollection, key string) {
	s.AddComponent(di.TypeOf[*T](), di.TypeOf[*T](), di.ScopeSingleton, key)
}

// AddComponentSingletonAs 将组件 *T 以接口 I 注册为单例服务
func AddComponentSingletonAs[I, T any](s *ServiceCollection) {
	s.AddComponent(di.TypeOf[I](), di.TypeOf[*T](), di.ScopeSingleton, nil)
}

// AddKeyedComponentSingletonAs 将组件 *T 以接口 I 注册为按键的单例服务
func AddKeyedComponentSingletonAs[I, T any](s *ServiceCollection, key string) {
	s.AddComponent(di.TypeOf[I](), di.TypeOf[*T](), di.ScopeSingleton, key)
}

// AddComponentTransient 将组件 *T 注册为瞬时服务，每次解析新建组件
func AddComponentTransient[T any](s *ServiceCollection) {
	s.AddComponent(di.TypeOf[*T](), di.TypeOf[*T](), di.ScopeTransient, nil)
}

// AddKeyedComponentTransient 将组件 *T 注册为按键的瞬时服务
func AddKeyedComponentTransient[T any](s *ServiceCollection, key string) {
	s.AddComponent(di.TypeOf[*T](), di.TypeOf[*T](), di.ScopeTransient, key)
}

// AddComponentTransientAs 将组件 *T 以接口 I 注册为瞬时服务
func AddComponentTransientAs[I, T any](s *ServiceCollection) {
	s.AddComponent(di.TypeOf[I](), di.TypeOf[*T](), di.ScopeTransient, nil)
}

// AddKeyedComponentTransientAs 将组件 *T 以接口 I 注册为按键的瞬时服务
func AddKeyedComponentTransientAs[I, T any](s *ServiceCollection, key string) {
	s.AddComponent(di.TypeOf[I](), di.TypeOf[*T](), di.ScopeTransient, key)
}

// AddSingleton 将服务 T 绑定到实现 impl，并注册为单例
// impl 可以是实例、构造函数或 reflect.Type
//
// 示例:
//
//	core.AddSingleton[IService](services, NewServiceImpl)
func AddSingleton[T any](s *ServiceCollection, impl any) {
	addService[T](s, impl, di.ScopeSingleton)
}

// AddTransient 将服务 T 绑定到实现 impl，并注册为瞬时服务
func AddTransient[T any](s *ServiceCollection, impl any) {
	addService[T](s, impl, di.ScopeTransient)
}

// AddScoped 将服务 T 绑定到实现 impl，并注册为作用域服务
func AddScoped[T any](s *ServiceCollection, impl any) {
	addService[T](s, impl, di.ScopeScoped)
}

func addService[T any](s *ServiceCollection, impl any, scope di.ScopeType) {
	serviceType := di.TypeOf[T]()
	def := &di.ServiceDefinition{Type: serviceType, Scope: scope}

	switch v := impl.(type) {
	case nil:
		s.addError(fmt.Errorf("service %s: implementation is nil", serviceType))
		return
	case reflect.Type:
		def.ImplType = v
	default:
		rv := reflect.ValueOf(impl)
		switch {
		case rv.Kind() == reflect.Func:
			def.Impl, def.IsFactory = impl, true
		case scope != di.ScopeSingleton:
			s.addError(fmt.Errorf("service %s: instance can only be registered as singleton", serviceType))
			return
		default:
			def.Impl, def.IsValue = impl, true
			if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
				def.InjectFields = inject.HasMarkers(rv.Type())
			}
		}
	}

	s.add(def)
}
