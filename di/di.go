package di

import (
	"fmt"
	"reflect"

	"github.com/gocrud/component/inject"
)

// Provide 智能注册服务。
// 它可以接受构造函数、结构体指针或类型，并自动推断服务类型和注册方式。
//
// 支持的输入 target 类型:
// 1. func(...) (Service, error?) -> 注册为 Factory，ServiceType 为第一个返回值。
// 2. *Struct                      -> 注册为 Value (Singleton)，ServiceType 为 *Struct。
//   - 如果结构体包含注入标记，会自动启用 WithFields。
//
// 3. reflect.Type                 -> 注册为 Implementation (Struct注入)，ServiceType 为该 Type。
func Provide(c Container, target any, opts ...Option) (reflect.Type, error) {
	targetVal := reflect.ValueOf(target)
	var def *ServiceDefinition
	var serviceType reflect.Type

	if typeVal, ok := target.(reflect.Type); ok {
		serviceType = typeVal
		def = &ServiceDefinition{
			Type:     serviceType,
			Scope:    ScopeSingleton,
			ImplType: serviceType,
		}
	} else if targetVal.Kind() == reflect.Func {
		fnType := targetVal.Type()
		if fnType.NumOut() == 0 {
			return nil, fmt.Errorf("di: constructor function must return at least one value")
		}

		// 推断服务类型为第一个返回值
		serviceType = fnType.Out(0)
		def = &ServiceDefinition{
			Type:      serviceType,
			Scope:     ScopeSingleton,
			Impl:      target,
			IsFactory: true,
		}
	} else if targetVal.Kind() == reflect.Pointer {
		serviceType = targetVal.Type()
		def = &ServiceDefinition{
			Type:    serviceType,
			Scope:   ScopeSingleton,
			Impl:    target,
			IsValue: true,
		}
		if targetVal.Elem().Kind() == reflect.Struct && inject.HasMarkers(serviceType) {
			def.InjectFields = true
		}
	} else {
		return nil, fmt.Errorf("di: unsupported auto-registration target type: %T", target)
	}

	for _, opt := range opts {
		opt(def)
	}

	if err := c.Add(def); err != nil {
		return nil, err
	}
	return serviceType, nil
}

// Register registers a service of type T with the container.
// If T is an interface, you must use di.Use[Impl]() to specify the implementation.
func Register[T any](c Container, opts ...Option) {
	typ := TypeOf[T]()

	def := &ServiceDefinition{
		Type:     typ,
		Scope:    ScopeSingleton,
		ImplType: typ,
	}

	for _, opt := range opts {
		opt(def)
	}

	if err := c.Add(def); err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", typ, err))
	}
}

// Resolve resolves an unkeyed instance of type T from the container or scope.
func Resolve[T any](c Container) (T, error) {
	return ResolveKeyed[T](c, nil)
}

// ResolveKeyed resolves the instance of type T registered under key.
func ResolveKeyed[T any](c Container, key any) (T, error) {
	var zero T
	typ := TypeOf[T]()

	val, err := c.GetKeyed(typ, key)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	if v, ok := val.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("di: resolved value is %T, expected %v", val, typ)
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
