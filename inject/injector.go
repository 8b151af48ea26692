package inject

import (
	"fmt"
	"reflect"
)

// Injector 对一个实例执行注入。
type Injector interface {
	Inject(sp ServiceProvider, instance any) error
}

// Action 是预编译的注入函数，通常由代码生成器产生。
// 它必须与反射路径保持一致的行为，可借助 Resolve 实现。
type Action func(sp ServiceProvider, instance any) error

// Inject 实现 Injector。
func (a Action) Inject(sp ServiceProvider, instance any) error {
	return a(sp, instance)
}

// reflectionInjector 使用缓存中的注入计划逐个成员解析并赋值。
type reflectionInjector struct {
	cache *Cache
	typ   reflect.Type
}

func (in *reflectionInjector) Inject(sp ServiceProvider, instance any) error {
	target, err := targetOf(instance)
	if err != nil {
		return err
	}
	if target.Type() != in.typ {
		return fmt.Errorf("%w: injector for %s applied to %s", ErrInvalidTarget, in.typ, target.Type())
	}

	plan, err := in.cache.Plan(in.typ)
	if err != nil {
		return err
	}

	for _, d := range plan.Descriptors {
		name := memberName(d.Member)
		v, ok, err := lookup(sp, d.Member.Type, d.Key)
		if err != nil {
			return fmt.Errorf("inject: resolve %s: %w", name, err)
		}
		if !ok {
			if d.Required {
				return &MissingServiceError{Type: d.Member.Type, Key: d.Key, Member: name}
			}
			continue
		}

		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(d.Member.Type) {
			return &TypeMismatchError{Member: name, Want: d.Member.Type, Got: rv.Type()}
		}
		d.Member.value(target).Set(rv)
	}
	return nil
}

// Resolve 解析类型为 T 的服务，语义与反射注入器相同：
// 缺失的可选服务返回 ok=false；缺失的必需服务返回 *MissingServiceError。
func Resolve[T any](sp ServiceProvider, member string, key any, required bool) (value T, ok bool, err error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	v, found, err := lookup(sp, typ, key)
	if err != nil {
		return value, false, fmt.Errorf("inject: resolve %s: %w", member, err)
	}
	if !found {
		if required {
			return value, false, &MissingServiceError{Type: typ, Key: key, Member: member}
		}
		return value, false, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(typ) {
		return value, false, &TypeMismatchError{Member: member, Want: typ, Got: rv.Type()}
	}
	// 经 reflect 赋值，命名类型与其底层类型之间的规则与反射注入器一致
	out := reflect.New(typ).Elem()
	out.Set(rv)
	return out.Interface().(T), true, nil
}

// targetOf 返回实例指向的结构体值。
func targetOf(instance any) (reflect.Value, error) {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %T is not a non-nil pointer", ErrInvalidTarget, instance)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: %T does not point to a struct", ErrInvalidTarget, instance)
	}
	return rv, nil
}

func memberName(m Member) string {
	if m.Owner == nil {
		return m.Name
	}
	return m.Owner.Name() + "." + m.Name
}
