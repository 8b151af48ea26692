package singleton

import (
	"fmt"
	"reflect"

	"github.com/gocrud/component/di"
)

// Create 按生命周期创建组件：单例取注册表中的唯一实例，
// 作用域与瞬时每次通过定位器新建。
func Create(r *Registry, lifetime di.ScopeType, typ reflect.Type) (any, error) {
	switch lifetime {
	case di.ScopeSingleton:
		return r.Instance(typ)
	case di.ScopeScoped, di.ScopeTransient:
		c, err := r.locator.AddComponent(typ)
		if err != nil {
			return nil, fmt.Errorf("singleton: create %s: %w", typ, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("singleton: unsupported lifetime %v", lifetime)
	}
}

// CreateOf 是 Create 的泛型形式
func CreateOf[T any](r *Registry, lifetime di.ScopeType) (*T, error) {
	c, err := Create(r, lifetime, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return c.(*T), nil
}
