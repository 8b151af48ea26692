package inject

import (
	"errors"
	"reflect"
)

// ServiceProvider 按类型解析服务。
// 服务不存在时返回匹配 ErrServiceNotFound 的错误，或返回 (nil, nil)。
type ServiceProvider interface {
	Get(typ reflect.Type) (any, error)
}

// KeyedServiceProvider 按 (类型, 键) 解析服务。
// 不实现该接口的提供者对所有带键查找都视为"缺失"。
type KeyedServiceProvider interface {
	GetKeyed(typ reflect.Type, key any) (any, error)
}

// lookup 向提供者请求服务。ok 为 false 表示服务缺失；err 只报告真正的故障。
func lookup(sp ServiceProvider, typ reflect.Type, key any) (v any, ok bool, err error) {
	if sp == nil {
		return nil, false, nil
	}
	if key != nil {
		keyed, isKeyed := sp.(KeyedServiceProvider)
		if !isKeyed {
			return nil, false, nil
		}
		v, err = keyed.GetKeyed(typ, key)
	} else {
		v, err = sp.Get(typ)
	}
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if isNil(v) {
		return nil, false, nil
	}
	return v, true, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
