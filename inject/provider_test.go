package inject_test

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/gocrud/component/inject"
)

type serviceKey struct {
	typ reflect.Type
	key any
}

// mapProvider 是测试用的服务提供者，同时支持按类型和按键查找。
type mapProvider struct {
	services map[serviceKey]any
	calls    atomic.Int64
}

func newMapProvider() *mapProvider {
	return &mapProvider{services: make(map[serviceKey]any)}
}

func (p *mapProvider) add(typ reflect.Type, v any) *mapProvider {
	p.services[serviceKey{typ: typ}] = v
	return p
}

func (p *mapProvider) addKeyed(typ reflect.Type, key any, v any) *mapProvider {
	p.services[serviceKey{typ: typ, key: key}] = v
	return p
}

func (p *mapProvider) Get(typ reflect.Type) (any, error) {
	return p.GetKeyed(typ, nil)
}

func (p *mapProvider) GetKeyed(typ reflect.Type, key any) (any, error) {
	p.calls.Add(1)
	v, ok := p.services[serviceKey{typ: typ, key: key}]
	if !ok {
		return nil, fmt.Errorf("no %v (key=%v): %w", typ, key, inject.ErrServiceNotFound)
	}
	return v, nil
}

// plainProvider 只支持按类型查找。
type plainProvider struct {
	inner *mapProvider
}

func (p plainProvider) Get(typ reflect.Type) (any, error) {
	return p.inner.Get(typ)
}

// failingProvider 总是返回非"未找到"的错误。
type failingProvider struct {
	err error
}

func (p failingProvider) Get(reflect.Type) (any, error) {
	return nil, p.err
}

// 测试用服务。

type Clock interface {
	Now() int
}

type fixedClock struct{ t int }

func (c *fixedClock) Now() int { return c.t }

type Store struct {
	Name string
}

type Logger struct {
	Prefix string
}
