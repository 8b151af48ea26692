package inject

import "reflect"

// Resolver 为运行时类型选择注入器。返回 nil 表示不处理该类型。
type Resolver interface {
	Injector(typ reflect.Type) Injector
}

// ResolverFunc 将函数适配为 Resolver。
type ResolverFunc func(typ reflect.Type) Injector

func (f ResolverFunc) Injector(typ reflect.Type) Injector {
	return f(typ)
}

// ReflectionResolver 为任何类型返回基于反射的注入器，是链的兜底。
type ReflectionResolver struct {
	cache *Cache
}

func NewReflectionResolver(cache *Cache) *ReflectionResolver {
	return &ReflectionResolver{cache: cache}
}

func (r *ReflectionResolver) Injector(typ reflect.Type) Injector {
	return &reflectionInjector{cache: r.cache, typ: structType(typ)}
}

// GeneratedResolver 只为注册了预编译注入函数的类型返回注入器。
type GeneratedResolver struct {
	cache *Cache
}

func NewGeneratedResolver(cache *Cache) *GeneratedResolver {
	return &GeneratedResolver{cache: cache}
}

func (r *GeneratedResolver) Injector(typ reflect.Type) Injector {
	if action, ok := r.cache.Action(typ); ok {
		return action
	}
	return nil
}

type chain []Resolver

// Chain 组合多个解析器，按顺序返回第一个非 nil 的注入器。
func Chain(resolvers ...Resolver) Resolver {
	c := make(chain, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			c = append(c, r)
		}
	}
	return c
}

func (c chain) Injector(typ reflect.Type) Injector {
	for _, r := range c {
		if in := r.Injector(typ); in != nil {
			return in
		}
	}
	return nil
}

// DefaultResolver 先查预编译注入函数，再回退到反射。
func DefaultResolver(cache *Cache) Resolver {
	return Chain(NewGeneratedResolver(cache), NewReflectionResolver(cache))
}
