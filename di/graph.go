package di

import (
	"fmt"
	"reflect"

	"github.com/gocrud/component/inject"
)

// graphBuilder 处理依赖图的构建和验证。
type graphBuilder struct {
	definitions map[ServiceKey]*ServiceDefinition
	cache       *inject.Cache
}

func newGraphBuilder(defs map[ServiceKey]*ServiceDefinition, cache *inject.Cache) *graphBuilder {
	return &graphBuilder{
		definitions: defs,
		cache:       cache,
	}
}

// buildOrder 返回单例的最佳构建顺序并验证图。
func (g *graphBuilder) buildOrder() ([]ServiceKey, error) {
	dependencies := make(map[ServiceKey][]ServiceKey)

	// 1. 提取所有服务的依赖关系
	for key, def := range g.definitions {
		deps, err := g.inspectDependencies(def)
		if err != nil {
			return nil, fmt.Errorf("di: 检查 %v 的依赖失败: %w", key, err)
		}
		dependencies[key] = deps
	}

	// 2. 拓扑排序 (基于 DFS)
	visited := make(map[ServiceKey]bool)
	recursionStack := make(map[ServiceKey]bool)
	var order []ServiceKey

	var visit func(ServiceKey) error
	visit = func(u ServiceKey) error {
		visited[u] = true
		recursionStack[u] = true

		for _, v := range dependencies[u] {
			// 未注册的依赖留到运行时报告
			if _, exists := g.definitions[v]; !exists {
				continue
			}

			if !visited[v] {
				if err := visit(v); err != nil {
					return err
				}
			} else if recursionStack[v] {
				return fmt.Errorf("di: 检测到循环依赖: %v -> %v", u, v)
			}
		}

		recursionStack[u] = false
		order = append(order, u)
		return nil
	}

	for key := range g.definitions {
		if !visited[key] {
			if err := visit(key); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// inspectDependencies 返回服务依赖的键列表，并填充工厂参数。
func (g *graphBuilder) inspectDependencies(def *ServiceDefinition) ([]ServiceKey, error) {
	deps, err := g.directDependencies(def)
	if err != nil || def.FieldsOf == nil {
		return deps, err
	}
	fields, err := g.analyzeStruct(def.FieldsOf)
	if err != nil {
		return nil, err
	}
	return append(deps, fields...), nil
}

func (g *graphBuilder) directDependencies(def *ServiceDefinition) ([]ServiceKey, error) {
	switch {
	case def.IsValue:
		if !def.InjectFields {
			return nil, nil
		}
		return g.analyzeStruct(reflect.TypeOf(def.Impl))
	case def.IsFactory:
		return g.analyzeFunction(def)
	case def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func:
		return g.analyzeFunction(def)
	}
	if def.ImplType == nil {
		return nil, fmt.Errorf("未指定实现类型")
	}
	return g.analyzeStruct(def.ImplType)
}

func (g *graphBuilder) analyzeFunction(def *ServiceDefinition) ([]ServiceKey, error) {
	fnType := reflect.TypeOf(def.Impl)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("期望函数，得到 %v", fnType)
	}

	def.args = def.args[:0]
	var deps []ServiceKey
	for i := 0; i < fnType.NumIn(); i++ {
		argType := fnType.In(i)
		// 工厂函数参数只支持无键注入
		deps = append(deps, ServiceKey{Type: argType})
		def.args = append(def.args, argType)
	}
	return deps, nil
}

// analyzeStruct 使用注入计划计算必需依赖，可选成员不参与图检查。
func (g *graphBuilder) analyzeStruct(typ reflect.Type) ([]ServiceKey, error) {
	plan, err := g.cache.Plan(typ)
	if err != nil {
		return nil, err
	}

	var deps []ServiceKey
	for _, d := range plan.Descriptors {
		if !d.Required {
			continue
		}
		deps = append(deps, ServiceKey{Type: d.Member.Type, Key: d.Key})
	}
	return deps, nil
}
