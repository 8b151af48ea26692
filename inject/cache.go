package inject

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Cache 是按类型的注入元数据缓存。
//
// 生成层（RegisterPlan / RegisterAction 注册的条目）总是先于反射层被查询，
// 注册之后即永久遮蔽该类型已有的反射结果。反射层按需填充并记忆，
// 并发情况下可能重复计算，但只保存一份。
type Cache struct {
	generated sync.Map // reflect.Type -> *Plan
	actions   sync.Map // reflect.Type -> Action
	reflected sync.Map // reflect.Type -> *cacheEntry

	generatedCount atomic.Int64
	actionCount    atomic.Int64
	reflectedCount atomic.Int64
}

type cacheEntry struct {
	plan *Plan
	err  error
}

// CacheStats 是缓存计数的快照。
type CacheStats struct {
	GeneratedPlans int `json:"generatedPlans"`
	Actions        int `json:"actions"`
	ReflectedPlans int `json:"reflectedPlans"`
}

// NewCache 创建一个空缓存。
func NewCache() *Cache {
	return &Cache{}
}

// Plan 返回 typ 的注入计划。指针类型按其元素类型查找。
func (c *Cache) Plan(typ reflect.Type) (*Plan, error) {
	typ = structType(typ)
	if p, ok := c.generated.Load(typ); ok {
		return p.(*Plan), nil
	}
	if e, ok := c.reflected.Load(typ); ok {
		entry := e.(*cacheEntry)
		return entry.plan, entry.err
	}

	plan, err := Discover(typ)
	e, loaded := c.reflected.LoadOrStore(typ, &cacheEntry{plan: plan, err: err})
	if !loaded {
		c.reflectedCount.Add(1)
	}
	entry := e.(*cacheEntry)
	return entry.plan, entry.err
}

// Action 返回 typ 的预编译注入函数。
func (c *Cache) Action(typ reflect.Type) (Action, bool) {
	a, ok := c.actions.Load(structType(typ))
	if !ok {
		return nil, false
	}
	return a.(Action), true
}

// RegisterPlan 为 typ 注册生成的注入计划。重复注册时后者生效。
func (c *Cache) RegisterPlan(typ reflect.Type, descriptors []Descriptor) {
	typ = structType(typ)
	plan := &Plan{
		Type:        typ,
		Descriptors: append([]Descriptor(nil), descriptors...),
	}
	if _, loaded := c.generated.Swap(typ, plan); !loaded {
		c.generatedCount.Add(1)
	}
}

// RegisterAction 为 typ 注册预编译的注入函数。重复注册时后者生效。
func (c *Cache) RegisterAction(typ reflect.Type, action Action) {
	if action == nil {
		return
	}
	if _, loaded := c.actions.Swap(structType(typ), action); !loaded {
		c.actionCount.Add(1)
	}
}

// HasGeneratedPlan 报告 typ 是否有生成的注入计划。
func (c *Cache) HasGeneratedPlan(typ reflect.Type) bool {
	_, ok := c.generated.Load(structType(typ))
	return ok
}

// GeneratedPlanCount 返回生成层中的计划数量。
func (c *Cache) GeneratedPlanCount() int {
	return int(c.generatedCount.Load())
}

// HasAction 报告 typ 是否有预编译的注入函数。
func (c *Cache) HasAction(typ reflect.Type) bool {
	_, ok := c.actions.Load(structType(typ))
	return ok
}

// ActionCount 返回预编译注入函数的数量。
func (c *Cache) ActionCount() int {
	return int(c.actionCount.Load())
}

// ReflectedCount 返回反射层中已记忆的类型数量。
func (c *Cache) ReflectedCount() int {
	return int(c.reflectedCount.Load())
}

// GeneratedTypes 返回所有拥有生成条目（计划或注入函数）的类型。
func (c *Cache) GeneratedTypes() []reflect.Type {
	seen := make(map[reflect.Type]struct{})
	var types []reflect.Type
	collect := func(k, _ any) bool {
		t := k.(reflect.Type)
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			types = append(types, t)
		}
		return true
	}
	c.generated.Range(collect)
	c.actions.Range(collect)
	return types
}

// Stats 返回当前计数。
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		GeneratedPlans: c.GeneratedPlanCount(),
		Actions:        c.ActionCount(),
		ReflectedPlans: c.ReflectedCount(),
	}
}
