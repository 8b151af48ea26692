// Package inject 为组件实例提供基于结构体标签的服务注入。
//
// 标记：
//
//	type Widget struct {
//		Clock  Clock          `di:""`               // 必需，按类型
//		Cache  Cache          `di:"optional"`       // 可选，按类型
//		Store  Store          `dikey:"primary"`     // 必需，按键
//		Mirror Store          `dikey:"mirror,?"`    // 可选，按键
//		Name   string         `di:"?" validate:"required"` // 外部"必需"标记强制为必需
//	}
//
// 注入元数据按类型缓存在 Cache 中。生成的代码可以通过 Cache.RegisterPlan
// 或 Cache.RegisterAction 注册预先计算的条目，它们优先于反射结果，
// 且对外行为完全相同。
//
// Engine 是生命周期宿主的入口：它保证每个实例至多注入一次
// （实现 Reinitializable 的实例除外），并在注入成功后回调 PostInitializer。
package inject
