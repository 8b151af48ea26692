package scene

import "sync/atomic"

// Behaviour 可嵌入组件结构体，提供名称和销毁状态。
//
//	type Player struct {
//		scene.Behaviour
//		Input InputService `di:""`
//	}
type Behaviour struct {
	name      string
	destroyed atomic.Bool
}

type behaviour interface {
	behaviour() *Behaviour
}

func (b *Behaviour) behaviour() *Behaviour { return b }

func (b *Behaviour) attach(name string) {
	b.name = name
	b.destroyed.Store(false)
}

func (b *Behaviour) destroy() {
	b.destroyed.Store(true)
}

// Name 返回组件名称（挂载时取自类型名）
func (b *Behaviour) Name() string {
	return b.name
}

// Destroyed 报告组件是否已被销毁
func (b *Behaviour) Destroyed() bool {
	return b.destroyed.Load()
}
