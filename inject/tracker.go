package inject

import (
	"sync"
	"sync/atomic"
)

// DefaultCleanupInterval 是两次自动清理之间的操作次数。
const DefaultCleanupInterval = 100

// Destroyable 由生命周期可结束的实例实现。
type Destroyable interface {
	Destroyed() bool
}

// Tracker 记录已经注入过的实例。零值可用，清理间隔为 DefaultCleanupInterval。
//
// 实例以指针身份存储。每 interval 次 Contains/Add 操作执行一次清理，
// 移除已销毁（Destroyed() 为 true）的实例。可安全并发使用。
type Tracker struct {
	instances sync.Map // any -> struct{}
	size      atomic.Int64
	ops       atomic.Int64
	interval  int64
}

// NewTracker 创建跟踪器。interval <= 0 时使用 DefaultCleanupInterval。
func NewTracker(interval int) *Tracker {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &Tracker{interval: int64(interval)}
}

// Contains 报告实例是否被跟踪。
func (t *Tracker) Contains(instance any) bool {
	t.tick()
	_, ok := t.instances.Load(instance)
	return ok
}

// Add 跟踪实例，重复添加无副作用。instance 必须是可比较的值（通常是指针）。
func (t *Tracker) Add(instance any) {
	t.tick()
	if _, loaded := t.instances.LoadOrStore(instance, struct{}{}); !loaded {
		t.size.Add(1)
	}
}

// Remove 停止跟踪实例。
func (t *Tracker) Remove(instance any) bool {
	if _, loaded := t.instances.LoadAndDelete(instance); loaded {
		t.size.Add(-1)
		return true
	}
	return false
}

// Len 返回被跟踪的实例数量。
func (t *Tracker) Len() int {
	return int(t.size.Load())
}

// Sweep 移除所有已销毁的实例，返回移除数量。
func (t *Tracker) Sweep() int {
	removed := 0
	t.instances.Range(func(k, _ any) bool {
		if d, ok := k.(Destroyable); ok && d.Destroyed() {
			if t.Remove(k) {
				removed++
			}
		}
		return true
	})
	return removed
}

func (t *Tracker) tick() {
	interval := t.interval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if t.ops.Add(1)%interval == 0 {
		t.Sweep()
	}
}
