package di

import (
	"fmt"
	"reflect"
	"sync"
)

// ScopeType 定义了服务的生命周期。
type ScopeType int

const (
	// ScopeSingleton 每个容器创建一个实例。
	ScopeSingleton ScopeType = iota
	// ScopeTransient 每次请求创建一个新实例。
	ScopeTransient
	// ScopeScoped 每个作用域创建一个实例。
	ScopeScoped
)

func (s ScopeType) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopeTransient:
		return "transient"
	case ScopeScoped:
		return "scoped"
	default:
		return fmt.Sprintf("ScopeType(%d)", int(s))
	}
}

// ServiceKey 是服务映射的唯一键。Key 为 nil 表示无键服务。
type ServiceKey struct {
	Type reflect.Type
	Key  any
}

func (k ServiceKey) String() string {
	if k.Key == nil {
		return k.Type.String()
	}
	return fmt.Sprintf("%v (key=%v)", k.Type, k.Key)
}

// ServiceDefinition 包含注册服务的元数据。
type ServiceDefinition struct {
	ID           int
	Type         reflect.Type
	Key          any // 服务键，必须可比较
	Scope        ScopeType
	ImplType     reflect.Type // 用于结构体反射
	Impl         any          // 工厂函数或结构体指针
	IsFactory    bool
	IsValue      bool
	InjectFields bool         // 是否对 IsValue 的实例执行字段注入
	FieldsOf     reflect.Type // 工厂自行注入字段时，声明被注入的结构体类型以参与依赖图

	args []reflect.Type // 工厂参数，Build 时计算

	// 用于单例作用域
	singletonInst any
	singletonErr  error
	singletonOnce sync.Once
}

func (d *ServiceDefinition) key() ServiceKey {
	return ServiceKey{Type: d.Type, Key: d.Key}
}
