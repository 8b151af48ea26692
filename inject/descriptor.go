package inject

import (
	"reflect"
	"unsafe"
)

// Member 是对可写结构体字段的抽象。
// Index 是相对于根结构体的字段路径，可直接用于 reflect.Value.FieldByIndex。
type Member struct {
	Name     string
	Type     reflect.Type
	Index    []int
	Owner    reflect.Type // 声明该字段的结构体（嵌入时为被嵌入的类型）
	Exported bool
}

// value 返回 target 中该成员的可写 reflect.Value。
// target 必须是可寻址的结构体值。未导出字段通过 unsafe 取得可写视图。
func (m Member) value(target reflect.Value) reflect.Value {
	f := target.FieldByIndex(m.Index)
	if f.CanSet() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

// Descriptor 描述一个可注入成员以及它的注入策略。
// 发现之后不可变，同一类型的所有实例共享。
type Descriptor struct {
	Member   Member
	Key      any // nil 表示按类型查找
	Required bool
}

// Keyed 报告该成员是否通过服务键查找。
func (d Descriptor) Keyed() bool {
	return d.Key != nil
}

// Plan 是一个类型的有序注入描述列表。
type Plan struct {
	Type        reflect.Type
	Descriptors []Descriptor
}

// Len 返回可注入成员的数量。
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Descriptors)
}

// NewMember 为 typ 中位于 index 路径的字段构造 Member。
// 供生成的注册代码使用，使其产生与反射发现一致的描述。
func NewMember(typ reflect.Type, index ...int) Member {
	typ = structType(typ)
	field := typ.FieldByIndex(index)
	owner := typ
	if len(index) > 1 {
		owner = typ.FieldByIndex(index[:len(index)-1]).Type
	}
	return Member{
		Name:     field.Name,
		Type:     field.Type,
		Index:    append([]int(nil), index...),
		Owner:    owner,
		Exported: field.IsExported(),
	}
}

// structType 将指针类型解包为其元素类型。
func structType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}
