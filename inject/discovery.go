package inject

import (
	"reflect"

	"github.com/muir/reflectutils"
)

// Discover 计算 typ 的注入计划。
//
// 成员按声明顺序排列，嵌入结构体的成员在嵌入位置就地展开。
// 没有标记的字段、空白字段 (_) 被跳过；嵌入的结构体指针不会展开。
// 非结构体类型返回空计划。同一类型的多次调用结果相同。
func Discover(typ reflect.Type) (*Plan, error) {
	typ = structType(typ)
	plan := &Plan{Type: typ}
	if typ == nil || typ.Kind() != reflect.Struct {
		return plan, nil
	}

	err := reflectutils.WalkStructElementsWithError(typ, func(field reflect.StructField) error {
		if field.Name == "_" {
			return reflectutils.DoNotRecurseSignalErr
		}
		m, ok, err := parseMarker(field)
		if err != nil {
			return err
		}
		if !ok {
			// 只展开嵌入的结构体（相当于继承来的成员）
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				return nil
			}
			return reflectutils.DoNotRecurseSignalErr
		}

		d := Descriptor{
			Member:   memberOf(typ, field),
			Required: m.required,
		}
		if m.keyed {
			d.Key = m.key
		}
		plan.Descriptors = append(plan.Descriptors, d)
		return reflectutils.DoNotRecurseSignalErr
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// HasMarkers 报告 typ 是否有任何带注入标记的成员。
// 标记无法解析时也返回 true，错误留到注入时报告。
func HasMarkers(typ reflect.Type) bool {
	plan, err := Discover(typ)
	return err != nil || plan.Len() > 0
}

func memberOf(root reflect.Type, field reflect.StructField) Member {
	owner := root
	if len(field.Index) > 1 {
		owner = root.FieldByIndex(field.Index[:len(field.Index)-1]).Type
	}
	return Member{
		Name:     field.Name,
		Type:     field.Type,
		Index:    append([]int(nil), field.Index...),
		Owner:    owner,
		Exported: field.IsExported(),
	}
}
