package inject

import (
	"fmt"
	"reflect"
	"strings"
)

// 结构体标签名。
const (
	// TagInject 按类型注入：`di:""`、`di:"optional"`、`di:"?"`、`di:"required"`。
	TagInject = "di"
	// TagKeyed 按服务键注入：`dikey:"cache"`、`dikey:"cache,optional"`。
	TagKeyed = "dikey"
)

// requiredTags 是外部约定的"必需成员"标记（validator / gin binding）。
var requiredTags = []string{"validate", "binding"}

type marker struct {
	keyed    bool
	key      string
	required bool
}

// parseMarker 解析字段上的注入标记。字段没有标记时 ok 为 false。
func parseMarker(field reflect.StructField) (m marker, ok bool, err error) {
	plain, hasPlain := field.Tag.Lookup(TagInject)
	keyed, hasKeyed := field.Tag.Lookup(TagKeyed)

	switch {
	case hasPlain && hasKeyed:
		return m, false, fmt.Errorf("%w: field %s carries both %q and %q", ErrConflictingMarkers, field.Name, TagInject, TagKeyed)
	case hasPlain:
		m.required = true
		for _, opt := range splitTag(plain) {
			if err := m.applyOption(opt); err != nil {
				return m, false, fmt.Errorf("%w: field %s: %v", ErrInvalidMarker, field.Name, err)
			}
		}
	case hasKeyed:
		parts := splitTag(keyed)
		if len(parts) == 0 || parts[0] == "" {
			return m, false, fmt.Errorf("%w: field %s: empty service key", ErrInvalidMarker, field.Name)
		}
		m.keyed = true
		m.key = parts[0]
		m.required = true
		for _, opt := range parts[1:] {
			if err := m.applyOption(opt); err != nil {
				return m, false, fmt.Errorf("%w: field %s: %v", ErrInvalidMarker, field.Name, err)
			}
		}
	default:
		return m, false, nil
	}

	if hasRequiredMarker(field) {
		m.required = true
	}
	return m, true, nil
}

func (m *marker) applyOption(opt string) error {
	switch opt {
	case "":
	case "optional", "?":
		m.required = false
	case "required":
		m.required = true
	default:
		return fmt.Errorf("unknown option %q", opt)
	}
	return nil
}

func hasRequiredMarker(field reflect.StructField) bool {
	for _, name := range requiredTags {
		tag, ok := field.Tag.Lookup(name)
		if !ok {
			continue
		}
		for _, opt := range splitTag(tag) {
			if opt == "required" {
				return true
			}
		}
	}
	return false
}

func splitTag(tag string) []string {
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
