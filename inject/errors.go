package inject

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/muir/reflectutils"

	"github.com/gocrud/component/logging"
)

var (
	// ErrServiceNotFound 由服务提供者返回，表示请求的服务未注册。
	// 注入器将其视为"缺失"，而不是故障。
	ErrServiceNotFound = errors.New("inject: service not found")

	// ErrMissingRequiredService 必需成员无法解析到服务。
	ErrMissingRequiredService = errors.New("inject: missing required service")

	// ErrTypeMismatch 解析到的服务无法赋值给成员的声明类型。
	ErrTypeMismatch = errors.New("inject: service type mismatch")

	// ErrNoInjector 解析器链没有为实例的运行时类型产生注入器。
	ErrNoInjector = errors.New("inject: no injector available")

	// ErrConflictingMarkers 同一成员同时带有 di 与 dikey 标记。
	ErrConflictingMarkers = errors.New("inject: conflicting injection markers")

	// ErrInvalidMarker 标记语法无法识别。
	ErrInvalidMarker = errors.New("inject: invalid injection marker")

	// ErrInvalidTarget 注入目标不是非 nil 的结构体指针。
	ErrInvalidTarget = errors.New("inject: invalid injection target")
)

// MissingServiceError 描述一个未能满足的必需成员。
type MissingServiceError struct {
	Type   reflect.Type
	Key    any
	Member string
}

func (e *MissingServiceError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("inject: required service %s (key=%v) is not registered (member %s)",
			reflectutils.TypeName(e.Type), e.Key, e.Member)
	}
	return fmt.Sprintf("inject: required service %s is not registered (member %s)",
		reflectutils.TypeName(e.Type), e.Member)
}

func (e *MissingServiceError) Is(target error) bool {
	return target == ErrMissingRequiredService
}

func (e *MissingServiceError) LogFields() []logging.Field {
	fields := []logging.Field{
		{Key: "member", Value: e.Member},
		{Key: "service", Value: e.Type},
	}
	if e.Key != nil {
		fields = append(fields, logging.Field{Key: "key", Value: e.Key})
	}
	return fields
}

// TypeMismatchError 描述提供者返回了与成员类型不兼容的值。
type TypeMismatchError struct {
	Member string
	Want   reflect.Type
	Got    reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("inject: member %s expects %s, provider returned %s",
		e.Member, reflectutils.TypeName(e.Want), reflectutils.TypeName(e.Got))
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

func (e *TypeMismatchError) LogFields() []logging.Field {
	return []logging.Field{
		{Key: "member", Value: e.Member},
		{Key: "want", Value: e.Want},
		{Key: "got", Value: e.Got},
	}
}
