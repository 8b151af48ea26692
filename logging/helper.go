package logging

import "errors"

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole()
	factory := builder.Build()
	return factory.CreateLogger("default")
}

// FieldsProvider 由能提供结构化日志字段的错误实现
type FieldsProvider interface {
	LogFields() []Field
}

// ErrorFields 返回描述 err 的字段：error 文本，以及错误链中第一个 FieldsProvider 的字段
func ErrorFields(err error) []Field {
	if err == nil {
		return nil
	}
	fields := []Field{{Key: "error", Value: err.Error()}}
	var fp FieldsProvider
	if errors.As(err, &fp) {
		fields = append(fields, fp.LogFields()...)
	}
	return fields
}
