package logging

import (
	"fmt"
	"reflect"
	"time"

	"github.com/muir/reflectutils"
)

// Formatter 日志格式化接口
type Formatter interface {
	// Format 格式化日志条目
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// fieldValue 规整字段值：类型输出可读名称，错误与 Stringer 输出文本。
// 注入相关日志大量携带 reflect.Type，直接 JSON 序列化会得到空对象。
func fieldValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case reflect.Type:
		return reflectutils.TypeName(t)
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}
