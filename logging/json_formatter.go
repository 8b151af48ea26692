package logging

import (
	"encoding/json"
)

// JsonFormatter JSON 格式化器
type JsonFormatter struct {
	TimestampFormat string
	// FlattenFields 为 true 时字段直接写在顶层，而不是 fields 对象中
	FlattenFields bool
}

func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]any, 4+len(entry.Fields))

	data["time"] = entry.Time.Format(f.TimestampFormat)
	data["level"] = entry.Level.String()
	if entry.Category != "" {
		data["category"] = entry.Category
	}
	data["msg"] = entry.Message

	if len(entry.Fields) > 0 {
		fields := data
		if !f.FlattenFields {
			fields = make(map[string]any, len(entry.Fields))
			data["fields"] = fields
		}
		for _, field := range entry.Fields {
			// 保留字段不被覆盖
			if _, reserved := data[field.Key]; reserved && f.FlattenFields {
				continue
			}
			fields[field.Key] = fieldValue(field.Value)
		}
	}

	return json.Marshal(data)
}
