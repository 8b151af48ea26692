package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Configuration 配置接口（类似于 .NET Core IConfiguration）
//
// 路径使用 ":" 或 "." 分隔，例如 "inject:cleanupInterval"。
// 键匹配优先精确匹配，其次忽略大小写。
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetDuration 获取时长配置值，字符串按 time.ParseDuration 解析，数字按秒处理
	GetDuration(key string) (time.Duration, error)
	// Exists 报告键是否存在
	Exists(key string) bool
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
}

// configuration 基于 ValueStore 的只读配置视图
type configuration struct {
	store *ValueStore
	paths *PathCache
}

func newConfiguration(data map[string]any) *configuration {
	store := NewValueStore()
	store.Store(data)
	return &configuration{store: store, paths: globalPathCache}
}

func (c *configuration) Get(key string) string {
	value := c.lookup(key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if value := c.Get(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *configuration) GetInt(key string) (int, error) {
	value := c.lookup(key)
	if value == nil {
		return 0, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("cannot convert %v to int", value)
	}
}

func (c *configuration) GetBool(key string) (bool, error) {
	value := c.lookup(key)
	if value == nil {
		return false, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("cannot convert %v to bool", value)
	}
}

func (c *configuration) GetDuration(key string) (time.Duration, error) {
	value := c.lookup(key)
	if value == nil {
		return 0, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("cannot convert %v to duration", value)
	}
}

func (c *configuration) Exists(key string) bool {
	return c.lookup(key) != nil
}

func (c *configuration) GetSection(key string) Configuration {
	if m, ok := c.lookup(key).(map[string]any); ok {
		return newConfiguration(cloneMap(m))
	}
	return newConfiguration(make(map[string]any))
}

func (c *configuration) Bind(key string, target any) error {
	data := c.lookup(key)
	if data == nil {
		return fmt.Errorf("key %s not found", key)
	}

	// 通过 JSON 往返完成绑定，字段使用 json 标签
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func (c *configuration) GetAll() map[string]any {
	return cloneMap(c.store.Load())
}

// lookup 通过路径获取值，key 为空时返回根节点
func (c *configuration) lookup(key string) any {
	root := c.store.Load()
	if key == "" {
		return root
	}

	current := any(root)
	for _, part := range c.paths.GetPathSegments(key) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = childOf(m, part)
	}
	return current
}

func childOf(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// mergeMaps 将 src 深度合并进 dst，src 中的嵌套 map 会被复制
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		if dstMap, ok := dst[k].(map[string]any); ok && srcIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			dst[k] = cloneMap(srcMap)
			continue
		}
		dst[k] = v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// normalize 将 YAML 解析出的 map[any]any 转为 map[string]any
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			t[k] = normalize(inner)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[fmt.Sprintf("%v", k)] = normalize(inner)
		}
		return out
	case []any:
		for i, inner := range t {
			t[i] = normalize(inner)
		}
		return t
	default:
		return v
	}
}
