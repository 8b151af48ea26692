package config

import (
	"strings"
	"sync"
)

// PathCache 缓存配置路径的分段结果
type PathCache struct {
	cache sync.Map // string -> []string
}

// GetPathSegments 返回路径分段，":" 与 "." 都是分隔符，空段被忽略
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	actual, _ := c.cache.LoadOrStore(path, parts)
	return actual.([]string)
}

var globalPathCache = &PathCache{}
