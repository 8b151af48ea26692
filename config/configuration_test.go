package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValueStore(t *testing.T) {
	store := NewValueStore()
	assert.Empty(t, store.Load())

	store.Store(map[string]any{"key": "value"})
	assert.Equal(t, "value", store.Load()["key"])

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Load()
		}()
	}
	wg.Wait()
}

func TestPathCache(t *testing.T) {
	cache := &PathCache{}

	parts := cache.GetPathSegments("a:b.c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)

	// 命中缓存
	assert.Equal(t, parts, cache.GetPathSegments("a:b.c"))
	assert.Equal(t, []string{"a", "b"}, cache.GetPathSegments(":a::b"))
}

func TestConfiguration_GetTyped(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"inject": map[string]any{
				"cleanupInterval":  50,
				"missingSingleton": "fail",
				"sweep":            "1m30s",
				"enabled":          "true",
			},
		}).
		Build()
	require.NoError(t, err)

	n, err := cfg.GetInt("inject:cleanupInterval")
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	assert.Equal(t, "fail", cfg.Get("inject.missingSingleton"))
	assert.Equal(t, "50", cfg.Get("inject:cleanupInterval"))
	assert.Equal(t, "x", cfg.GetWithDefault("inject:missing", "x"))

	d, err := cfg.GetDuration("inject:sweep")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	b, err := cfg.GetBool("inject:enabled")
	require.NoError(t, err)
	assert.True(t, b)

	// 忽略大小写
	assert.True(t, cfg.Exists("INJECT:CLEANUPINTERVAL"))

	_, err = cfg.GetInt("inject:nothing")
	assert.Error(t, err)

	section := cfg.GetSection("inject")
	assert.Equal(t, "fail", section.Get("missingSingleton"))
	assert.Empty(t, cfg.GetSection("nothing").GetAll())
}

func TestConfiguration_OverrideOrder(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"server":{"host":"json","port":8080}}`)
	yamlPath := writeFile(t, dir, "app.yaml", "server:\n  host: yaml\n")

	base := map[string]any{"server": map[string]any{"host": "memory", "tls": false}}
	cfg, err := NewConfigurationBuilder().
		AddInMemory(base).
		AddJsonFile(jsonPath).
		AddYamlFile(yamlPath).
		AddJsonFile(filepath.Join(dir, "missing.json"), true).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Get("server:host"))
	assert.Equal(t, "8080", cfg.Get("server:port"))
	assert.Equal(t, "false", cfg.Get("server:tls"))

	// 合并不会修改源数据
	assert.Equal(t, "memory", base["server"].(map[string]any)["host"])
}

func TestConfiguration_MissingRequiredFile(t *testing.T) {
	_, err := NewConfigurationBuilder().
		AddJsonFile(filepath.Join(t.TempDir(), "missing.json")).
		Build()
	assert.Error(t, err)
}

func TestConfiguration_JsonGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"name":"a","a":1}`)
	writeFile(t, dir, "b.json", `{"name":"b","b":2}`)
	writeFile(t, dir, "c.txt", `not json`)

	cfg, err := NewConfigurationBuilder().
		AddJsonGlob(filepath.Join(dir, "*.json")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "b", cfg.Get("name"))
	assert.Equal(t, "1", cfg.Get("a"))
	assert.Equal(t, "2", cfg.Get("b"))

	empty, err := NewConfigurationBuilder().
		AddJsonGlob(filepath.Join(dir, "none-*.json")).
		Build()
	require.NoError(t, err)
	assert.Empty(t, empty.GetAll())
}

func TestConfiguration_EnvironmentVariables(t *testing.T) {
	t.Setenv("TESTAPP_INJECT__CLEANUPINTERVAL", "25")
	t.Setenv("TESTAPP_INJECT__MISSINGSINGLETON", "fail")

	cfg, err := NewConfigurationBuilder().
		AddEnvironmentVariables("TESTAPP_").
		Build()
	require.NoError(t, err)

	n, err := cfg.GetInt("inject:cleanupInterval")
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, "fail", cfg.Get("inject:missingSingleton"))
}

func TestConfiguration_Bind(t *testing.T) {
	type Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": map[string]any{"host": "localhost", "port": 9000}}).
		Build()
	require.NoError(t, err)

	s, err := Load[Server](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, Server{Host: "localhost", Port: 9000}, s)

	_, err = Load[Server](cfg, "nothing")
	assert.Error(t, err)

	def, err := LoadOrDefault(cfg, "nothing", Server{Port: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, def.Port)
}

func TestReloadableConfiguration_Reload(t *testing.T) {
	type Settings struct {
		Level string `json:"level"`
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "app.json", `{"log":{"level":"info"}}`)

	cfg, err := NewConfigurationBuilder().AddJsonFile(path).BuildReloadable()
	require.NoError(t, err)

	cache := NewOptionsCache[Settings](cfg, "log")
	monitor := NewOptionMonitor(cache)
	static := NewOption(cache.Get())
	assert.Equal(t, "info", monitor.Value().Level)

	reloaded := 0
	cfg.OnReload(func() { reloaded++ })

	writeFile(t, dir, "app.json", `{"log":{"level":"debug"}}`)
	require.NoError(t, cfg.Reload())

	assert.Equal(t, 1, reloaded)
	assert.Equal(t, "debug", cfg.Get("log:level"))
	assert.Equal(t, "debug", monitor.Value().Level)
	assert.Equal(t, "info", static.Value().Level)

	// 重载失败时保留旧数据
	writeFile(t, dir, "app.json", `{broken`)
	assert.Error(t, cfg.Reload())
	assert.Equal(t, "debug", cfg.Get("log:level"))
}

func TestOptionsCache_MissingSection(t *testing.T) {
	type Settings struct {
		Level string `json:"level"`
	}

	cfg, err := NewConfigurationBuilder().Build()
	require.NoError(t, err)

	cache := NewOptionsCache[Settings](cfg, "log")
	assert.Equal(t, Settings{}, cache.Get())
	assert.Error(t, cache.Err())

	snap := NewOptionSnapshot(cache.Snapshot())
	assert.Equal(t, Settings{}, snap.Value())
}

func TestEtcdSource_ConfigKey(t *testing.T) {
	s := &EtcdSource{Options: EtcdOptions{Prefix: "/app"}}
	assert.Equal(t, "inject:cleanupInterval", s.configKey("/app/inject/cleanupInterval"))
	assert.Equal(t, "", s.configKey("/app/"))

	assert.Equal(t, map[string]any{"a": float64(1)}, decodeEtcdValue([]byte(`{"a":1}`)))
	assert.Equal(t, map[string]any{"b": 2}, decodeEtcdValue([]byte("b: 2")))
	assert.Equal(t, "plain text", decodeEtcdValue([]byte("plain text")))
}

func BenchmarkConfigGet(b *testing.B) {
	cfg, _ := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{"host": "localhost", "port": 8080},
		}).
		BuildReloadable()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.Get("server:host")
	}
}
