package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// EtcdSource etcd 配置源。键 "/prefix/a/b" 映射为 "a:b"，
// 值依次尝试按 JSON、YAML 解析，都失败时作为字符串。
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) client() (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return cli, nil
}

func (s *EtcdSource) prefix() string {
	if s.Options.Prefix == "" {
		return "/"
	}
	return s.Options.Prefix
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := s.client()
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	resp, err := cli.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		if key := s.configKey(string(kv.Key)); key != "" {
			setNestedValue(result, key, decodeEtcdValue(kv.Value))
		}
	}
	return result, nil
}

// Watch 监听前缀下的变更，直到 ctx 结束
func (s *EtcdSource) Watch(ctx context.Context, onChange func()) error {
	cli, err := s.client()
	if err != nil {
		return err
	}
	defer cli.Close()

	for resp := range cli.Watch(ctx, s.prefix(), clientv3.WithPrefix()) {
		if err := resp.Err(); err != nil {
			return err
		}
		if len(resp.Events) > 0 {
			onChange()
		}
	}
	return ctx.Err()
}

func (s *EtcdSource) configKey(raw string) string {
	key := raw
	if s.Options.Prefix != "" {
		key = strings.TrimPrefix(key, s.Options.Prefix)
	}
	key = strings.Trim(key, "/")
	return strings.ReplaceAll(key, "/", ":")
}

func decodeEtcdValue(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	if err := yaml.Unmarshal(raw, &v); err == nil && v != nil {
		return normalize(v)
	}
	return string(raw)
}
