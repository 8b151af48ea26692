package config

// Load 将 section 绑定为 T，section 为空时绑定整个配置
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// LoadOrDefault 与 Load 相同，但 section 不存在时返回 def
func LoadOrDefault[T any](cfg Configuration, section string, def T) (T, error) {
	if section != "" && !cfg.Exists(section) {
		return def, nil
	}
	return Load[T](cfg, section)
}
