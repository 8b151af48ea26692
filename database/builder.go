package database

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gocrud/component/core"
	"github.com/gocrud/component/logging"
)

// Builder 数据库配置构建器
type Builder struct {
	core.BaseBuilder
	configs []DatabaseOptions
	names   map[string]bool
	errors  []error
}

// NewBuilder 创建构建器
func NewBuilder(ctx *core.BuildContext) *Builder {
	return &Builder{
		BaseBuilder: core.NewBaseBuilder(ctx),
		names:       make(map[string]bool),
	}
}

// Add 添加数据库配置
// dialector: GORM 驱动 (e.g. mysql.Open(dsn))
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*DatabaseOptions)) *Builder {
	if b.names[name] {
		b.errors = append(b.errors, fmt.Errorf("database '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}
	opts.Name = name

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid configuration for '%s': %w", name, err))
		return b
	}

	b.names[name] = true
	b.configs = append(b.configs, *opts)
	return b
}

// AddSqlite 添加 sqlite 数据库
func (b *Builder) AddSqlite(name, dsn string, configure func(*DatabaseOptions)) *Builder {
	if dsn == "" {
		b.errors = append(b.errors, fmt.Errorf("database '%s': sqlite dsn is required", name))
		return b
	}
	return b.Add(name, sqlite.Open(dsn), configure)
}

// AddError 记录外部产生的配置错误（例如读取配置失败）
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

// Build 构建数据库工厂，没有配置数据库时返回 nil
func (b *Builder) Build(logger logging.Logger) (*DatabaseFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("database configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewDatabaseFactory()
	for _, opts := range b.configs {
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register database '%s': %w", opts.Name, err)
		}

		logger.Info("Database registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "dialector", Value: opts.Dialector.Name()})
	}

	return factory, nil
}
