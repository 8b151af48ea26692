package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gocrud/component/config"
	"github.com/gocrud/component/core"
	"github.com/gocrud/component/database"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
	"github.com/gocrud/component/scene"
)

type User struct {
	gorm.Model
	Name string
}

// UserRepository 以组件形式挂载到场景，依赖按键注册的数据库
type UserRepository struct {
	scene.Behaviour
	Master *gorm.DB `dikey:"master"`
	Slave  *gorm.DB `dikey:"slave,optional"`
}

func (r *UserRepository) Create(name string) error {
	return r.Master.Create(&User{Name: name}).Error
}

// DBConfig 用户定义的配置结构
type DBConfig struct {
	DSN          string `json:"dsn"`
	MaxOpenConns int    `json:"max_open_conns"`
}

func TestDatabaseConfiguration(t *testing.T) {
	app, err := core.NewApplicationBuilder().
		ConfigureConfiguration(func(cb *config.ConfigurationBuilder) {
			cb.AddInMemory(map[string]any{
				"db": map[string]any{
					"master": map[string]any{
						"dsn":            "file:master?mode=memory&cache=shared",
						"max_open_conns": 5,
					},
				},
			})
		}).
		Configure(database.Configure(func(b *database.Builder) {
			dbConf, err := config.Load[DBConfig](b.ConfigContext().GetConfiguration(), "db:master")
			if err != nil {
				b.AddError(err)
				return
			}
			b.AddSqlite("master", dbConf.DSN, func(o *database.DatabaseOptions) {
				o.MaxIdleConns = 2
				o.MaxOpenConns = dbConf.MaxOpenConns
				o.AutoMigrate = []any{&User{}}
			})
		})).
		ConfigureServices(func(s *core.ServiceCollection) {
			core.AddComponentSingleton[UserRepository](s)
		}).
		Build()
	require.NoError(t, err)

	repo, err := di.Resolve[*UserRepository](app.Services())
	require.NoError(t, err)
	require.NotNil(t, repo.Master)
	assert.Nil(t, repo.Slave)

	sqlDB, err := repo.Master.DB()
	require.NoError(t, err)
	assert.Equal(t, 5, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, repo.Create("test"))

	var count int64
	require.NoError(t, repo.Master.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 无键服务仅在存在 default 时注册
	_, err = di.Resolve[*gorm.DB](app.Services())
	assert.Error(t, err)

	// 停止时执行清理，连接被关闭
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.RunAsync(ctx))
	assert.Error(t, sqlDB.Ping())
}

func TestDatabaseConfiguration_Default(t *testing.T) {
	app, err := core.NewApplicationBuilder().
		Configure(database.Configure(func(b *database.Builder) {
			b.AddSqlite(database.DefaultDatabaseName, "file:default?mode=memory&cache=shared", nil)
		})).
		Build()
	require.NoError(t, err)

	keyed, err := di.ResolveKeyed[*gorm.DB](app.Services(), database.DefaultDatabaseName)
	require.NoError(t, err)
	unkeyed, err := di.Resolve[*gorm.DB](app.Services())
	require.NoError(t, err)
	assert.Same(t, keyed, unkeyed)
}

func TestDatabaseBuilder_Errors(t *testing.T) {
	builder := database.NewBuilder(nil)

	builder.Add("invalid", nil, nil)
	builder.AddSqlite("empty", "", nil)
	builder.AddSqlite("dup", "file:a?mode=memory", nil)
	builder.AddSqlite("dup", "file:b?mode=memory", nil)
	builder.AddSqlite("pool", "file:c?mode=memory", func(o *database.DatabaseOptions) {
		o.MaxIdleConns = 20
		o.MaxOpenConns = 10
	})

	_, err := builder.Build(logging.NewNopLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "dialector is required")
	assert.ErrorContains(t, err, "dsn is required")
	assert.ErrorContains(t, err, "already configured")
	assert.ErrorContains(t, err, "exceeds max open conns")
}
