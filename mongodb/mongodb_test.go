package mongodb_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/gocrud/component/config"
	"github.com/gocrud/component/core"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/logging"
	"github.com/gocrud/component/mongodb"
)

type ArchiveService struct {
	Client  *mongo.Client `di:""`
	Archive *mongo.Client `dikey:"archive"`
}

func TestMongoConfiguration(t *testing.T) {
	app, err := core.NewApplicationBuilder().
		ConfigureConfiguration(func(b *config.ConfigurationBuilder) {
			b.AddInMemory(map[string]any{
				"mongo": map[string]any{
					"archive": map[string]any{"uri": "mongodb://archive:27017", "timeout": "1s"},
				},
			})
		}).
		Configure(mongodb.Configure(func(b *mongodb.Builder) {
			b.Add(mongodb.DefaultClientName, "mongodb://localhost:27017", func(o *mongodb.MongoOptions) {
				o.Timeout = 100 * time.Millisecond
			})
			b.AddFromConfig("mongo")
		})).
		ConfigureServices(func(s *core.ServiceCollection) {
			core.AddSingleton[*ArchiveService](s, di.TypeOf[*ArchiveService]())
		}).
		Build()
	require.NoError(t, err)

	svc, err := di.Resolve[*ArchiveService](app.Services())
	require.NoError(t, err)
	require.NotNil(t, svc.Client)
	require.NotNil(t, svc.Archive)
	assert.NotSame(t, svc.Client, svc.Archive)

	factory, err := di.Resolve[*mongodb.MongoFactory](app.Services())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "default"}, factory.Names())
	assert.NoError(t, factory.Close())
}

func TestMongoBuilder_Validate(t *testing.T) {
	logger := logging.NewNopLogger()

	builder := mongodb.NewBuilder(nil)
	builder.Add("", "mongodb://localhost:27017", nil)
	_, err := builder.Build(logger)
	assert.ErrorContains(t, err, "mongo client name is required")

	builder = mongodb.NewBuilder(nil)
	builder.Add("test", "", nil)
	builder.Add("dup", "mongodb://localhost:27017", nil)
	builder.Add("dup", "mongodb://localhost:27017", nil)
	_, err = builder.Build(logger)
	assert.ErrorContains(t, err, "mongo uri is required")
	assert.ErrorContains(t, err, "already configured")
}

func TestMongoFactory_Register(t *testing.T) {
	factory := mongodb.NewMongoFactory()
	opts := mongodb.MongoOptions{
		Name:    "test",
		Uri:     "mongodb://localhost:27017/?directConnection=true",
		Timeout: 100 * time.Millisecond,
	}

	require.NoError(t, factory.Register(opts))

	client, err := factory.Get("test")
	require.NoError(t, err)
	assert.NotNil(t, client)

	err = factory.Register(opts)
	assert.ErrorContains(t, err, "already registered")

	assert.Error(t, factory.Register(mongodb.MongoOptions{Name: "bad", Uri: "not-a-uri"}))

	assert.NoError(t, factory.Close())
	assert.Empty(t, factory.Names())
}
