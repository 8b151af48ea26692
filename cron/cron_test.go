package cron_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/component/config"
	"github.com/gocrud/component/core"
	"github.com/gocrud/component/cron"
	"github.com/gocrud/component/di"
	"github.com/gocrud/component/inject"
	"github.com/gocrud/component/logging"
)

func buildApp(t *testing.T, data map[string]any, configure func(*cron.Builder)) (core.Application, error) {
	t.Helper()
	return core.NewApplicationBuilder().
		ConfigureConfiguration(func(b *config.ConfigurationBuilder) {
			b.AddInMemory(data)
		}).
		Configure(cron.Configure(configure)).
		Build()
}

func scheduler(t *testing.T, app core.Application) *cron.Scheduler {
	t.Helper()
	s, err := di.Resolve[*cron.Scheduler](app.Services())
	require.NoError(t, err)
	return s
}

var typedRuns atomic.Int32

type reportJob struct {
	Engine *inject.Engine       `di:""`
	Config config.Configuration `di:""`
}

func (j *reportJob) Run() error {
	if j.Engine == nil || j.Config == nil {
		return errors.New("not injected")
	}
	typedRuns.Add(1)
	return nil
}

func TestScheduler_Jobs(t *testing.T) {
	var simple atomic.Int32
	var resolved atomic.Bool

	app, err := buildApp(t, nil, func(b *cron.Builder) {
		b.WithSeconds().WithLocation("UTC")
		b.AddJob("*/30 * * * * *", "simple", func() { simple.Add(1) })
		b.AddJobWithDI("@every 1m", "with-di", func(cfg config.Configuration, logger logging.Logger) error {
			resolved.Store(cfg != nil && logger != nil)
			return nil
		})
		cron.AddTypedJob[reportJob](b, "@hourly", "report")
	})
	require.NoError(t, err)

	s := scheduler(t, app)
	assert.Equal(t, []string{"report", "simple", "with-di"}, s.Jobs())

	require.NoError(t, s.RunNow("simple"))
	assert.Equal(t, int32(1), simple.Load())

	require.NoError(t, s.RunNow("with-di"))
	assert.True(t, resolved.Load())

	before := typedRuns.Load()
	require.NoError(t, s.RunNow("report"))
	require.NoError(t, s.RunNow("report"))
	assert.Equal(t, before+2, typedRuns.Load())

	assert.Error(t, s.RunNow("missing"))
	assert.True(t, s.Remove("simple"))
	assert.False(t, s.Remove("simple"))
	assert.Equal(t, []string{"report", "with-di"}, s.Jobs())
}

func TestScheduler_PanicRecovered(t *testing.T) {
	app, err := buildApp(t, nil, func(b *cron.Builder) {
		b.AddJob("@daily", "panics", func() { panic("boom") })
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_ = scheduler(t, app).RunNow("panics")
	})
}

type deadInstance struct{ id int }

func (*deadInstance) Destroyed() bool { return true }

func TestScheduler_SweepFromConfiguration(t *testing.T) {
	app, err := buildApp(t, map[string]any{
		"inject": map[string]any{"sweepSchedule": "@every 1h"},
	}, nil)
	require.NoError(t, err)

	s := scheduler(t, app)
	assert.Equal(t, []string{cron.SweepJobName}, s.Jobs())

	dead := &deadInstance{}
	app.Engine().MarkInjected(dead)
	require.True(t, app.Engine().Tracker().Contains(dead))

	require.NoError(t, s.RunNow(cron.SweepJobName))
	assert.False(t, app.Engine().Tracker().Contains(dead))
}

func TestBuilder_Errors(t *testing.T) {
	cases := []struct {
		name      string
		configure func(*cron.Builder)
		contains  string
	}{
		{
			name:      "invalid expression",
			configure: func(b *cron.Builder) { b.AddJob("not a cron line", "bad", func() {}) },
			contains:  "bad",
		},
		{
			name:      "invalid location",
			configure: func(b *cron.Builder) { b.WithLocation("Mars/Olympus") },
			contains:  "invalid location",
		},
		{
			name: "duplicate name",
			configure: func(b *cron.Builder) {
				b.AddJob("@daily", "dup", func() {})
				b.AddJob("@hourly", "dup", func() {})
			},
			contains: "already registered",
		},
		{
			name:      "handler not a function",
			configure: func(b *cron.Builder) { b.AddJobWithDI("@daily", "value", 42) },
			contains:  "must be a function",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildApp(t, nil, tc.configure)
			assert.ErrorContains(t, err, tc.contains)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	app, err := buildApp(t, nil, func(b *cron.Builder) {
		b.AddJob("@daily", "idle", func() {})
	})
	require.NoError(t, err)

	s := scheduler(t, app)
	assert.Equal(t, "cron", s.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not return")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	assert.NoError(t, s.Stop(stopCtx))
}
