package hosting_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/component/hosting"
)

type recordingService struct {
	name     string
	startErr error
	mu       *sync.Mutex
	stops    *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *recordingService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.stops = append(*s.stops, s.name)
	return nil
}

func TestManager_StartStop(t *testing.T) {
	var mu sync.Mutex
	var stops []string

	m := hosting.NewHostedServiceManager(nil)
	m.Add(&recordingService{name: "a", mu: &mu, stops: &stops})
	m.Add(&recordingService{name: "b", mu: &mu, stops: &stops})
	assert.Equal(t, 2, m.Len())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := m.StartAll(ctx)
	cancel()
	m.Wait()

	require.NoError(t, m.StopAll(context.Background()))
	assert.ElementsMatch(t, []string{"a", "b"}, stops)

	select {
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	default:
	}
}

func TestManager_StartErrorReported(t *testing.T) {
	var mu sync.Mutex
	var stops []string

	m := hosting.NewHostedServiceManager(nil)
	m.Add(&recordingService{name: "broken", startErr: errors.New("port in use"), mu: &mu, stops: &stops})

	errCh := m.StartAll(context.Background())
	select {
	case err := <-errCh:
		assert.ErrorContains(t, err, "broken")
		assert.ErrorContains(t, err, "port in use")
	case <-time.After(time.Second):
		t.Fatal("expected start error")
	}
}

func TestFuncService(t *testing.T) {
	called := false
	svc := hosting.NewFuncService("task", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Equal(t, "task", hosting.NameOf(svc))
	require.NoError(t, svc.Start(context.Background()))
	assert.True(t, called)
	assert.NoError(t, svc.Stop(context.Background()))
}

func TestTimedHostedService(t *testing.T) {
	var runs atomic.Int32
	svc := hosting.NewTimedHostedService("sweep", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("ignored")
	}, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, svc.Stop(context.Background()))
	assert.NoError(t, <-done)

	// 重复停止安全
	assert.NoError(t, svc.Stop(context.Background()))
}

func TestBackgroundService_StopTimeout(t *testing.T) {
	svc := hosting.NewBackgroundService("idle", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 未启动，Stop 等待完成会因 ctx 结束而返回
	assert.ErrorIs(t, svc.Stop(ctx), context.Canceled)
}
