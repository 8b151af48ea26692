package singleton_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/component/di"
	"github.com/gocrud/component/scene"
	"github.com/gocrud/component/singleton"
)

type AudioManager struct {
	scene.Behaviour
}

type Bullet struct {
	scene.Behaviour
}

func newRegistry(opts ...singleton.Option) (*scene.Scene, *singleton.Registry) {
	s := scene.New("test")
	r := singleton.NewRegistry(s, opts...)
	s.OnActivate(r.Claim)
	s.OnDestroy(r.Release)
	return s, r
}

func TestRegistry_InstanceCreatesOnce(t *testing.T) {
	s, r := newRegistry()

	a, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)
	b, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Len())
	assert.True(t, r.Managed(reflect.TypeFor[AudioManager]()))
}

func TestRegistry_InstanceFindsExisting(t *testing.T) {
	s, r := newRegistry()
	existing, err := scene.Add[AudioManager](s)
	require.NoError(t, err)

	got, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)
	assert.Same(t, existing, got)
	assert.Equal(t, 1, s.Len())
}

func TestRegistry_MissingFail(t *testing.T) {
	_, r := newRegistry(singleton.WithMissingBehavior(singleton.MissingFail))

	_, err := singleton.Get[AudioManager](r)
	assert.ErrorIs(t, err, singleton.ErrInstanceNotFound)
}

func TestRegistry_ConfigurePerType(t *testing.T) {
	_, r := newRegistry()
	r.Configure(reflect.TypeFor[*AudioManager](), singleton.MissingFail)

	_, err := singleton.Get[AudioManager](r)
	assert.ErrorIs(t, err, singleton.ErrInstanceNotFound)
}

func TestRegistry_DuplicateDestroyed(t *testing.T) {
	s, r := newRegistry()
	first, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)

	dup := &AudioManager{}
	err = s.Attach(dup)
	require.Error(t, err)

	var de *singleton.DuplicateInstanceError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, singleton.ErrDuplicateInstance)
	assert.Equal(t, reflect.TypeFor[*AudioManager](), de.Type)

	assert.True(t, dup.Destroyed())
	assert.False(t, first.Destroyed())
	assert.Equal(t, 1, s.Len())

	again, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestRegistry_ReleaseOnDestroy(t *testing.T) {
	s, r := newRegistry()
	first, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)

	require.True(t, s.Destroy(first))

	second, err := singleton.Get[AudioManager](r)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestRegistry_UnmanagedTypesAreNotClaimed(t *testing.T) {
	s, _ := newRegistry()
	_, err := scene.Add[Bullet](s)
	require.NoError(t, err)
	_, err = scene.Add[Bullet](s)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestCreate_Lifetimes(t *testing.T) {
	s, r := newRegistry()

	a, err := singleton.CreateOf[AudioManager](r, di.ScopeSingleton)
	require.NoError(t, err)
	b, err := singleton.CreateOf[AudioManager](r, di.ScopeSingleton)
	require.NoError(t, err)
	assert.Same(t, a, b)

	x, err := singleton.CreateOf[Bullet](r, di.ScopeTransient)
	require.NoError(t, err)
	y, err := singleton.CreateOf[Bullet](r, di.ScopeScoped)
	require.NoError(t, err)
	assert.NotSame(t, x, y)
	assert.Equal(t, 3, s.Len())

	_, err = singleton.Create(r, di.ScopeType(42), reflect.TypeFor[Bullet]())
	assert.Error(t, err)
}

func TestParseMissingBehavior(t *testing.T) {
	tests := []struct {
		in   string
		want singleton.MissingBehavior
		err  bool
	}{
		{"", singleton.MissingCreate, false},
		{"create", singleton.MissingCreate, false},
		{"Fail", singleton.MissingFail, false},
		{"throw", singleton.MissingFail, false},
		{"panic", singleton.MissingCreate, true},
	}
	for _, tt := range tests {
		got, err := singleton.ParseMissingBehavior(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
