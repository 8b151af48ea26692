package inject_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/component/inject"
)

type baseComponent struct {
	Log     *Logger `di:"?"`
	enabled bool
}

type derivedComponent struct {
	Clock Clock `di:""`
	baseComponent
	Primary *Store `dikey:"primary"`
	Mirror  *Store `dikey:"mirror,optional"`
	Plain   *Store
	_       *Store `di:""`
	secret  *Logger `di:"required"`
}

func names(plan *inject.Plan) []string {
	var out []string
	for _, d := range plan.Descriptors {
		out = append(out, d.Member.Name)
	}
	return out
}

func TestDiscover_OrderAndPolicy(t *testing.T) {
	plan, err := inject.Discover(reflect.TypeOf(derivedComponent{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"Clock", "Log", "Primary", "Mirror", "secret"}, names(plan))

	d := plan.Descriptors
	assert.True(t, d[0].Required)
	assert.False(t, d[0].Keyed())

	assert.False(t, d[1].Required)
	assert.Equal(t, []int{1, 0}, d[1].Member.Index)
	assert.Equal(t, reflect.TypeOf(baseComponent{}), d[1].Member.Owner)

	assert.Equal(t, "primary", d[2].Key)
	assert.True(t, d[2].Required)

	assert.Equal(t, "mirror", d[3].Key)
	assert.False(t, d[3].Required)

	assert.True(t, d[4].Required)
	assert.False(t, d[4].Member.Exported)
}

func TestDiscover_PointerTypeNormalised(t *testing.T) {
	byValue, err := inject.Discover(reflect.TypeOf(derivedComponent{}))
	require.NoError(t, err)
	byPointer, err := inject.Discover(reflect.TypeOf(&derivedComponent{}))
	require.NoError(t, err)
	assert.Equal(t, byValue, byPointer)
}

func TestDiscover_Deterministic(t *testing.T) {
	first, err := inject.Discover(reflect.TypeOf(derivedComponent{}))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := inject.Discover(reflect.TypeOf(derivedComponent{}))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDiscover_RequiredMemberMarker(t *testing.T) {
	type forced struct {
		A *Store `di:"optional" validate:"required"`
		B *Store `dikey:"b,?" binding:"omitempty,required"`
		C *Store `di:"?" validate:"omitempty"`
	}
	plan, err := inject.Discover(reflect.TypeOf(forced{}))
	require.NoError(t, err)
	require.Equal(t, 3, plan.Len())
	assert.True(t, plan.Descriptors[0].Required)
	assert.True(t, plan.Descriptors[1].Required)
	assert.False(t, plan.Descriptors[2].Required)
}

func TestDiscover_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want error
	}{
		{
			name: "both markers",
			typ: reflect.TypeOf(struct {
				A *Store `di:"" dikey:"a"`
			}{}),
			want: inject.ErrConflictingMarkers,
		},
		{
			name: "unknown option",
			typ: reflect.TypeOf(struct {
				A *Store `di:"lazy"`
			}{}),
			want: inject.ErrInvalidMarker,
		},
		{
			name: "empty key",
			typ: reflect.TypeOf(struct {
				A *Store `dikey:",optional"`
			}{}),
			want: inject.ErrInvalidMarker,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inject.Discover(tt.typ)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDiscover_NonStruct(t *testing.T) {
	plan, err := inject.Discover(reflect.TypeOf(42))
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Len())
}

func TestDiscover_EmbeddedPointerNotExpanded(t *testing.T) {
	type withPtr struct {
		*baseComponent
		Clock Clock `di:""`
	}
	plan, err := inject.Discover(reflect.TypeOf(withPtr{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Clock"}, names(plan))
}

func TestHasMarkers(t *testing.T) {
	assert.True(t, inject.HasMarkers(reflect.TypeOf(derivedComponent{})))
	assert.False(t, inject.HasMarkers(reflect.TypeOf(Store{})))
}

func TestNewMember_MatchesDiscovery(t *testing.T) {
	plan, err := inject.Discover(reflect.TypeOf(derivedComponent{}))
	require.NoError(t, err)
	assert.Equal(t, plan.Descriptors[1].Member, inject.NewMember(reflect.TypeOf(derivedComponent{}), 1, 0))
}
