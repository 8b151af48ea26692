package inject_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/component/inject"
)

type gadget struct {
	Clock Clock `di:""`
	calls int
}

func TestGeneratedResolver_OnlyRegisteredTypes(t *testing.T) {
	cache := inject.NewCache()
	r := inject.NewGeneratedResolver(cache)
	typ := reflect.TypeOf(gadget{})

	assert.Nil(t, r.Injector(typ))

	cache.RegisterAction(typ, func(sp inject.ServiceProvider, instance any) error {
		instance.(*gadget).calls++
		return nil
	})
	in := r.Injector(reflect.PointerTo(typ))
	require.NotNil(t, in)

	g := &gadget{}
	require.NoError(t, in.Inject(newMapProvider(), g))
	assert.Equal(t, 1, g.calls)
}

func TestChain_FirstNonNilWins(t *testing.T) {
	typ := reflect.TypeOf(gadget{})
	var order []string

	skip := inject.ResolverFunc(func(reflect.Type) inject.Injector {
		order = append(order, "skip")
		return nil
	})
	take := inject.ResolverFunc(func(reflect.Type) inject.Injector {
		order = append(order, "take")
		return inject.Action(func(inject.ServiceProvider, any) error { return nil })
	})
	never := inject.ResolverFunc(func(reflect.Type) inject.Injector {
		order = append(order, "never")
		return nil
	})

	in := inject.Chain(skip, nil, take, never).Injector(typ)
	assert.NotNil(t, in)
	assert.Equal(t, []string{"skip", "take"}, order)
}

func TestChain_Empty(t *testing.T) {
	assert.Nil(t, inject.Chain().Injector(reflect.TypeOf(gadget{})))
}

func TestDefaultResolver_PrefersAction(t *testing.T) {
	cache := inject.NewCache()
	typ := reflect.TypeOf(gadget{})
	sp := newMapProvider()

	// 没有注册 Clock，反射路径会失败
	err := inject.DefaultResolver(cache).Injector(typ).Inject(sp, &gadget{})
	require.ErrorIs(t, err, inject.ErrMissingRequiredService)

	cache.RegisterAction(typ, func(inject.ServiceProvider, any) error { return nil })
	assert.NoError(t, inject.DefaultResolver(cache).Injector(typ).Inject(sp, &gadget{}))
}
