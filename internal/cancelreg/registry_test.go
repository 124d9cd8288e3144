package cancelreg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CancelAbortsContext(t *testing.T) {
	r := New()

	ctx, cancel := context.WithCancel(context.Background())
	r.Register("a", cancel)
	require.Equal(t, 1, r.Len())

	assert.True(t, r.Cancel("a"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, 0, r.Len(), "cancel drops the handle")
}

func TestRegistry_CancelUnknownIsNoOp(t *testing.T) {
	r := New()
	assert.False(t, r.Cancel("missing"))
}

func TestRegistry_CancelTwice(t *testing.T) {
	r := New()

	_, cancel := context.WithCancel(context.Background())
	r.Register("a", cancel)

	assert.True(t, r.Cancel("a"))
	assert.False(t, r.Cancel("a"), "second cancel finds no handle")
}

func TestRegistry_Unregister(t *testing.T) {
	r := New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Register("a", cancel)
	r.Unregister("a")

	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Cancel("a"))
	assert.NoError(t, ctx.Err(), "unregister must not cancel")
}

func TestRegistry_RegisterReplacesHandle(t *testing.T) {
	r := New()

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()

	r.Register("a", cancel1)
	r.Register("a", cancel2)
	require.Equal(t, 1, r.Len())

	assert.True(t, r.Cancel("a"))
	assert.NoError(t, ctx1.Err(), "replaced handle is not invoked")
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
}

func TestRegistry_CancelAll(t *testing.T) {
	r := New()

	ctxs := make([]context.Context, 0, 3)
	for _, id := range []string{"a", "b", "c"} {
		ctx, cancel := context.WithCancel(context.Background())
		ctxs = append(ctxs, ctx)
		r.Register(id, cancel)
	}

	r.CancelAll()
	assert.Equal(t, 0, r.Len())
	for _, ctx := range ctxs {
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	}
}
