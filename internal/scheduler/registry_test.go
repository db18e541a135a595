package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(time.UTC)
}

func TestRegisterIdempotentReplace(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(7, "0 9 * * *", func() {}))
	require.NoError(t, r.Register(7, "30 18 * * 5", func() {}))

	assert.Equal(t, 1, r.Size())
	assert.Equal(t, []uint{7}, r.IDs())
}

func TestRegisterInvalidSpec(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(1, "not a cron spec", func() {})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Size())
}

func TestUnregisterAbsentIsNoOp(t *testing.T) {
	r := newTestRegistry(t)

	assert.False(t, r.Unregister(99))

	require.NoError(t, r.Register(3, "0 6 * * *", func() {}))
	assert.True(t, r.Unregister(3))
	assert.False(t, r.Unregister(3))
	assert.Equal(t, 0, r.Size())
}

func TestClearAll(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(1, "0 6 * * *", func() {}))
	require.NoError(t, r.Register(2, "0 7 * * *", func() {}))
	require.NoError(t, r.Register(3, "0 8 * * *", func() {}))
	require.Equal(t, 3, r.Size())

	r.ClearAll()
	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.IDs())
}

func TestIDsSorted(t *testing.T) {
	r := newTestRegistry(t)

	for _, id := range []uint{9, 2, 5} {
		require.NoError(t, r.Register(id, "0 6 * * *", func() {}))
	}
	assert.Equal(t, []uint{2, 5, 9}, r.IDs())
}
