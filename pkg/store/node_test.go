package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebatur/shardcache/pkg/malloc"
)

func newTestPool(t *testing.T) *malloc.Heap {
	t.Helper()
	h, err := malloc.New(malloc.NewSliceDriver(1<<16), 64)
	require.NoError(t, err)
	return h
}

func TestNodeSetAllocatesAndFrees(t *testing.T) {
	pool := newTestPool(t)
	var nd node

	require.True(t, nd.Set(pool, 5))
	require.Len(t, nd.Data, 5)

	require.True(t, nd.Set(pool, 0))
	require.Nil(t, nd.Data)
	require.NoError(t, pool.CheckHeap(false))
}

func TestNodeGrowPreservesContent(t *testing.T) {
	pool := newTestPool(t)
	var nd node
	require.True(t, nd.Set(pool, 3))
	copy(nd.Data, []byte("abc"))

	require.True(t, nd.Grow(pool, 3))
	require.Len(t, nd.Data, 6)
	require.Equal(t, []byte("abc"), nd.Data[:3])
	require.NoError(t, pool.CheckHeap(false))
}

func TestNodeFreeIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	var nd node
	require.True(t, nd.Set(pool, 4))
	nd.Free(pool)
	require.Nil(t, nd.Data)
	nd.Free(pool)
	require.NoError(t, pool.CheckHeap(false))
}
