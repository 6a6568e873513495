package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotNewNodeGrowsAndReusesFreedSlots(t *testing.T) {
	pool := newTestPool(t)
	var sl slot

	idx0 := sl.NewNode(pool)
	require.Equal(t, 0, idx0)
	sl.Nodes[idx0].KeyHash = 1

	idx1 := sl.NewNode(pool)
	require.Equal(t, 1, idx1)
	require.NoError(t, pool.CheckHeap(false))

	sl.DelNode(pool, idx1)
	require.Equal(t, -1, sl.Nodes[idx1].KeyHash)

	idx2 := sl.NewNode(pool)
	require.Equal(t, idx1, idx2, "NewNode should reuse the freed slot before growing")
}

func TestSlotDelNodeFreesBackingArrayWhenEmpty(t *testing.T) {
	pool := newTestPool(t)
	var sl slot

	idx := sl.NewNode(pool)
	sl.Nodes[idx].KeyHash = 7
	require.True(t, sl.Nodes[idx].Set(pool, 4))

	sl.DelNode(pool, idx)
	require.Nil(t, sl.Nodes)
	require.NoError(t, pool.CheckHeap(false))
}

func TestSlotFindNode(t *testing.T) {
	pool := newTestPool(t)
	var sl slot

	idx := sl.NewNode(pool)
	bKey := getBKey("mykey")
	sl.Nodes[idx].KeyHash = 42
	require.True(t, sl.Nodes[idx].Set(pool, len(bKey)))
	copy(sl.Nodes[idx].Data, bKey)

	require.Equal(t, idx, sl.FindNode(42, bKey))
	require.Equal(t, -1, sl.FindNode(42, getBKey("other")))
	require.Equal(t, -1, sl.FindNode(99, bKey))
}
