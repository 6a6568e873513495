package malloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	h, err := New(newSliceDriver(1<<20), 64)
	require.NoError(t, err)
	return h
}

func TestAllocateAlignmentAndRoundTrip(t *testing.T) {
	h := newTestHeap(t)
	p := h.Allocate(37)
	require.NotNil(t, p)
	require.Len(t, p, 37)

	for i := range p {
		p[i] = byte(i)
	}
	for i := range p {
		require.Equal(t, byte(i), p[i])
	}
	require.NoError(t, h.CheckHeap(false))
}

func TestScenario1Split(t *testing.T) {
	h := newTestHeap(t)
	p1 := h.Allocate(16)
	p2 := h.Allocate(16)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	h.Free(p1)
	require.NoError(t, h.CheckHeap(false))

	b1 := h.blockOfBytes(p2)
	prev := h.prevBlock(b1)
	require.True(t, h.blockFree(prev))
	sz := h.blockSize(prev)
	require.True(t, sz == 2 || sz == 4)
}

func TestScenario3BestFitAddressTiebreak(t *testing.T) {
	h := newTestHeap(t)
	guardSize := 32
	bigSize := 200

	guardA := h.Allocate(guardSize)
	a := h.Allocate(bigSize)
	guardB := h.Allocate(guardSize)
	b := h.Allocate(bigSize)
	guardC := h.Allocate(guardSize)
	c := h.Allocate(bigSize)
	guardD := h.Allocate(guardSize)
	require.NotNil(t, guardA)
	require.NotNil(t, guardB)
	require.NotNil(t, guardC)
	require.NotNil(t, guardD)

	ba := h.blockOfBytes(a)
	h.Free(a)
	h.Free(b)
	h.Free(c)
	require.NoError(t, h.CheckHeap(false))

	d := h.Allocate(bigSize)
	require.NotNil(t, d)
	require.Equal(t, ba, h.blockOfBytes(d))
}

func TestScenario2CoalesceAll(t *testing.T) {
	h := newTestHeap(t)
	a := h.Allocate(16)
	b := h.Allocate(16)
	c := h.Allocate(16)
	h.Free(a)
	h.Free(c)
	h.Free(b)
	require.NoError(t, h.CheckHeap(false))
	require.Equal(t, uint32(0), h.smallHead[0])
	require.Equal(t, uint32(0), h.smallHead[1])
}

func TestScenario5ReallocGrowAbsorbsSuccessor(t *testing.T) {
	h := newTestHeap(t)
	p := h.Allocate(64)
	q := h.Allocate(64)
	require.NotNil(t, p)
	require.NotNil(t, q)
	h.Free(q)

	grown := h.Reallocate(p, 120)
	require.NotNil(t, grown)
	require.Equal(t, &p[0], &grown[0])
	require.NoError(t, h.CheckHeap(false))
}

func TestScenario4ReallocShrinkMergesRemainder(t *testing.T) {
	h := newTestHeap(t)
	p := h.Allocate(256)
	require.NotNil(t, p)
	shrunk := h.Reallocate(p, 64)
	require.NotNil(t, shrunk)
	require.NoError(t, h.CheckHeap(false))
}

func TestScenario6OOMLeavesExistingPointersValid(t *testing.T) {
	h, err := New(newSliceDriver(256), 64)
	require.NoError(t, err)
	p := h.Allocate(16)
	require.NotNil(t, p)
	for i := range p {
		p[i] = 0xAB
	}

	var exhausted []byte
	for i := 0; i < 1000; i++ {
		q := h.Allocate(4096)
		if q == nil {
			exhausted = q
			break
		}
	}
	require.Nil(t, exhausted)
	for i := range p {
		require.Equal(t, byte(0xAB), p[i])
	}
}

func TestCallocateZeroesPayload(t *testing.T) {
	h := newTestHeap(t)
	p := h.Callocate(4, 8)
	require.NotNil(t, p)
	require.Len(t, p, 32)
	for _, b := range p {
		require.Equal(t, byte(0), b)
	}
}

func TestFreeThenAllocateReusesRegion(t *testing.T) {
	h := newTestHeap(t)
	p := h.Allocate(40)
	require.NotNil(t, p)
	b := h.blockOfBytes(p)
	h.Free(p)
	q := h.Allocate(40)
	require.NotNil(t, q)
	require.Equal(t, b, h.blockOfBytes(q))
}
