package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st := New(8, 4*1024*1024)
	require.NotNil(t, st)
	return st
}

func TestSetGetRoundTrip(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Set("hello", []byte("world"), -1, nil))

	var got []byte
	found := st.Get("hello", func(size, index int, data []byte, expiry int) bool {
		got = append(got, data...)
		return true
	})
	require.True(t, found)
	require.Equal(t, []byte("world"), got)
	require.NoError(t, st.CheckHeap(false))
}

func TestGetMissingKey(t *testing.T) {
	st := newTestStore(t)
	found := st.Get("nope", func(size, index int, data []byte, expiry int) bool { return true })
	require.False(t, found)
}

func TestSetReplacesExistingValue(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Set("k", []byte("first"), -1, nil))
	require.True(t, st.Set("k", []byte("second-value"), -1, nil))

	var got []byte
	st.Get("k", func(size, index int, data []byte, expiry int) bool {
		got = append(got, data...)
		return true
	})
	require.Equal(t, []byte("second-value"), got)
	require.NoError(t, st.CheckHeap(false))
}

func TestPutDoesNotOverwriteLiveValue(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Put("k", []byte("original"), -1, nil))
	require.False(t, st.Put("k", []byte("ignored"), -1, nil))

	var got []byte
	st.Get("k", func(size, index int, data []byte, expiry int) bool {
		got = append(got, data...)
		return true
	})
	require.Equal(t, []byte("original"), got)
}

func TestAppendGrowsExistingValue(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Set("k", []byte("foo"), -1, nil))
	require.True(t, st.Append("k", []byte("bar"), -1, nil))

	var got []byte
	st.Get("k", func(size, index int, data []byte, expiry int) bool {
		got = append(got, data...)
		return true
	})
	require.Equal(t, []byte("foobar"), got)
	require.NoError(t, st.CheckHeap(false))
}

func TestDelRemovesKey(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Set("k", []byte("v"), -1, nil))
	require.True(t, st.Del("k"))
	require.False(t, st.Del("k"))

	found := st.Get("k", func(size, index int, data []byte, expiry int) bool { return true })
	require.False(t, found)
	require.NoError(t, st.CheckHeap(false))
}

func TestExpiredEntryIsInvisible(t *testing.T) {
	st := newTestStore(t)
	past := int(time.Now().Unix()) - 10
	require.True(t, st.Set("k", []byte("v"), past, nil))

	found := st.Get("k", func(size, index int, data []byte, expiry int) bool { return true })
	require.False(t, found)
}

func TestScanVisitsLiveEntries(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Set("a", []byte("1"), -1, nil))
	require.True(t, st.Set("b", []byte("22"), -1, nil))

	seen := map[string]string{}
	st.Scan(func(key string, size, index int, data []byte, expiry int) bool {
		seen[key] = string(data)
		return true
	})
	require.Equal(t, map[string]string{"a": "1", "b": "22"}, seen)
}

func TestStatsReflectsLiveKeys(t *testing.T) {
	st := newTestStore(t)
	require.True(t, st.Set("a", []byte("1"), -1, nil))
	require.True(t, st.Set("bb", []byte("22"), -1, nil))

	stats := st.Stats()
	require.EqualValues(t, 2, stats.KeyCount)
	require.EqualValues(t, 8, stats.SlotCount)
	require.EqualValues(t, 3, stats.KeyspaceSize)
	require.EqualValues(t, 3, stats.DataspaceSize)
	require.True(t, stats.ReqOperCount >= stats.SucOperCount)
}

func TestSetFNotifiedWithCommittedValue(t *testing.T) {
	st := newTestStore(t)
	var gotSize int
	var gotData []byte
	require.True(t, st.Set("k", []byte("value"), -1, func(size, index int, data []byte, expiry int) bool {
		gotSize = size
		gotData = append(gotData, data...)
		return true
	}))
	require.Equal(t, 5, gotSize)
	require.Equal(t, []byte("value"), gotData)
}
