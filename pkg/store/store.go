package store

import (
	"sync/atomic"
	"time"

	"github.com/ebatur/shardcache/pkg/malloc"
)

type Store struct {
	slots      []slot
	pool       *syncPool
	disposerCh chan struct{}
	done       int32

	reqOperCount int64
	sucOperCount int64
}

// GetFunc streams one value back to the caller. index/size let a caller
// reassemble a value delivered over several calls; this store's nodes
// hold their value as one contiguous allocation, so f is always called
// exactly once per matching entry, with index 0 and size == len(data).
type GetFunc func(size int, index int, data []byte, expiry int) (cont bool)

// ScanFunc is GetFunc plus the key, for Scan's full-store walk.
type ScanFunc func(key string, size int, index int, data []byte, expiry int) (cont bool)

// Stats reports store-wide accounting, the teacher's STATS command
// surface (pkg/server/connstate.go cmdStats).
type Stats struct {
	KeyCount      int64
	KeyspaceSize  int64
	DataspaceSize int64
	ReqOperCount  int64
	SucOperCount  int64
	SlotCount     int64
}

type updateAction int

const (
	updateActionNone = updateAction(iota)
	updateActionReplace
	updateActionAppend
)

// New builds a Store with count shards backed by a single malloc.Heap
// reserved at size bytes.
func New(count int, size int) (st *Store) {
	if count <= 0 {
		return
	}
	chunkWords := size / 4
	if chunkWords < 4 {
		chunkWords = 4
	}
	if chunkWords%2 != 0 {
		chunkWords++
	}
	// Reserve a little headroom above the requested chunk for the
	// prologue/epilogue sentinels New writes before extending.
	h, err := malloc.New(malloc.NewSliceDriver(chunkWords+4), chunkWords)
	if err != nil {
		return nil
	}
	st = &Store{
		slots:      make([]slot, count),
		pool:       newSyncPool(h),
		disposerCh: make(chan struct{}),
	}
	go st.disposer()
	return
}

func (st *Store) Close() {
	atomic.StoreInt32(&st.done, 1)
	select {
	case st.disposerCh <- struct{}{}:
	default:
	}
}

func (st *Store) disposer() {
	tk := time.NewTicker(60 * time.Second)
	for st.done == 0 {
		select {
		case <-tk.C:
		case <-st.disposerCh:
		}
		for i := range st.slots {
			if st.done != 0 {
				break
			}
			sl := &st.slots[i]
			sl.Mu.Lock()
			for j := 0; j < len(sl.Nodes); j++ {
				if st.done != 0 {
					break
				}
				nd := &sl.Nodes[j]
				if nd.KeyHash >= 0 && nd.Expiry >= 0 && nd.Expiry < int(time.Now().Unix()) {
					sl.DelNode(st.pool, j)
				}
			}
			sl.Mu.Unlock()
		}
	}
	tk.Stop()
}

// CheckHeap exposes the backing allocator's heap checker for tests and
// diagnostics.
func (st *Store) CheckHeap(verbose bool) error {
	return st.pool.CheckHeap(verbose)
}

// keyValOf splits a node's Data (length-prefixed key followed by value,
// per getBKey's encoding) into the plain key string and the value bytes.
func keyValOf(data []byte) (key string, val []byte) {
	if len(data) == 0 {
		return "", nil
	}
	keyLen := int(data[0])
	return string(data[1 : 1+keyLen]), data[1+keyLen:]
}

func (st *Store) Get(key string, f GetFunc) bool {
	atomic.AddInt64(&st.reqOperCount, 1)
	bKey := getBKey(key)
	if bKey == nil {
		return false
	}
	keyHash := HashFunc(bKey)
	slotIdx := keyHash % len(st.slots)
	sl := &st.slots[slotIdx]
	sl.Mu.Lock()
	ndIdx := sl.FindNode(keyHash, bKey)
	if ndIdx < 0 {
		sl.Mu.Unlock()
		return false
	}
	nd := &sl.Nodes[ndIdx]
	if nd.Expiry >= 0 && nd.Expiry < int(time.Now().Unix()) {
		sl.Mu.Unlock()
		return false
	}
	val := nd.Data[len(bKey):]
	expiry := nd.Expiry
	sl.Mu.Unlock()
	if f != nil {
		f(len(val), 0, val, expiry)
	}
	atomic.AddInt64(&st.sucOperCount, 1)
	return true
}

func (st *Store) write(key string, val []byte, ua updateAction, expiry int, f GetFunc) bool {
	atomic.AddInt64(&st.reqOperCount, 1)
	bKey := getBKey(key)
	if bKey == nil {
		return false
	}
	keyHash := HashFunc(bKey)
	slotIdx := keyHash % len(st.slots)
	sl := &st.slots[slotIdx]
	sl.Mu.Lock()

	foundNdIdx := sl.FindNode(keyHash, bKey)
	var ndIdx int
	if foundNdIdx >= 0 {
		foundNd := &sl.Nodes[foundNdIdx]
		if ua == updateActionNone && (foundNd.Expiry < 0 || foundNd.Expiry >= int(time.Now().Unix())) {
			sl.Mu.Unlock()
			return false
		}
		ndIdx = foundNdIdx
	} else {
		ndIdx = sl.NewNode(st.pool)
	}
	if ndIdx < 0 {
		sl.Mu.Unlock()
		return false
	}

	bKeyLen, valLen := len(bKey), len(val)
	nd := &sl.Nodes[ndIdx]
	nd.KeyHash = keyHash

	switch {
	case ua == updateActionNone || ua == updateActionReplace || foundNdIdx < 0:
		if val == nil {
			sl.DelNode(st.pool, ndIdx)
			sl.Mu.Unlock()
			return true
		}
		if !nd.Set(st.pool, bKeyLen+valLen) {
			if foundNdIdx < 0 {
				sl.DelNode(st.pool, ndIdx)
			}
			sl.Mu.Unlock()
			return false
		}
		copy(nd.Data, bKey)
		copy(nd.Data[bKeyLen:], val)
		nd.Expiry = expiry

	case ua == updateActionAppend:
		oldLen := len(nd.Data)
		if !nd.Grow(st.pool, valLen) {
			sl.Mu.Unlock()
			return false
		}
		copy(nd.Data[oldLen:], val)
		if expiry >= 0 {
			nd.Expiry = expiry
		}
	}
	outVal := nd.Data[bKeyLen:]
	outExpiry := nd.Expiry
	sl.Mu.Unlock()
	if f != nil {
		f(len(outVal), 0, outVal, outExpiry)
	}
	atomic.AddInt64(&st.sucOperCount, 1)
	return true
}

func (st *Store) Set(key string, val []byte, expiry int, f GetFunc) bool {
	return st.write(key, val, updateActionReplace, expiry, f)
}

func (st *Store) Put(key string, val []byte, expiry int, f GetFunc) bool {
	return st.write(key, val, updateActionNone, expiry, f)
}

func (st *Store) Append(key string, val []byte, expiry int, f GetFunc) bool {
	return st.write(key, val, updateActionAppend, expiry, f)
}

func (st *Store) Del(key string) bool {
	atomic.AddInt64(&st.reqOperCount, 1)
	bKey := getBKey(key)
	if bKey == nil {
		return false
	}
	keyHash := HashFunc(bKey)
	slotIdx := keyHash % len(st.slots)
	sl := &st.slots[slotIdx]
	sl.Mu.Lock()
	defer sl.Mu.Unlock()
	ndIdx := sl.FindNode(keyHash, bKey)
	if ndIdx < 0 {
		return false
	}
	sl.DelNode(st.pool, ndIdx)
	atomic.AddInt64(&st.sucOperCount, 1)
	return true
}

// Scan walks every live entry in the store, calling f once per entry
// with its key, value and expiry. Used by cluster resharding/cleanup to
// redistribute or evict keys that no longer belong on this node.
func (st *Store) Scan(f ScanFunc) {
	now := int(time.Now().Unix())
	for i := range st.slots {
		sl := &st.slots[i]
		sl.Mu.Lock()
		for j := range sl.Nodes {
			nd := &sl.Nodes[j]
			if nd.KeyHash < 0 {
				continue
			}
			if nd.Expiry >= 0 && nd.Expiry < now {
				continue
			}
			key, val := keyValOf(nd.Data)
			if !f(key, len(val), 0, val, nd.Expiry) {
				sl.Mu.Unlock()
				return
			}
		}
		sl.Mu.Unlock()
	}
}

// Stats reports a snapshot of key/data counts alongside the operation
// counters, mirroring the teacher's ArenaStats/PoolStats-derived STATS
// command.
func (st *Store) Stats() (s Stats) {
	s.SlotCount = int64(len(st.slots))
	s.ReqOperCount = atomic.LoadInt64(&st.reqOperCount)
	s.SucOperCount = atomic.LoadInt64(&st.sucOperCount)
	now := int(time.Now().Unix())
	for i := range st.slots {
		sl := &st.slots[i]
		sl.Mu.Lock()
		for j := range sl.Nodes {
			nd := &sl.Nodes[j]
			if nd.KeyHash < 0 {
				continue
			}
			if nd.Expiry >= 0 && nd.Expiry < now {
				continue
			}
			key, val := keyValOf(nd.Data)
			s.KeyCount++
			s.KeyspaceSize += int64(len(key))
			s.DataspaceSize += int64(len(val))
		}
		sl.Mu.Unlock()
	}
	return
}
