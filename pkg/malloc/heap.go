package malloc

import (
	"log"
	"unsafe"
)

// Heap is the single process-wide allocator state spec.md §9 calls for:
// the fixed heap base, the small-bucket heads, and the size-BST root,
// encapsulated in one constructed value rather than package globals.
type Heap struct {
	driver    MemDriver
	words     []uint32
	smallHead [2]uint32
	root      uint32
	stats     Stats

	// Logger receives CheckHeap's verbose diagnostics. Nil uses a
	// stderr logger with the teacher's log.LstdFlags convention.
	Logger *log.Logger
}

// Stats reports word-granularity accounting, supplementing spec.md with
// the kind of fragmentation visibility the teacher's ArenaStats/PoolStats
// gave callers.
type Stats struct {
	TotalWords     int
	AllocatedWords int
	RequestedWords int
}

// DefaultCapacityWords is the reservation ceiling used by NewDefault; it
// bounds how large the heap can ever grow for the lifetime of the
// process, since the backing array is never reallocated.
const DefaultCapacityWords = 256 * 1024 * 1024 / 4

// NewDefault builds a Heap over an in-process sliceDriver reserved at
// DefaultCapacityWords, extended by an initial chunk of initialChunkWords
// words (must be even and >= 4).
func NewDefault(initialChunkWords int) (*Heap, error) {
	return New(newSliceDriver(DefaultCapacityWords), initialChunkWords)
}

// New builds a Heap over driver, establishing the prologue/epilogue
// sentinels and extending by an initial chunk of initialChunkWords words.
// This is spec.md's init().
func New(driver MemDriver, initialChunkWords int) (*Heap, error) {
	if initialChunkWords < 4 || initialChunkWords%2 != 0 {
		return nil, ErrInvalidChunkSize
	}
	h := &Heap{driver: driver}

	base, err := driver.SbrkLike(2 * 4)
	if err != nil {
		return nil, ErrOutOfMemory
	}
	h.words = driver.Words()
	h.words[base] = packHeader(0, true, false)   // prologue
	h.words[base+1] = packHeader(0, true, false) // epilogue

	if _, err := h.extendHeap(uint32(initialChunkWords)); err != nil {
		return nil, err
	}
	return h, nil
}

// payloadBytes returns a []byte view over block b's payload, truncated
// (length and capacity) to n bytes. Reinterpreting the word buffer as a
// byte slice follows the same unsafe.Slice technique other_examples'
// pboyd-malloc arena uses over its [][2]uint64 backing store.
func (h *Heap) payloadBytes(b uint32, n int) []byte {
	p := payloadOf(b)
	full := unsafe.Slice((*byte)(unsafe.Pointer(&h.words[p])), int(h.blockSize(b))*4)
	return full[:n:n]
}

// blockOfBytes recovers the header offset of the block that owns a
// payload slice previously handed out by payloadBytes, by diffing
// pointers against the heap's backing array — the same idiom the
// teacher's pkg/malloc/arena.go Free uses against its own buf.
func (h *Heap) blockOfBytes(p []byte) uint32 {
	base := uintptr(unsafe.Pointer(&h.words[0]))
	ptr := uintptr(unsafe.Pointer(&p[0]))
	wordIdx := uint32((ptr - base) / 4)
	return blockOfPayload(wordIdx)
}

// Stats returns a snapshot of word-granularity usage. TotalWords always
// reflects the heap's current break, computed fresh since the driver may
// grow between calls.
func (h *Heap) Stats() Stats {
	s := h.stats
	s.TotalWords = len(h.words)
	return s
}
