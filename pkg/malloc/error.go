package malloc

import "errors"

var (
	// ErrOutOfMemory is returned when the heap extender's underlying
	// growth primitive fails and no larger block can be produced.
	ErrOutOfMemory = errors.New("malloc: out of memory")

	// ErrInvalidChunkSize is returned by New when the initial chunk size
	// is not usable to host the prologue and epilogue sentinels.
	ErrInvalidChunkSize = errors.New("malloc: invalid initial chunk size")

	// ErrHeapCorrupt is returned by CheckHeap when a structural
	// invariant from the block format or free-block index is violated.
	ErrHeapCorrupt = errors.New("malloc: heap structurally invalid")
)
