package malloc

import (
	"fmt"
	"log"
	"os"
)

var defaultLogger = log.New(os.Stderr, "", log.LstdFlags)

// CheckHeap walks the heap and the free-block index validating every
// structural invariant from spec.md §3/§9. When verbose, progress and
// diagnostics are written through Logger (or a stderr default). Returns
// ErrHeapCorrupt on the first hard violation found; the free-block
// count mismatch between heap-walk and index-walk is a known soft
// diagnostic (spec.md §9) and never fails the check.
func (h *Heap) CheckHeap(verbose bool) error {
	logger := h.Logger
	if logger == nil {
		logger = defaultLogger
	}
	logf := func(format string, args ...interface{}) {
		if verbose {
			logger.Printf(format, args...)
		}
	}

	heapFreeCount := 0
	prevWasFree := false
	b := uint32(0)

	if h.blockSize(b) != 0 || !h.wordAlloc(b) {
		return fmt.Errorf("%w: prologue malformed", ErrHeapCorrupt)
	}
	logf("prologue ok at %d", b)

	for {
		next := h.nextBlock(b)
		free := h.blockFree(b)
		size := h.blockSize(b)
		if size > 0 && payloadOf(b)%2 != 0 {
			return fmt.Errorf("%w: block %d payload misaligned", ErrHeapCorrupt, b)
		}
		if free {
			if size%2 != 0 {
				return fmt.Errorf("%w: free block %d has odd payload size", ErrHeapCorrupt, b)
			}
			footer := h.words[b+1+size]
			if footer != h.words[b] {
				return fmt.Errorf("%w: free block %d header/footer mismatch", ErrHeapCorrupt, b)
			}
			if prevWasFree {
				return fmt.Errorf("%w: adjacent free blocks at %d", ErrHeapCorrupt, b)
			}
			heapFreeCount++
		} else if b != 0 {
			if size%2 != 1 && size != 0 {
				return fmt.Errorf("%w: allocated block %d has even payload size", ErrHeapCorrupt, b)
			}
		}
		if h.blockPrevFree(b) != prevWasFree {
			return fmt.Errorf("%w: block %d prev_free bit inconsistent", ErrHeapCorrupt, b)
		}
		prevWasFree = free

		if size == 0 && !free && b != 0 {
			// epilogue reached
			logf("epilogue ok at %d", b)
			break
		}
		b = next
	}

	indexFreeCount := 0
	for idx, head := range h.smallHead {
		want := uint32(idx)*2 + 2
		for n := head; n != 0; n = h.succ(n) {
			if h.blockSize(n) != want {
				return fmt.Errorf("%w: bucket %d holds size %d block", ErrHeapCorrupt, idx, h.blockSize(n))
			}
			if !h.blockFree(n) {
				return fmt.Errorf("%w: allocated block %d present in bucket %d", ErrHeapCorrupt, n, idx)
			}
			indexFreeCount++
		}
	}

	var walkBST func(n uint32, lo, hi uint32, hasLo, hasHi bool) error
	walkBST = func(n uint32, lo, hi uint32, hasLo, hasHi bool) error {
		if n == 0 {
			return nil
		}
		sz := h.blockSize(n)
		if hasLo && sz <= lo {
			return fmt.Errorf("%w: BST node %d violates left ordering", ErrHeapCorrupt, n)
		}
		if hasHi && sz >= hi {
			return fmt.Errorf("%w: BST node %d violates right ordering", ErrHeapCorrupt, n)
		}
		prev := uint32(0)
		for s := n; s != 0; s = h.succ(s) {
			if h.blockSize(s) != sz {
				return fmt.Errorf("%w: sibling %d size mismatch at node %d", ErrHeapCorrupt, s, n)
			}
			if !h.blockFree(s) {
				return fmt.Errorf("%w: allocated block %d present in size BST", ErrHeapCorrupt, s)
			}
			if s != n && s <= prev {
				return fmt.Errorf("%w: sibling chain at node %d not address-ascending at %d", ErrHeapCorrupt, n, s)
			}
			prev = s
			indexFreeCount++
		}
		if err := walkBST(h.left(n), lo, sz, hasLo, true); err != nil {
			return err
		}
		return walkBST(h.right(n), sz, hi, true, hasHi)
	}
	if err := walkBST(h.root, 0, 0, false, false); err != nil {
		return err
	}

	if heapFreeCount != indexFreeCount {
		logf("soft diagnostic: heap-walk found %d free blocks, index-walk found %d", heapFreeCount, indexFreeCount)
	}
	return nil
}

// wordAlloc reports the alloc bit of the raw header word at b, without
// the epilogue-reached special-casing blockFree's callers apply.
func (h *Heap) wordAlloc(b uint32) bool {
	return h.words[b]&allocBit != 0
}
