package malloc

// place consumes free block b (of payload size C) to satisfy an
// allocation request of a payload words, splitting off a free remainder
// when there is enough slack to host one (spec.md §4.E). b is removed
// from the index first; the caller is responsible for b already being
// a valid, indexed free block.
//
// Deviation from the literal spec text, recorded in DESIGN.md: spec.md
// §4.E's split branch describes reshaping b to allocated size "a-1",
// which would hand the caller one fewer payload word than requested.
// Read together with allocate()'s find_fit(a-1) query and the
// absorb-whole branch's "size C+1" (which always yields >= a), a split
// to size a-1 looks like a transcription slip rather than an intended
// under-allocation — so this implementation sizes the split branch to
// exactly a, guaranteeing every caller always receives at least the
// words it asked for.
func (h *Heap) place(b, a uint32) uint32 {
	c := h.blockSize(b)
	prevFree := h.blockPrevFree(b)
	h.indexDelete(b)

	if c >= a+3 {
		h.markAlloc(b, a, prevFree)
		rem := b + 1 + a
		remSize := c - a - 1
		h.markFree(rem, remSize, false)
		after := h.nextBlock(rem)
		h.setPrevFreeBit(after, true)
		h.indexInsert(rem)
		return b
	}

	h.markAlloc(b, c+1, prevFree)
	after := h.nextBlock(b)
	h.setPrevFreeBit(after, false)
	return b
}
