package malloc

// coalesce merges free block b with an immediately-free predecessor
// and/or successor, updates the index accordingly, and propagates the
// prev_free bit of the resulting block's successor. Returns the header
// offset of the (possibly merged) free block.
func (h *Heap) coalesce(b uint32) uint32 {
	prevFree := h.blockPrevFree(b)
	next := h.nextBlock(b)
	nextFree := h.blockFree(next)

	switch {
	case prevFree && nextFree:
		prev := h.prevBlock(b)
		nextNext := h.nextBlock(next)
		h.indexDelete(prev)
		h.indexDelete(next)
		newSize := h.blockSize(prev) + h.blockSize(b) + h.blockSize(next) + 4
		prevWasFree := h.blockPrevFree(prev)
		h.markFree(prev, newSize, prevWasFree)
		h.setPrevFreeBit(nextNext, true)
		h.indexInsert(prev)
		return prev

	case nextFree:
		nextNext := h.nextBlock(next)
		h.indexDelete(next)
		newSize := h.blockSize(b) + h.blockSize(next) + 2
		h.markFree(b, newSize, prevFree)
		h.setPrevFreeBit(nextNext, true)
		h.indexInsert(b)
		return b

	case prevFree:
		prev := h.prevBlock(b)
		h.indexDelete(prev)
		newSize := h.blockSize(b) + h.blockSize(prev) + 2
		prevWasFree := h.blockPrevFree(prev)
		h.markFree(prev, newSize, prevWasFree)
		h.setPrevFreeBit(next, true)
		h.indexInsert(prev)
		return prev

	default:
		h.markFree(b, h.blockSize(b), prevFree)
		h.setPrevFreeBit(next, true)
		h.indexInsert(b)
		return b
	}
}
