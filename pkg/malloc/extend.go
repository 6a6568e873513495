package malloc

// extendHeap requests ewords additional words from the driver, shapes
// the new tail into a free block (absorbing the old epilogue's slot),
// writes a fresh epilogue, and coalesces with the predecessor if it was
// free. ewords must be even and >= 4 (so the new block keeps a payload
// of at least 2 words, per spec.md invariant 10). Returns the header
// offset of the resulting free block.
func (h *Heap) extendHeap(ewords uint32) (uint32, error) {
	ptr, err := h.driver.SbrkLike(int(ewords) * 4)
	if err != nil {
		return 0, ErrOutOfMemory
	}
	h.words = h.driver.Words()

	newBlock := ptr - 1 // overwrite the old epilogue's header word
	size := ewords - 2
	oldEpiloguePrevFree := h.blockPrevFree(newBlock)
	h.markFree(newBlock, size, oldEpiloguePrevFree)

	epilogue := h.nextBlock(newBlock)
	h.words[epilogue] = packHeader(0, true, true)

	return h.coalesce(newBlock), nil
}
