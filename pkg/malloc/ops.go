package malloc

// requestedWords converts a byte request into the payload-word count a
// resulting allocated block must carry (spec.md §4.F). The result is
// always odd: allocated blocks omit their footer, so an odd payload
// count keeps the following block's header 8-byte aligned.
func requestedWords(n int) uint32 {
	if n <= 12 {
		return 3
	}
	return uint32(3 + ((n-12+7)/8)*2)
}

// Allocate returns an 8-byte-aligned payload of n bytes, or nil if n is
// zero or the heap cannot be grown to satisfy the request.
func (h *Heap) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	a := requestedWords(n)
	need := a - 1 // free-block size query; see find_fit(a-1) in spec.md §4.F

	b := h.findFit(need)
	if b == 0 {
		epilogue := uint32(len(h.words)) - 1
		var ewords uint32
		if h.blockPrevFree(epilogue) {
			tail := h.prevBlock(epilogue)
			ewords = (need - h.blockSize(tail)) + 2
		} else {
			ewords = need + 2
		}
		merged, err := h.extendHeap(ewords)
		if err != nil {
			return nil
		}
		b = merged
	}

	b = h.place(b, a)
	h.stats.AllocatedWords += int(h.blockSize(b))
	h.stats.RequestedWords += n
	return h.payloadBytes(b, n)
}

// Free releases a payload previously returned by Allocate, Reallocate, or
// Callocate. p == nil is tolerated.
func (h *Heap) Free(p []byte) {
	if len(p) == 0 {
		return
	}
	b := h.blockOfBytes(p)
	h.stats.AllocatedWords -= int(h.blockSize(b))
	h.stats.RequestedWords -= len(p)

	next := h.nextBlock(b)
	h.setPrevFreeBit(next, false)
	h.coalesce(b)
}

// Reallocate resizes the allocation backing p to n bytes, preserving as
// many leading bytes as fit, per spec.md §4.F.
func (h *Heap) Reallocate(p []byte, n int) []byte {
	if p == nil {
		return h.Allocate(n)
	}
	if n == 0 {
		h.Free(p)
		return nil
	}

	oldLen := len(p)
	b := h.blockOfBytes(p)
	w := h.blockSize(b)
	bigN := requestedWords(n)

	finalB := b
	fallback := false

	switch {
	case bigN == w || (w > bigN && w-bigN < 4):
		// no-op: current block already satisfies the request closely
		// enough that splitting would leave an unusably small sliver.

	case w > bigN:
		prevFree := h.blockPrevFree(b)
		h.markAlloc(b, bigN, prevFree)
		rem := b + 1 + bigN
		remSize := w - bigN - 2
		h.markFree(rem, remSize, false)
		afterIdx := h.nextBlock(rem)
		if h.blockFree(afterIdx) {
			h.indexDelete(afterIdx)
			mergedSize := remSize + h.blockSize(afterIdx) + 2
			h.markFree(rem, mergedSize, false)
			afterAfter := h.nextBlock(rem)
			h.setPrevFreeBit(afterAfter, true)
			h.indexInsert(rem)
		} else {
			h.setPrevFreeBit(afterIdx, true)
			h.indexInsert(rem)
		}

	default:
		next := h.nextBlock(b)
		need := bigN - w
		switch {
		case h.blockFree(next) && h.blockSize(next)+1-need >= 3:
			l := h.blockSize(next)
			nextNext := h.nextBlock(next)
			h.indexDelete(next)
			prevFree := h.blockPrevFree(b)
			h.markAlloc(b, bigN, prevFree)
			rem := b + 1 + bigN
			remSize := l + 1 - need - 1
			h.markFree(rem, remSize, false)
			h.setPrevFreeBit(nextNext, true)
			h.indexInsert(rem)

		case h.blockFree(next) && h.blockSize(next)+1-need >= 0:
			l := h.blockSize(next)
			nextNext := h.nextBlock(next)
			h.indexDelete(next)
			prevFree := h.blockPrevFree(b)
			h.markAlloc(b, w+l+2, prevFree)
			h.setPrevFreeBit(nextNext, false)

		default:
			fallback = true
		}
	}

	if fallback {
		np := h.Allocate(n)
		if np == nil {
			return nil
		}
		copy(np, p)
		h.Free(p)
		return np
	}

	h.stats.AllocatedWords += int(h.blockSize(finalB)) - int(w)
	h.stats.RequestedWords += n - oldLen
	return h.payloadBytes(finalB, n)
}

// Callocate returns a zero-initialized payload sized for k*n bytes.
func (h *Heap) Callocate(k, n int) []byte {
	total := k * n
	p := h.Allocate(total)
	if p == nil {
		return nil
	}
	for i := range p {
		p[i] = 0
	}
	return p
}
