package malloc

// Free-block payload reuse (spec.md §3): word1=pred, word2=succ,
// word3=left (size>=4), word4=right (size>=4). Offset 0 is nil — the
// prologue word is never a link target.

func (h *Heap) pred(b uint32) uint32    { return h.words[b+1] }
func (h *Heap) setPred(b, v uint32)     { h.words[b+1] = v }
func (h *Heap) succ(b uint32) uint32    { return h.words[b+2] }
func (h *Heap) setSucc(b, v uint32)     { h.words[b+2] = v }
func (h *Heap) left(b uint32) uint32    { return h.words[b+3] }
func (h *Heap) setLeft(b, v uint32)     { h.words[b+3] = v }
func (h *Heap) right(b uint32) uint32   { return h.words[b+4] }
func (h *Heap) setRight(b, v uint32)    { h.words[b+4] = v }

// bucketIndex maps a small-tier size (2 or 4) to its bucket slot.
func bucketIndex(size uint32) int { return int((size - 2) / 2) }

// smallInsert prepends b (LIFO) to its bucket's doubly-linked list.
func (h *Heap) smallInsert(b uint32) {
	idx := bucketIndex(h.blockSize(b))
	head := h.smallHead[idx]
	h.setPred(b, 0)
	h.setSucc(b, head)
	if head != 0 {
		h.setPred(head, b)
	}
	h.smallHead[idx] = b
}

// smallDelete splices b out of its bucket's list.
func (h *Heap) smallDelete(b uint32) {
	idx := bucketIndex(h.blockSize(b))
	p, s := h.pred(b), h.succ(b)
	if p != 0 {
		h.setSucc(p, s)
	} else {
		h.smallHead[idx] = s
	}
	if s != 0 {
		h.setPred(s, p)
	}
}

// smallFindFit returns a block from the small tier whose size is >= w,
// or 0. Bucket 0 holds only size-2 blocks, bucket 1 only size-4 blocks,
// so any hit is a valid (and minimal, within the small tier) fit.
func (h *Heap) smallFindFit(w uint32) uint32 {
	if w <= 2 && h.smallHead[0] != 0 {
		return h.smallHead[0]
	}
	if w <= 4 && h.smallHead[1] != 0 {
		return h.smallHead[1]
	}
	return 0
}

// siblingInsert inserts b into the address-ordered sibling chain headed
// by n (same size class as b) and returns the chain's (possibly new)
// head. Keeping the head always the lowest address makes the BST node
// itself the best-fit candidate for its size class, with no separate
// "walk to minimum" step needed at lookup time — the representation
// spec.md's design notes explicitly license ("an ordinary linked list...
// the observable contract is preserved").
func (h *Heap) siblingInsert(n, b uint32) uint32 {
	if b < n {
		h.setPred(b, 0)
		h.setSucc(b, n)
		h.setPred(n, b)
		h.setLeft(b, h.left(n))
		h.setRight(b, h.right(n))
		return b
	}
	cur := n
	for h.succ(cur) != 0 && h.succ(cur) < b {
		cur = h.succ(cur)
	}
	s := h.succ(cur)
	h.setSucc(cur, b)
	h.setPred(b, cur)
	h.setSucc(b, s)
	if s != 0 {
		h.setPred(s, b)
	}
	return n
}

// siblingRemove splices b out of its sibling chain, given n is the
// current chain head. Returns the (possibly new) head, or 0 if the
// chain is now empty.
func (h *Heap) siblingRemove(n, b uint32) uint32 {
	if b != n {
		p, s := h.pred(b), h.succ(b)
		if p != 0 {
			h.setSucc(p, s)
		}
		if s != 0 {
			h.setPred(s, p)
		}
		return n
	}
	s := h.succ(n)
	if s == 0 {
		return 0
	}
	h.setPred(s, 0)
	h.setLeft(s, h.left(n))
	h.setRight(s, h.right(n))
	return s
}

// bstAdd inserts free block b into the size BST rooted at n (0 = empty)
// and returns the new subtree root.
func (h *Heap) bstAdd(n, b uint32) uint32 {
	if n == 0 {
		h.setLeft(b, 0)
		h.setRight(b, 0)
		h.setPred(b, 0)
		h.setSucc(b, 0)
		return b
	}
	nsz, bsz := h.blockSize(n), h.blockSize(b)
	switch {
	case bsz < nsz:
		h.setLeft(n, h.bstAdd(h.left(n), b))
		return n
	case bsz > nsz:
		h.setRight(n, h.bstAdd(h.right(n), b))
		return n
	default:
		return h.siblingInsert(n, b)
	}
}

// bstDeleteMin removes and returns the size-minimum node of the subtree
// rooted at n, along with the subtree's new root.
func (h *Heap) bstDeleteMin(n uint32) (minNode, newSubtree uint32) {
	if h.left(n) == 0 {
		return n, h.right(n)
	}
	m, newLeft := h.bstDeleteMin(h.left(n))
	h.setLeft(n, newLeft)
	return m, n
}

// bstTake removes free block b (known to be present) from the subtree
// rooted at n and returns the new subtree root.
func (h *Heap) bstTake(n, b uint32) uint32 {
	if n == 0 {
		return 0
	}
	nsz, bsz := h.blockSize(n), h.blockSize(b)
	switch {
	case bsz < nsz:
		h.setLeft(n, h.bstTake(h.left(n), b))
		return n
	case bsz > nsz:
		h.setRight(n, h.bstTake(h.right(n), b))
		return n
	default:
		if newHead := h.siblingRemove(n, b); newHead != 0 || b != n {
			return newHead
		}
		// b == n and its sibling chain is now empty: classic BST
		// node deletion of n itself.
		l, r := h.left(n), h.right(n)
		if l == 0 {
			return r
		}
		if r == 0 {
			return l
		}
		minNode, newRight := h.bstDeleteMin(r)
		h.setLeft(minNode, l)
		h.setRight(minNode, newRight)
		h.setPred(minNode, 0)
		h.setSucc(minNode, 0)
		return minNode
	}
}

// ceiling returns the node in the subtree rooted at n with the smallest
// size >= w, or 0.
func (h *Heap) ceiling(n, w uint32) uint32 {
	if n == 0 {
		return 0
	}
	sz := h.blockSize(n)
	switch {
	case sz == w:
		return n
	case sz < w:
		return h.ceiling(h.right(n), w)
	default:
		if r := h.ceiling(h.left(n), w); r != 0 {
			return r
		}
		return n
	}
}

// indexInsert adds free block b to whichever tier its size belongs to.
func (h *Heap) indexInsert(b uint32) {
	if sz := h.blockSize(b); sz <= 4 {
		h.smallInsert(b)
	} else {
		h.root = h.bstAdd(h.root, b)
	}
}

// indexDelete removes free block b from whichever tier its size belongs
// to.
func (h *Heap) indexDelete(b uint32) {
	if sz := h.blockSize(b); sz <= 4 {
		h.smallDelete(b)
	} else {
		h.root = h.bstTake(h.root, b)
	}
}

// findFit returns the best-fit (smallest qualifying size, lowest address
// within that size) free block for a request of w payload words, or 0.
func (h *Heap) findFit(w uint32) uint32 {
	if w <= 8 {
		if b := h.smallFindFit(w); b != 0 {
			return b
		}
	}
	return h.ceiling(h.root, w)
}
