package malloc

import "testing"

func TestPackHeaderRoundTrip(t *testing.T) {
	h := packHeader(123, true, false)
	if h&sizeMask != 123 {
		t.Errorf("size round-trip failed: got %d", h&sizeMask)
	}
	if h&allocBit == 0 {
		t.Error("alloc bit not set")
	}
	if h&prevFreeBit != 0 {
		t.Error("prev_free bit unexpectedly set")
	}

	h2 := packHeader(8, false, true)
	if h2&allocBit != 0 {
		t.Error("alloc bit unexpectedly set")
	}
	if h2&prevFreeBit == 0 {
		t.Error("prev_free bit not set")
	}
}

func TestBucketIndex(t *testing.T) {
	if bucketIndex(2) != 0 {
		t.Errorf("bucketIndex(2) = %d, want 0", bucketIndex(2))
	}
	if bucketIndex(4) != 1 {
		t.Errorf("bucketIndex(4) = %d, want 1", bucketIndex(4))
	}
}
