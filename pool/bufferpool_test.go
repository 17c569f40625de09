package pool

import "testing"

func TestGetRoundsUpToSizeClass(t *testing.T) {
	p := NewBufferPool()
	b := p.Get(10)
	if len(b.Bytes()) != 2*1024 {
		t.Fatalf("len = %d, want %d", len(b.Bytes()), 2*1024)
	}
}

func TestGetAboveLargestClassClampsToLargest(t *testing.T) {
	p := NewBufferPool()
	b := p.Get(10 * 1024 * 1024)
	if len(b.Bytes()) != 1024*1024 {
		t.Fatalf("len = %d, want %d", len(b.Bytes()), 1024*1024)
	}
}

func TestReleaseRecyclesBuffer(t *testing.T) {
	p := NewBufferPool()
	b := p.Get(100)
	b.Release()

	b2 := p.Get(100)
	stats := p.Stats()
	if stats.Allocs != 1 {
		t.Fatalf("allocs = %d, want 1 (second Get should reuse the released buffer)", stats.Allocs)
	}
	if stats.Gets != 2 || stats.Puts != 1 {
		t.Fatalf("stats = %+v, want gets=2 puts=1", stats)
	}
	_ = b2
}

func TestCopyAndSlice(t *testing.T) {
	p := NewBufferPool()
	b := p.Get(16)
	n := b.Copy([]byte("hello"))
	if n != 5 {
		t.Fatalf("Copy returned %d, want 5", n)
	}
	if string(b.Slice(5)) != "hello" {
		t.Fatalf("Slice(5) = %q, want hello", b.Slice(5))
	}
}

func TestCommitBytesReturnsFilledPrefix(t *testing.T) {
	p := NewBufferPool()
	b := p.Get(16)
	n := copy(b.Bytes(), "hdr+payload")
	committed := b.CommitBytes(n)
	if string(committed) != "hdr+payload" {
		t.Fatalf("CommitBytes(%d) = %q, want %q", n, committed, "hdr+payload")
	}
}

func TestDoubleReleaseIsNoop(t *testing.T) {
	p := NewBufferPool()
	b := p.Get(100)
	b.Release()
	b.Release() // must not panic or double-count
	if p.Stats().Puts != 1 {
		t.Fatalf("puts = %d, want 1", p.Stats().Puts)
	}
}
