// Package pool implements the output buffer allocator spec.md §4.1
// calls for: a size-classed slab pool for writable output buffers.
//
// Grounded on the teacher's pool/base_bufferpool.go (the generic
// baseBufferPool[T api.Buffer], channel-backed Get/Put/recycle) and
// core/buffer/bufferpool.go (the sizeClasses power-of-two bucket
// table and BufferPoolManager). The teacher shards every size class
// across NUMA nodes (nodeClassPools, getPreferredNUMANode); this
// package keeps the size-class table and the bounded-channel
// recycling idiom but drops the NUMA sharding — wscore has no NUMA
// affinity layer, so server.Config.NUMANode is carried only as a
// passthrough label (see DESIGN.md).
package pool

import "sync/atomic"

// sizeClasses mirrors the teacher's bucket table: the smallest power
// of two at or above 2KiB, up to 1MiB.
var sizeClasses = [...]int{
	2 * 1024,
	4 * 1024,
	8 * 1024,
	16 * 1024,
	32 * 1024,
	64 * 1024,
	128 * 1024,
	256 * 1024,
	512 * 1024,
	1024 * 1024,
}

func sizeClassUpperBound(size int) int {
	for _, c := range sizeClasses {
		if size <= c {
			return c
		}
	}
	return sizeClasses[len(sizeClasses)-1]
}

// Buffer is a pooled, reusable byte slab. Zero value is not usable;
// obtain one from a BufferPool's Get.
type Buffer struct {
	data  []byte
	class int
	pool  *BufferPool
}

// Bytes returns the full backing slice, sized to the buffer's size
// class (which may be larger than the size originally requested).
func (b *Buffer) Bytes() []byte { return b.data }

// Slice returns the first n bytes of the buffer, clamped to its
// capacity.
func (b *Buffer) Slice(n int) []byte {
	if n > len(b.data) {
		n = len(b.data)
	}
	return b.data[:n]
}

// Copy copies src into the buffer's backing slice and returns the
// number of bytes copied, per Go's copy semantics.
func (b *Buffer) Copy(src []byte) int { return copy(b.data, src) }

// CommitBytes finalizes the first n bytes of the buffer's scratch
// capacity as the slice to flush, once a writer has filled them in
// place via Bytes(). It is Slice(n) under a name that matches the
// Get/CommitBytes/Flush lifecycle callers use: Get reserves scratch
// space, CommitBytes marks how much of it is actually live, Flush (the
// caller's OutputSink) writes it out.
func (b *Buffer) CommitBytes(n int) []byte { return b.Slice(n) }

// Release returns the buffer to the pool it was obtained from. A
// Buffer must not be used again after Release. Calling Release on a
// Buffer not obtained from a pool (or calling it twice) is a no-op.
func (b *Buffer) Release() {
	if p := b.pool; p != nil {
		b.pool = nil
		p.put(b)
	}
}

const channelCapacity = 1024

// BufferPool is a portable slab pool: one bounded channel of
// recyclable Buffers per size class, grounded on the teacher's
// baseBufferPool[T] channel recycling pattern generalized from
// per-NUMA-node channels down to one.
type BufferPool struct {
	classes [len(sizeClasses)]chan *Buffer

	gets   int64
	puts   int64
	allocs int64
}

// NewBufferPool constructs an empty BufferPool ready for use.
func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	for i := range p.classes {
		p.classes[i] = make(chan *Buffer, channelCapacity)
	}
	return p
}

func (p *BufferPool) channelIndex(class int) int {
	for i, c := range sizeClasses {
		if c == class {
			return i
		}
	}
	return len(sizeClasses) - 1
}

// Get returns a Buffer sized to the smallest size class that holds size
// bytes, drawn from the recycled pool for that size class if one is
// available, or freshly allocated otherwise. A size above the largest
// class (1MiB) gets a 1MiB buffer, shorter than requested.
func (p *BufferPool) Get(size int) *Buffer {
	class := sizeClassUpperBound(size)
	ch := p.classes[p.channelIndex(class)]
	atomic.AddInt64(&p.gets, 1)

	select {
	case buf := <-ch:
		buf.pool = p
		return buf
	default:
		atomic.AddInt64(&p.allocs, 1)
		return &Buffer{data: make([]byte, class), class: class, pool: p}
	}
}

func (p *BufferPool) put(b *Buffer) {
	ch := p.classes[p.channelIndex(b.class)]
	atomic.AddInt64(&p.puts, 1)
	select {
	case ch <- b:
	default:
		// Pool for this class is full; drop it for GC to reclaim,
		// matching the teacher's Put behavior on a full channel.
	}
}

// Stats is a snapshot of pool activity, mirroring the teacher's
// api.BufferPoolStats contract.
type Stats struct {
	Gets   int64
	Puts   int64
	Allocs int64
}

// Stats returns a snapshot of this pool's counters.
func (p *BufferPool) Stats() Stats {
	return Stats{
		Gets:   atomic.LoadInt64(&p.gets),
		Puts:   atomic.LoadInt64(&p.puts),
		Allocs: atomic.LoadInt64(&p.allocs),
	}
}
