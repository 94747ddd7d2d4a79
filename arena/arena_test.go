package arena

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/buddy"
	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/testutil"
)

// goSource leases chunks from the Go heap, shifted by skew bytes to
// exercise alignment.
type goSource struct {
	skew int
	fail bool
}

var errSourceDown = errors.New("source down")

func (g *goSource) Alloc(size int) ([]byte, error) {
	if g.fail {
		return nil, errSourceDown
	}
	return make([]byte, size+g.skew)[g.skew:], nil
}

func (g *goSource) Free([]byte) error { return nil }

func newTestBuddy(t *testing.T, pages int) (*buddy.Allocator, *heap.Heap) {
	t.Helper()
	h := testutil.GuestHeap(t, pages)
	b, err := buddy.New(h, nil)
	require.NoError(t, err)
	return b, h
}

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func Test_Arena_New(t *testing.T) {
	src := &testutil.CountingSource{ChunkSource: &goSource{}}
	a, err := NewWithSource(src, 100)
	require.NoError(t, err)

	require.Equal(t, MinChunkSize, a.ChunkSize(), "chunk size clamps to the minimum")
	require.Equal(t, 1, a.ChunkCount())
	require.Equal(t, 0, a.CurrentChunkIndex())
	require.Equal(t, 1, src.Allocs)
}

// Test_Arena_BumpMonotonic verifies allocations within a chunk are aligned
// and strictly increasing.
func Test_Arena_BumpMonotonic(t *testing.T) {
	src, _ := newTestBuddy(t, 16)
	a, err := NewWithSource(src, 4096)
	require.NoError(t, err)

	var prev uintptr
	for i, n := range []int{1, 7, 16, 17, 100, 3, 64} {
		b, err := a.Alloc(n)
		require.NoError(t, err)
		require.Len(t, b, n)
		p := addr(b)
		require.Zero(t, p%Alignment, "allocation %d misaligned", i)
		if i > 0 {
			require.Greater(t, p, prev)
		}
		prev = p
	}
	require.Equal(t, 0, a.CurrentChunkIndex())
}

func Test_Arena_SlicesDoNotOverlap(t *testing.T) {
	a, err := NewWithSource(&goSource{}, 4096)
	require.NoError(t, err)

	b1, err := a.Alloc(5)
	require.NoError(t, err)
	b2, err := a.Alloc(5)
	require.NoError(t, err)

	require.Equal(t, 16, cap(b1), "capacity stops at the aligned size")
	b1 = append(b1, make([]byte, 11)...)
	for i := range b1 {
		b1[i] = 0xFF
	}
	require.Equal(t, make([]byte, 5), b2, "filling b1 to capacity must not touch b2")
}

// Test_Arena_ResetIdempotent verifies resetting twice equals resetting once.
func Test_Arena_ResetIdempotent(t *testing.T) {
	a, err := NewWithSource(&goSource{}, 4096)
	require.NoError(t, err)

	_, err = a.Alloc(32)
	require.NoError(t, err)
	pos := a.Pos()

	first, err := a.Alloc(48)
	require.NoError(t, err)
	_, err = a.Alloc(48)
	require.NoError(t, err)

	a.Reset(pos)
	a.Reset(pos)
	require.Equal(t, pos, a.Pos())

	again, err := a.Alloc(48)
	require.NoError(t, err)
	require.Equal(t, addr(first), addr(again), "allocation after reset reuses memory")
}

func Test_Arena_ResetZeroPos(t *testing.T) {
	a, err := NewWithSource(&goSource{}, 4096)
	require.NoError(t, err)
	_, err = a.Alloc(64)
	require.NoError(t, err)

	before := a.Pos()
	a.Reset(Pos{})
	require.Equal(t, before, a.Pos())
	require.True(t, Pos{}.IsZero())
	require.False(t, before.IsZero())
}

func Test_Arena_LargeRequestLeasesChunk(t *testing.T) {
	src := &testutil.CountingSource{ChunkSource: &goSource{}}
	a, err := NewWithSource(src, 4096)
	require.NoError(t, err)

	b, err := a.Alloc(10000)
	require.NoError(t, err)
	require.Len(t, b, 10000)
	require.Equal(t, 2, a.ChunkCount())
	require.Equal(t, 1, a.CurrentChunkIndex())
	require.Equal(t, 2, src.Allocs)

	// The big chunk is full; the next small request leases a default chunk.
	_, err = a.Alloc(16)
	require.NoError(t, err)
	require.Equal(t, 3, a.ChunkCount())
	require.Equal(t, 4096, len(a.chunks[2].mem))
}

// Test_Arena_ChunkReuse verifies a reset arena replays the same workload
// without leasing chunks.
func Test_Arena_ChunkReuse(t *testing.T) {
	src := &testutil.CountingSource{ChunkSource: &goSource{}}
	a, err := NewWithSource(src, 4096)
	require.NoError(t, err)

	workload := func() {
		for _, n := range []int{1000, 3000, 5000, 200, 9000, 4096} {
			_, err := a.Alloc(n)
			require.NoError(t, err)
		}
	}

	workload()
	chunks, leases := a.ChunkCount(), src.Allocs
	require.Greater(t, chunks, 1)

	for range 5 {
		a.Reset(a.FirstPos())
		require.Equal(t, 0, a.CurrentChunkIndex())
		workload()
	}
	require.Equal(t, chunks, a.ChunkCount())
	require.Equal(t, leases, src.Allocs, "no chunks leased after reset")
}

func Test_Arena_ResetAcrossChunks(t *testing.T) {
	a, err := NewWithSource(&goSource{}, 4096)
	require.NoError(t, err)

	_, err = a.Alloc(4000)
	require.NoError(t, err)
	mid := a.Pos()

	_, err = a.Alloc(4000) // second chunk
	require.NoError(t, err)
	require.Equal(t, 1, a.CurrentChunkIndex())

	a.Reset(mid)
	require.Equal(t, 0, a.CurrentChunkIndex())

	// Does not fit the rest of chunk 0; moves to retained chunk 1.
	_, err = a.Alloc(200)
	require.NoError(t, err)
	require.Equal(t, 1, a.CurrentChunkIndex())
	require.Equal(t, 2, a.ChunkCount())
}

func Test_Arena_Sizes(t *testing.T) {
	a, err := NewWithSource(&goSource{}, 4096)
	require.NoError(t, err)

	b, err := a.Alloc(0)
	require.NoError(t, err)
	require.Nil(t, b)

	_, err = a.Alloc(-1)
	require.ErrorIs(t, err, ErrBadSize)

	_, err = a.Alloc(int(^uint(0) >> 1))
	require.ErrorIs(t, err, ErrBadSize)
	require.Equal(t, 1, a.ChunkCount())
}

func Test_Arena_SourceFailure(t *testing.T) {
	src := &goSource{}
	a, err := NewWithSource(src, 4096)
	require.NoError(t, err)

	src.fail = true
	_, err = a.Alloc(8192)
	require.ErrorIs(t, err, ErrChunk)
	require.ErrorIs(t, err, errSourceDown)
	require.Equal(t, 1, a.ChunkCount(), "failed lease leaves the chain unchanged")
	require.Panics(t, func() { a.MustAlloc(8192) })

	_, err = NewWithSource(src, 4096)
	require.ErrorIs(t, err, ErrChunk)
}

func Test_Arena_MisalignedSource(t *testing.T) {
	src := &testutil.CountingSource{ChunkSource: &goSource{skew: 3}}
	a, err := NewWithSource(src, 4096)
	require.NoError(t, err)
	require.Equal(t, 2, src.Allocs, "re-leased with room to align")

	b, err := a.Alloc(4096)
	require.NoError(t, err)
	require.Zero(t, addr(b)%Alignment)
	require.Equal(t, 0, a.CurrentChunkIndex())
}

func Test_Arena_FreeReturnsChunks(t *testing.T) {
	bud, _ := newTestBuddy(t, 16)
	src := &testutil.CountingSource{ChunkSource: bud}
	blocks := bud.FreeBlocks()

	a, err := NewWithSource(src, 4096)
	require.NoError(t, err)
	_, err = a.Alloc(20000)
	require.NoError(t, err)

	require.NoError(t, a.Free())
	require.Equal(t, src.Allocs, src.Frees)
	require.True(t, a.Freed())
	require.Equal(t, blocks, bud.FreeBlocks(), "buddy state restored")

	require.Panics(t, func() { _, _ = a.Alloc(1) })
	require.Panics(t, func() { a.Pos() })
	require.Panics(t, func() { _ = a.Free() })
}

func Test_Arena_Metrics(t *testing.T) {
	a, err := NewWithSource(&goSource{}, 4096)
	require.NoError(t, err)

	m := a.Metrics()
	require.Zero(t, m.SizeInUse)
	require.Equal(t, 4096, m.Capacity)
	require.Equal(t, 1, m.Chunks)

	_, err = a.Alloc(1000) // 1008 aligned
	require.NoError(t, err)
	m = a.Metrics()
	require.Equal(t, 1008, m.SizeInUse)
	require.InDelta(t, 1008.0/4096.0, m.Utilization, 1e-9)

	_, err = a.Alloc(4000) // new chunk; tail of chunk 0 counts as used
	require.NoError(t, err)
	m = a.Metrics()
	require.Equal(t, 4096+4000, m.SizeInUse)
	require.Equal(t, 8192, m.Capacity)
	require.Equal(t, 2, m.Chunks)
}

// Test_Arena_EndToEnd runs a two-phase workload over a fresh 64 KiB heap:
// once to grow the arena, then again after a reset with no buddy traffic.
func Test_Arena_EndToEnd(t *testing.T) {
	bud, h := newTestBuddy(t, 64)
	require.Equal(t, heap.PageSize, h.Size())

	a, err := NewWithSource(bud, 4096)
	require.NoError(t, err)

	round := func() {
		ints, err := AllocSlice[int64](a, 100)
		require.NoError(t, err)
		for i := range ints {
			ints[i] = int64(i * i)
		}
		big, err := a.Alloc(70000)
		require.NoError(t, err)
		big[0], big[len(big)-1] = 1, 2
		require.Equal(t, int64(99*99), ints[99])
	}

	round()
	require.Equal(t, 2, a.ChunkCount())
	require.Equal(t, 4*heap.PageSize, h.Size())
	allocs := bud.Stats().AllocCalls

	a.Reset(a.FirstPos())
	round()
	require.Equal(t, allocs, bud.Stats().AllocCalls, "no buddy allocations after reset")
	require.Equal(t, 2, a.ChunkCount())
	require.Equal(t, 1, a.CurrentChunkIndex())
}
