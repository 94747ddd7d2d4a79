package scratch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/arena"
	"github.com/joshuapare/memkit/buddy"
	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/testutil"
)

func newTestPool(t *testing.T) (*Pool, *buddy.Allocator) {
	t.Helper()
	b, err := buddy.New(testutil.GuestHeap(t, 16), nil)
	require.NoError(t, err)
	return NewPool(b, 0), b
}

func Test_Pool_LazyArenas(t *testing.T) {
	p, b := newTestPool(t)
	require.Nil(t, p.Arena(0))
	require.Nil(t, p.Arena(1))
	require.Zero(t, b.Stats().AllocCalls)

	s, err := p.Begin()
	require.NoError(t, err)
	require.Same(t, p.Arena(0), s.Arena)
	require.NotNil(t, p.Arena(1))
	require.Equal(t, int64(2), b.Stats().AllocCalls)
	require.Equal(t, arena.MinChunkSize, s.Arena.ChunkSize())
	p.End(s)
}

// Test_Scratch_BasicScope verifies End discards scope allocations only.
func Test_Scratch_BasicScope(t *testing.T) {
	p, _ := newTestPool(t)

	s, err := p.Begin()
	require.NoError(t, err)
	t1, err := s.Alloc(50)
	require.NoError(t, err)
	copy(t1, "temp1")
	_, err = s.Alloc(50)
	require.NoError(t, err)
	require.Equal(t, 128, s.Arena.Metrics().SizeInUse)
	p.End(s)

	require.Zero(t, s.Arena.Metrics().SizeInUse)
	again, err := s.Alloc(50)
	require.NoError(t, err)
	require.Equal(t, "temp1", string(again[:5]), "scope memory is reused after End")
}

// Test_Scratch_NestedAvoidConflict verifies the inner scope picks the other
// arena and leaves the outer scope's data intact.
func Test_Scratch_NestedAvoidConflict(t *testing.T) {
	p, _ := newTestPool(t)

	outer, err := p.Begin()
	require.NoError(t, err)

	inner, err := p.BeginAvoidConflict(outer.Arena)
	require.NoError(t, err)
	require.NotSame(t, outer.Arena, inner.Arena)

	result, err := outer.Alloc(50)
	require.NoError(t, err)
	copy(result, "ABC")
	innerTemp, err := inner.Alloc(50)
	require.NoError(t, err)
	copy(innerTemp, "Inner temp")
	p.End(inner)

	outerTemp, err := outer.Alloc(50)
	require.NoError(t, err)
	copy(outerTemp, "XXX")

	require.Equal(t, "ABC", string(result[:3]))
	require.Equal(t, "XXX", string(outerTemp[:3]))
	require.NotSame(t, &result[0], &outerTemp[0])
	p.End(outer)
}

// Test_Scratch_NestedWithoutConflictShares documents the hazard of plain
// Begin in a nested scope: both scopes share one arena, so ending the inner
// scope rewinds over the outer scope's allocation.
func Test_Scratch_NestedWithoutConflictShares(t *testing.T) {
	p, _ := newTestPool(t)

	outer, err := p.Begin()
	require.NoError(t, err)
	inner, err := p.Begin()
	require.NoError(t, err)
	require.Same(t, outer.Arena, inner.Arena)

	result, err := outer.Alloc(50)
	require.NoError(t, err)
	copy(result, "ABC")
	_, err = inner.Alloc(50)
	require.NoError(t, err)
	p.End(inner)

	outerTemp, err := outer.Alloc(50)
	require.NoError(t, err)
	copy(outerTemp, "XXX")

	require.Same(t, &result[0], &outerTemp[0])
	require.Equal(t, "XXX", string(result[:3]), "outer allocation was overwritten")
	p.End(outer)
}

func Test_Scratch_ConflictWithSecondArena(t *testing.T) {
	p, _ := newTestPool(t)
	_, err := p.Begin()
	require.NoError(t, err)

	s, err := p.BeginAvoidConflict(p.Arena(1))
	require.NoError(t, err)
	require.Same(t, p.Arena(0), s.Arena)

	s, err = p.BeginAvoidConflict(nil)
	require.NoError(t, err)
	require.Same(t, p.Arena(0), s.Arena)
}

// Test_Scratch_SequentialScopes verifies repeated scopes reuse the arena
// without leasing chunks.
func Test_Scratch_SequentialScopes(t *testing.T) {
	p, b := newTestPool(t)

	for i := range 10 {
		s, err := p.Begin()
		require.NoError(t, err)
		buf, err := s.Alloc(100)
		require.NoError(t, err)
		buf[0] = byte(i)
		_, err = s.Alloc(9000) // spills into a second chunk
		require.NoError(t, err)
		p.End(s)
	}
	require.Equal(t, int64(3), b.Stats().AllocCalls, "two pool arenas plus one spill chunk")
	require.Equal(t, 2, p.Arena(0).ChunkCount())
}

func Test_Scratch_ZeroEnd(t *testing.T) {
	require.NotPanics(t, func() { End(Scratch{}) })
}

type failingSource struct{}

var errNoChunks = errors.New("no chunks")

func (failingSource) Alloc(int) ([]byte, error) { return nil, errNoChunks }
func (failingSource) Free([]byte) error        { return nil }

func Test_Pool_SourceFailure(t *testing.T) {
	p := NewPool(failingSource{}, 0)
	_, err := p.Begin()
	require.ErrorIs(t, err, arena.ErrChunk)
	require.ErrorIs(t, err, errNoChunks)
	require.Nil(t, p.Arena(0))
}

func Test_Default_Pool(t *testing.T) {
	t.Setenv(heap.EnvBackend, heap.BackendGuest)
	t.Setenv(heap.EnvReserve, "4194304")

	s, err := Begin()
	require.NoError(t, err)
	require.Same(t, Default(), defaultPool)
	b, err := s.Alloc(10)
	require.NoError(t, err)
	require.Len(t, b, 10)

	inner, err := BeginAvoidConflict(s.Arena)
	require.NoError(t, err)
	require.NotSame(t, s.Arena, inner.Arena)
	End(inner)
	End(s)
}
