// Package testutil holds helpers shared by the allocator tests.
package testutil

import (
	"testing"

	"github.com/joshuapare/memkit/heap"
)

// GuestHeap creates an initialized guest heap reserving the given number of
// pages. The heap is closed when the test ends. The guest backend builds on
// every platform and keeps reservations small.
//
// Example:
//
//	h := testutil.GuestHeap(t, 16)
//	a, err := buddy.New(h, nil)
func GuestHeap(t testing.TB, pages int) *heap.Heap {
	t.Helper()
	h, err := heap.NewGuest(pages * heap.PageSize)
	if err != nil {
		t.Fatalf("Failed to create guest heap: %v", err)
	}
	if err := h.Init(); err != nil {
		t.Fatalf("Failed to initialize guest heap: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// ChunkSource is the chunk provider contract shared by arenas and pools.
type ChunkSource interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte) error
}

// CountingSource wraps a ChunkSource and counts calls.
type CountingSource struct {
	ChunkSource
	Allocs int
	Frees  int
}

// Alloc forwards to the wrapped source.
func (c *CountingSource) Alloc(size int) ([]byte, error) {
	c.Allocs++
	return c.ChunkSource.Alloc(size)
}

// Free forwards to the wrapped source.
func (c *CountingSource) Free(b []byte) error {
	c.Frees++
	return c.ChunkSource.Free(b)
}
