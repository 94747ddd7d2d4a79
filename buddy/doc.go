// Package buddy implements a power-of-two buddy allocator over a heap.Provider.
//
// # Overview
//
// Every block is 1<<order bytes and aligned to its own size relative to the
// heap base. Splitting a block of order k yields two buddies of order k-1;
// freeing a block merges it with its buddy (offset XOR block size) for as
// long as the buddy is free at the same order.
//
//	a, err := buddy.New(h, nil) // nil config: buddy.DefaultConfig
//	b, err := a.Alloc(100)      // len(b) == 100, cap(b) == 128-16
//	err = a.Free(b)
//
// # Block Layout
//
// An allocated block starts with a 16-byte header; callers receive the bytes
// after it:
//
//	0x00  uint32  magic ("BUDY", little-endian)
//	0x04  uint8   order
//	0x05  -       reserved
//	0x08  uint64  requested size
//	0x10  ...     payload
//
// Free blocks carry nothing in-band. They live in index-based side tables
// (per-order offset stacks plus an offset to slot map), so a stray write into
// freed memory cannot corrupt the free lists.
//
// # Growth
//
// When no free block can satisfy a request the allocator grows the provider
// by just enough pages for an aligned block of the required order to exist,
// folds the new pages into the free lists (coalescing with free blocks at the
// old top), and retries once. The allocator assumes it owns every page of
// its provider.
//
// # Thread Safety
//
// Allocators are not safe for concurrent use. The package-level functions
// operate on a process-wide allocator over heap.Default.
package buddy
