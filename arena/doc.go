// Package arena implements a chunked bump allocator over a chunk Source,
// normally the buddy allocator.
//
// # Overview
//
// An Arena hands out 16-byte aligned slices by bumping an offset inside its
// current chunk. When the chunk is full it moves to the next chunk retained
// from earlier use, or leases a new chunk from its Source and links it after
// the current one. Chunks are never resized and never returned until Free.
//
//	a, err := arena.New(4096)
//	if err != nil {
//	    return err
//	}
//	start := a.Pos()
//	buf, err := a.Alloc(256)
//	...
//	a.Reset(start) // buf is invalid; its memory is reused by the next Alloc
//
// # Positions
//
// Pos captures the allocation point; Reset rewinds to it without releasing
// chunks, so a loop that resets to FirstPos stops leasing chunks once the
// arena has grown to its working-set size. Positions carry the arena and its
// generation. Building with the memkit_debug tag makes Reset panic on a
// position from another arena, a freed arena, or an unknown chunk; release
// builds skip the checks.
//
// # Memory
//
// Alloc returns uninitialized memory. The generic helpers Alloc, AllocSlice
// and AllocSliceZeroed place typed values in arena memory; T must not contain
// Go pointers, since the garbage collector does not scan arena chunks.
//
// # Thread Safety
//
// Arenas are not safe for concurrent use.
package arena
