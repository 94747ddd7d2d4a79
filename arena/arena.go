package arena

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/joshuapare/memkit/buddy"
	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// MinChunkSize is the smallest chunk an arena leases.
const MinChunkSize = format.MinChunkSize

// Alignment of every allocation.
const Alignment = format.Alignment

// Source provides chunks. *buddy.Allocator satisfies it.
type Source interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte) error
}

// chunk is one leased block. mem starts at the first aligned byte of raw
// and extends to raw's capacity.
type chunk struct {
	raw []byte
	mem []byte
}

// Arena is a chunked bump allocator.
type Arena struct {
	src       Source
	chunkSize int
	chunks    []chunk
	cur       int // index of the current chunk
	off       int // bump offset in the current chunk
	gen       uint64
}

// New creates an arena over the process-wide buddy allocator with a first
// chunk of at least initialSize bytes.
func New(initialSize int) (*Arena, error) {
	return NewWithSource(buddy.Default(), initialSize)
}

// NewWithSource creates an arena over src. Chunks are at least
// max(initialSize, MinChunkSize) bytes.
func NewWithSource(src Source, initialSize int) (*Arena, error) {
	if initialSize < MinChunkSize {
		initialSize = MinChunkSize
	}
	a := &Arena{src: src, chunkSize: initialSize, gen: 1}
	c, err := a.lease(initialSize)
	if err != nil {
		return nil, err
	}
	a.chunks = append(a.chunks, c)
	return a, nil
}

// lease obtains a chunk with at least size usable bytes.
func (a *Arena) lease(size int) (chunk, error) {
	c, err := a.leaseRaw(size, size)
	if err == nil && len(c.mem) < size && size <= math.MaxInt-Alignment {
		// Misaligned source memory; ask again with room to align.
		if err = a.src.Free(c.raw); err == nil {
			c, err = a.leaseRaw(size, size+Alignment-1)
		}
	}
	if err != nil {
		return chunk{}, err
	}
	if len(c.mem) < size {
		return chunk{}, fmt.Errorf("%w: source returned %d of %d bytes", ErrChunk, len(c.mem), size)
	}
	logger.Debug("arena chunk leased", "size", size, "usable", len(c.mem), "chunks", len(a.chunks)+1)
	return c, nil
}

func (a *Arena) leaseRaw(size, req int) (chunk, error) {
	raw, err := a.src.Alloc(req)
	if err != nil {
		return chunk{}, fmt.Errorf("%w: %d bytes: %w", ErrChunk, size, err)
	}
	full := raw[:cap(raw)]
	pad := 0
	if len(full) > 0 {
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(full)))
		pad = int((Alignment - addr%Alignment) % Alignment)
	}
	if pad > len(full) {
		pad = len(full)
	}
	return chunk{raw: raw, mem: full[pad:]}, nil
}

// Alloc returns n bytes of uninitialized, 16-byte aligned memory. The slice
// is valid until the arena is reset to a position before it or freed.
// A zero n returns nil.
func (a *Arena) Alloc(n int) ([]byte, error) {
	a.mustLive()
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	case n == 0:
		return nil, nil
	case n > math.MaxInt-Alignment:
		return nil, fmt.Errorf("%w: %d overflows", ErrBadSize, n)
	}
	need := format.Align16(n)

	for {
		mem := a.chunks[a.cur].mem
		if need <= len(mem)-a.off {
			b := mem[a.off : a.off+n : a.off+need]
			a.off += need
			return b, nil
		}
		if a.cur+1 >= len(a.chunks) {
			break
		}
		a.cur++
		a.off = 0
	}

	c, err := a.lease(max(a.chunkSize, need))
	if err != nil {
		return nil, err
	}
	a.chunks = append(a.chunks, c)
	a.cur = len(a.chunks) - 1
	a.off = need
	return c.mem[:n:need], nil
}

// MustAlloc is like Alloc but panics if the allocation fails.
func (a *Arena) MustAlloc(n int) []byte {
	b, err := a.Alloc(n)
	if err != nil {
		panic(err)
	}
	return b
}

// Free returns every chunk to the Source. The arena must not be used
// afterwards; doing so panics.
func (a *Arena) Free() error {
	a.mustLive()
	var errs []error
	for _, c := range a.chunks {
		if err := a.src.Free(c.raw); err != nil {
			errs = append(errs, err)
		}
	}
	logger.Debug("arena freed", "chunks", len(a.chunks))
	a.chunks = nil
	a.src = nil
	a.cur, a.off = 0, 0
	a.gen++
	return errors.Join(errs...)
}

// Freed reports whether Free has been called.
func (a *Arena) Freed() bool { return a.src == nil }

func (a *Arena) mustLive() {
	if a.src == nil {
		panic("arena: use after Free")
	}
}

// ChunkCount returns the number of chunks in the chain.
func (a *Arena) ChunkCount() int { return len(a.chunks) }

// CurrentChunkIndex returns the 0-based index of the current chunk.
func (a *Arena) CurrentChunkIndex() int { return a.cur }
