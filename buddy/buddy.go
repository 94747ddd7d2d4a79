package buddy

import (
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// HeaderSize is the in-band header in front of every allocated payload.
const HeaderSize = format.HeaderSize

// reservation is implemented by providers that know their reservation size.
type reservation interface {
	Reserved() int
}

// Allocator is a buddy allocator over a heap.Provider.
type Allocator struct {
	p        heap.Provider
	minOrder int
	maxOrder int

	// managed is the byte count, from the heap base, folded into the
	// free lists. Offsets at or above it are not owned yet.
	managed int

	free  freeLists
	stats allocatorStats
}

// New creates an allocator over p and folds p's committed pages into the
// free lists. A nil cfg means DefaultConfig. An uninitialized provider is
// initialized with p.Grow(0).
func New(p heap.Provider, cfg *Config) (*Allocator, error) {
	if cfg == nil {
		cfg = DefaultConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if p.Base() == 0 {
		if _, err := p.Grow(0); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoSpace, err)
		}
	}

	maxOrder := cfg.MaxOrder
	if r, ok := p.(reservation); ok && r.Reserved() > 0 {
		if top := bits.Len(uint(r.Reserved())) - 1; top < maxOrder {
			maxOrder = top
		}
	}
	if maxOrder < cfg.MinOrder {
		return nil, fmt.Errorf("%w: reservation smaller than min order %d", ErrConfig, cfg.MinOrder)
	}

	a := &Allocator{
		p:        p,
		minOrder: cfg.MinOrder,
		maxOrder: maxOrder,
		free:     newFreeLists(maxOrder),
	}
	a.sync()
	return a, nil
}

// MinOrder returns the smallest block order.
func (a *Allocator) MinOrder() int { return a.minOrder }

// MaxOrder returns the largest block order after clamping.
func (a *Allocator) MaxOrder() int { return a.maxOrder }

// Provider returns the heap the allocator grows.
func (a *Allocator) Provider() heap.Provider { return a.p }

// orderFor returns the order of the smallest block holding size payload bytes.
func (a *Allocator) orderFor(size int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size > (1<<a.maxOrder)-HeaderSize {
		return 0, fmt.Errorf("%w: %d bytes, max order %d", ErrTooLarge, size, a.maxOrder)
	}
	order := format.CeilLog2(size + HeaderSize)
	if order < a.minOrder {
		order = a.minOrder
	}
	return order, nil
}

// Alloc returns a slice of len size carved from a block of the smallest
// sufficient order. cap of the slice is the block's usable size. A zero size
// allocates a minimum-order block.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	order, err := a.orderFor(size)
	if err != nil {
		return nil, err
	}
	a.stats.AllocCalls++

	off, ok := a.take(order)
	if !ok {
		if err := a.grow(order); err != nil {
			logger.Warn("buddy alloc failed", "size", size, "order", order, "error", err)
			return nil, err
		}
		if off, ok = a.take(order); !ok {
			return nil, fmt.Errorf("%w: order %d after growth", ErrNoSpace, order)
		}
	}

	mem := a.p.Bytes()
	hdr := mem[off : off+HeaderSize]
	buf.PutU32LE(hdr[format.HeaderMagicOffset:], format.BlockMagic)
	hdr[format.HeaderOrderOffset] = byte(order)
	buf.PutU64LE(hdr[format.HeaderSizeOffset:], uint64(size))

	a.stats.BlockBytes += int64(1) << order
	a.stats.RequestedBytes += int64(size)

	payload := off + HeaderSize
	return mem[payload : payload+size : off+(1<<order)], nil
}

// Free returns b's block to the allocator and merges it with free buddies.
// b must be a slice returned by Alloc (any reslice keeping its first byte
// works). Detectable misuse, including a double free, reports ErrBadRef.
func (a *Allocator) Free(b []byte) error {
	off, order, err := a.locate(b)
	if err != nil {
		return err
	}
	mem := a.p.Bytes()
	size := buf.U64LE(mem[off+format.HeaderSizeOffset:])
	buf.PutU32LE(mem[off+format.HeaderMagicOffset:], 0)

	a.stats.FreeCalls++
	a.stats.BlockBytes -= int64(1) << order
	a.stats.RequestedBytes -= int64(size)

	a.release(off, order)
	return nil
}

// UsableSize returns the payload capacity of b's block, or 0 if b is not a
// live allocation.
func (a *Allocator) UsableSize(b []byte) int {
	_, order, err := a.locate(b)
	if err != nil {
		return 0
	}
	return (1 << order) - HeaderSize
}

// locate validates b and returns its block offset and order.
func (a *Allocator) locate(b []byte) (int, int, error) {
	if cap(b) == 0 {
		return 0, 0, fmt.Errorf("%w: empty slice", ErrBadRef)
	}
	mem := a.p.Bytes()
	if len(mem) == 0 {
		return 0, 0, fmt.Errorf("%w: heap not initialized", ErrBadRef)
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if ptr < base+HeaderSize || ptr >= base+uintptr(a.managed) {
		return 0, 0, fmt.Errorf("%w: %#x outside heap", ErrBadRef, ptr)
	}
	off := int(ptr-base) - HeaderSize
	if off&((1<<a.minOrder)-1) != 0 {
		return 0, 0, fmt.Errorf("%w: offset %#x misaligned", ErrBadRef, off)
	}
	if _, free := a.free.lookup(off); free {
		return 0, 0, fmt.Errorf("%w: offset %#x already free", ErrBadRef, off)
	}
	if buf.U32LE(mem[off+format.HeaderMagicOffset:]) != format.BlockMagic {
		return 0, 0, fmt.Errorf("%w: offset %#x has no block header", ErrBadRef, off)
	}
	order := int(mem[off+format.HeaderOrderOffset])
	if order < a.minOrder || order > a.maxOrder || off&((1<<order)-1) != 0 || off+(1<<order) > a.managed {
		return 0, 0, fmt.Errorf("%w: offset %#x has corrupt order %d", ErrBadRef, off, order)
	}
	return off, order, nil
}

// take pops a block of exactly order, splitting a larger one if needed.
func (a *Allocator) take(order int) (int, bool) {
	for o := order; o <= a.maxOrder; o++ {
		off, ok := a.free.pop(o)
		if !ok {
			continue
		}
		for o > order {
			o--
			a.free.push(off+(1<<o), o)
			a.stats.Splits++
		}
		return off, true
	}
	return 0, false
}

// release inserts a free block, merging with its buddy while possible.
func (a *Allocator) release(off, order int) {
	for order < a.maxOrder {
		size := 1 << order
		buddy := off ^ size
		if buddy+size > a.managed {
			break
		}
		if o, ok := a.free.lookup(buddy); !ok || o != order {
			break
		}
		a.free.remove(buddy)
		a.stats.Merges++
		if buddy < off {
			off = buddy
		}
		order++
	}
	a.free.push(off, order)
}

// sync folds committed pages above the managed range into the free lists,
// carving them into the largest aligned blocks.
func (a *Allocator) sync() {
	end := a.p.Size()
	for start := a.managed; start+(1<<a.minOrder) <= end; {
		order := a.minOrder
		for order < a.maxOrder {
			next := 1 << (order + 1)
			if start&(next-1) != 0 || start+next > end {
				break
			}
			order++
		}
		a.managed = start + (1 << order)
		a.release(start, order)
		start = a.managed
	}
	a.managed = end
}

// growTarget returns the heap size at which a free block of the given order
// becomes available. A run of free blocks at the top of the managed range
// counts towards the block.
func (a *Allocator) growTarget(order int) int {
	size := 1 << order
	start := a.managed &^ (size - 1)
	for off := start; off < a.managed; {
		o, ok := a.free.lookup(off)
		if !ok {
			start = format.AlignUp(a.managed, size)
			break
		}
		off += 1 << o
	}
	return start + size
}

// grow extends the provider so a block of order can be carved, then folds
// the new pages in.
func (a *Allocator) grow(order int) error {
	target := a.growTarget(order)
	need := target - a.p.Size()
	if need <= 0 {
		a.sync()
		return nil
	}

	if _, err := a.p.Grow(need); err != nil {
		return fmt.Errorf("%w: %d bytes for order %d: %w", ErrNoSpace, need, order, err)
	}
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(need)

	a.sync()
	logger.Debug("buddy grew heap", "order", order, "bytes", need, "heap", a.p.Size())
	return nil
}
