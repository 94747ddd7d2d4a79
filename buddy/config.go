package buddy

import (
	"fmt"
	"math/bits"

	"github.com/joshuapare/memkit/internal/format"
)

// Config bounds the block orders an Allocator manages. Orders are log2 of the
// block size in bytes.
type Config struct {
	// MinOrder is the smallest block order. 1<<MinOrder must exceed the
	// block header and must not exceed the heap page size.
	MinOrder int

	// MaxOrder is the largest block order. It is clamped to the provider's
	// reservation when the provider reports one.
	MaxOrder int
}

// Predefined configs.
var (
	// DefaultConfig manages 64 B to 4 GiB blocks.
	DefaultConfig = &Config{MinOrder: 6, MaxOrder: 32}

	// ConfigPage manages 4 KiB to 4 GiB blocks. Fewer, larger blocks suit
	// callers that only lease arena chunks.
	ConfigPage = &Config{MinOrder: 12, MaxOrder: 32}
)

// minOrderFloor is the smallest order whose block holds a header plus a
// 16-byte payload.
const minOrderFloor = 5

// maxOrderCeil keeps block sizes and offsets representable in an int.
const maxOrderCeil = bits.UintSize - 2

func (c *Config) validate() error {
	switch {
	case c.MinOrder < minOrderFloor:
		return fmt.Errorf("%w: min order %d below %d", ErrConfig, c.MinOrder, minOrderFloor)
	case c.MinOrder > format.PageShift:
		return fmt.Errorf("%w: min order %d above page order %d", ErrConfig, c.MinOrder, format.PageShift)
	case c.MaxOrder < c.MinOrder:
		return fmt.Errorf("%w: max order %d below min order %d", ErrConfig, c.MaxOrder, c.MinOrder)
	case c.MaxOrder > maxOrderCeil:
		return fmt.Errorf("%w: max order %d above %d", ErrConfig, c.MaxOrder, maxOrderCeil)
	}
	return nil
}
