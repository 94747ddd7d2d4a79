// Package format holds the layout constants shared by the allocator layers:
// page and alignment granularity and the in-band block header that the buddy
// allocator writes in front of every allocation.
package format

const (
	// PageSize is the unit of heap commitment (64 KiB). It matches the
	// WebAssembly page size and is used on native targets too so that chunk
	// math is identical everywhere.
	PageSize = 64 << 10

	// PageShift is log2(PageSize).
	PageShift = 16

	// PageMask masks the offset within a page.
	PageMask = PageSize - 1

	// Alignment is the alignment of every pointer handed out by the buddy
	// allocator and the arena.
	Alignment = 16

	// AlignmentMask masks the misaligned low bits.
	AlignmentMask = Alignment - 1

	// MinChunkSize is the smallest arena chunk requested from the buddy layer.
	MinChunkSize = 4096
)

// Block header layout. Every allocated buddy block starts with a 16-byte
// little-endian header; the caller's bytes follow it.
//
//	0x00  u32  magic (BlockMagic while allocated, zero once freed)
//	0x04  u8   order (log2 of the block size)
//	0x05  [3]  reserved
//	0x08  u64  requested size in bytes
const (
	HeaderSize        = 16
	HeaderMagicOffset = 0x00
	HeaderOrderOffset = 0x04
	HeaderSizeOffset  = 0x08
)

// BlockMagic tags a live allocation ("BUDY" read little-endian).
const BlockMagic uint32 = 0x59445542
