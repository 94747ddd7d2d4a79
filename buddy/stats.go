package buddy

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// allocatorStats tracks allocator activity for diagnostics.
type allocatorStats struct {
	AllocCalls     int64
	FreeCalls      int64
	GrowCalls      int64
	GrowBytes      int64
	Splits         int64
	Merges         int64
	BlockBytes     int64 // bytes of live blocks, headers included
	RequestedBytes int64 // bytes requested by live allocations
}

// Stats is a snapshot of allocator state.
type Stats struct {
	AllocCalls int64
	FreeCalls  int64
	GrowCalls  int64
	GrowBytes  int64
	Splits     int64
	Merges     int64

	// BytesInUse counts live blocks at their full block size.
	BytesInUse int64
	// RequestedInUse counts the sizes callers asked for.
	RequestedInUse int64

	HeapSize   int
	FreeBytes  int64
	FreeBlocks int
	// FreeByOrder maps an order to its free block count. Orders without
	// free blocks are omitted.
	FreeByOrder map[int]int
}

// Stats returns a snapshot of the allocator's counters and free lists.
func (a *Allocator) Stats() Stats {
	s := Stats{
		AllocCalls:     a.stats.AllocCalls,
		FreeCalls:      a.stats.FreeCalls,
		GrowCalls:      a.stats.GrowCalls,
		GrowBytes:      a.stats.GrowBytes,
		Splits:         a.stats.Splits,
		Merges:         a.stats.Merges,
		BytesInUse:     a.stats.BlockBytes,
		RequestedInUse: a.stats.RequestedBytes,
		HeapSize:       a.p.Size(),
		FreeBlocks:     a.free.len(),
		FreeByOrder:    make(map[int]int),
	}
	for order := a.minOrder; order <= a.maxOrder; order++ {
		if n := a.free.count(order); n > 0 {
			s.FreeByOrder[order] = n
			s.FreeBytes += int64(n) << order
		}
	}
	return s
}

// FreeBlocks returns every free block sorted by offset.
func (a *Allocator) FreeBlocks() []Block {
	return a.free.snapshot()
}

// PrintStats writes a human-readable summary of the allocator to w.
func (a *Allocator) PrintStats(w io.Writer) {
	s := a.Stats()
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "\n=== BUDDY ALLOCATOR STATISTICS ===\n")
	p.Fprintf(w, "Orders:             %d..%d (%d B..%d B)\n", a.minOrder, a.maxOrder, 1<<a.minOrder, int64(1)<<a.maxOrder)
	p.Fprintf(w, "Heap size:          %d bytes\n", s.HeapSize)
	p.Fprintf(w, "Alloc calls:        %d\n", s.AllocCalls)
	p.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	p.Fprintf(w, "Grow calls:         %d (%d bytes added)\n", s.GrowCalls, s.GrowBytes)
	p.Fprintf(w, "Splits:             %d\n", s.Splits)
	p.Fprintf(w, "Merges:             %d\n", s.Merges)
	p.Fprintf(w, "In use:             %d bytes (%d requested)\n", s.BytesInUse, s.RequestedInUse)
	p.Fprintf(w, "Free:               %d bytes in %d blocks\n", s.FreeBytes, s.FreeBlocks)

	if s.FreeBlocks > 0 {
		p.Fprintf(w, "\nFree blocks by order:\n")
		for order := a.minOrder; order <= a.maxOrder; order++ {
			if n := s.FreeByOrder[order]; n > 0 {
				p.Fprintf(w, "  order %2d (%d B): %d\n", order, int64(1)<<order, n)
			}
		}
	}
	if s.HeapSize > 0 {
		p.Fprintf(w, "\nUtilization:        %.1f%%\n", 100*float64(s.BytesInUse)/float64(s.HeapSize))
	}
	p.Fprintf(w, "==================================\n\n")
}
