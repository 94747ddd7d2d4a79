package arena

// Metrics contains statistical information about an arena.
type Metrics struct {
	SizeInUse   int     // bytes handed out, alignment padding included
	Capacity    int     // usable bytes across all chunks
	Chunks      int     // chunks in the chain
	ChunkSize   int     // default chunk size
	Utilization float64 // SizeInUse / Capacity
}

// SizeInUse returns the bytes between the first position and the current
// position, counting skipped chunk tails as used.
func (a *Arena) SizeInUse() int {
	if len(a.chunks) == 0 {
		return 0
	}
	sum := a.off
	for i := range a.cur {
		sum += len(a.chunks[i].mem)
	}
	return sum
}

// Capacity returns the usable bytes of every chunk in the chain.
func (a *Arena) Capacity() int {
	sum := 0
	for _, c := range a.chunks {
		sum += len(c.mem)
	}
	return sum
}

// ChunkSize returns the default size of newly leased chunks.
func (a *Arena) ChunkSize() int { return a.chunkSize }

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	m := Metrics{
		SizeInUse: a.SizeInUse(),
		Capacity:  a.Capacity(),
		Chunks:    a.ChunkCount(),
		ChunkSize: a.chunkSize,
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.SizeInUse) / float64(m.Capacity)
	}
	return m
}
