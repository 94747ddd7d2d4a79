package arena

import "fmt"

// Pos is a saved allocation point. The zero Pos is not a valid position;
// resetting to it is a no-op.
type Pos struct {
	arena *Arena
	gen   uint64
	chunk int
	off   int
}

// IsZero reports whether p is the zero Pos.
func (p Pos) IsZero() bool { return p.arena == nil }

// Pos returns the current allocation point.
func (a *Arena) Pos() Pos {
	a.mustLive()
	return Pos{arena: a, gen: a.gen, chunk: a.cur, off: a.off}
}

// FirstPos returns the start of the first chunk. Resetting to it makes every
// chunk reusable.
func (a *Arena) FirstPos() Pos {
	a.mustLive()
	return Pos{arena: a, gen: a.gen}
}

// Reset rewinds the arena to p. Memory allocated after p was taken becomes
// reusable; chunks are kept. Resetting to the same position twice is the
// same as resetting once.
func (a *Arena) Reset(p Pos) {
	a.mustLive()
	if p.arena == nil {
		return
	}
	if debugChecks {
		a.checkPos(p)
	}
	a.cur = p.chunk
	a.off = p.off
}

func (a *Arena) checkPos(p Pos) {
	switch {
	case p.arena != a:
		panic("arena: reset to a position from another arena")
	case p.gen != a.gen:
		panic(fmt.Sprintf("arena: reset to a stale position (generation %d, arena at %d)", p.gen, a.gen))
	case p.chunk < 0 || p.chunk >= len(a.chunks):
		panic(fmt.Sprintf("arena: reset to unknown chunk %d of %d", p.chunk, len(a.chunks)))
	case p.off < 0 || p.off > len(a.chunks[p.chunk].mem):
		panic(fmt.Sprintf("arena: reset offset %d outside chunk %d", p.off, p.chunk))
	}
}
