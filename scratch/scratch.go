package scratch

import "github.com/joshuapare/memkit/arena"

// Scratch is an open scope on a pool arena.
type Scratch struct {
	Arena *arena.Arena
	pos   arena.Pos
}

// Alloc allocates n bytes in the scope's arena.
func (s Scratch) Alloc(n int) ([]byte, error) {
	return s.Arena.Alloc(n)
}

// End rewinds the scope's arena to where the scope began. Ending the zero
// Scratch is a no-op.
func (s Scratch) End() {
	if s.Arena == nil {
		return
	}
	s.Arena.Reset(s.pos)
}
