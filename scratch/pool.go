package scratch

import (
	"github.com/joshuapare/memkit/arena"
	"github.com/joshuapare/memkit/buddy"
	"github.com/joshuapare/memkit/internal/logger"
)

// DefaultSize is the first chunk size of each pool arena.
const DefaultSize = 1024

// poolArenas is the number of arenas in a pool.
const poolArenas = 2

// Pool holds the scratch arenas. They are created on the first Begin.
type Pool struct {
	src    arena.Source
	size   int
	arenas [poolArenas]*arena.Arena
}

// NewPool creates a pool whose arenas lease chunks from src. A size of 0
// means DefaultSize.
func NewPool(src arena.Source, size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{src: src, size: size}
}

func (p *Pool) init() error {
	for i := range p.arenas {
		if p.arenas[i] != nil {
			continue
		}
		a, err := arena.NewWithSource(p.src, p.size)
		if err != nil {
			return err
		}
		p.arenas[i] = a
		logger.Debug("scratch arena created", "index", i, "size", p.size)
	}
	return nil
}

// Arena returns pool arena i, or nil before the first Begin.
func (p *Pool) Arena(i int) *arena.Arena {
	return p.arenas[i]
}

// Begin starts a scope on the first pool arena.
func (p *Pool) Begin() (Scratch, error) {
	return p.BeginAvoidConflict(nil)
}

// BeginAvoidConflict starts a scope on a pool arena other than conflict.
// The chosen arena is rewound to its first position.
func (p *Pool) BeginAvoidConflict(conflict *arena.Arena) (Scratch, error) {
	if err := p.init(); err != nil {
		return Scratch{}, err
	}
	a := p.arenas[0]
	if a == conflict {
		a = p.arenas[1]
	}
	a.Reset(a.FirstPos())
	return Scratch{Arena: a, pos: a.Pos()}, nil
}

// End closes the scope, rewinding its arena to where the scope began.
func (p *Pool) End(s Scratch) {
	s.End()
}

var defaultPool *Pool

// Default returns the process-wide pool over the process-wide buddy
// allocator.
func Default() *Pool {
	if defaultPool == nil {
		defaultPool = NewPool(buddy.Default(), DefaultSize)
	}
	return defaultPool
}

// Begin starts a scope on the default pool.
func Begin() (Scratch, error) {
	return Default().Begin()
}

// BeginAvoidConflict starts a scope on the default pool that does not use
// conflict.
func BeginAvoidConflict(conflict *arena.Arena) (Scratch, error) {
	return Default().BeginAvoidConflict(conflict)
}

// End closes a scope started on any pool.
func End(s Scratch) {
	s.End()
}
