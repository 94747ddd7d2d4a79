// Package scratch provides short-lived temporary memory from a pool of two
// shared arenas.
//
// A scratch scope borrows one pool arena, rewinds it, and hands back a
// Scratch; End rewinds the arena again, discarding everything allocated in
// the scope:
//
//	s, err := scratch.Begin()
//	if err != nil {
//	    return err
//	}
//	defer scratch.End(s)
//	tmp, err := s.Alloc(512)
//
// A function that receives an arena from its caller and needs scratch space
// of its own should pass that arena to BeginAvoidConflict, which then picks
// the other pool arena. Plain Begin always picks the first arena, so a nested
// Begin rewinds memory the outer scope is still using.
//
// Only one level of conflicting nesting is supported: with two pool arenas,
// three scopes that all need to be distinct cannot be satisfied.
//
// Pools are not safe for concurrent use.
package scratch
