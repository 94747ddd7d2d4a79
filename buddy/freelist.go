package buddy

import "sort"

// freeSlot locates a free block in its order's stack.
type freeSlot struct {
	order uint8
	idx   int
}

// freeLists tracks free blocks by order. Offsets are relative to the heap
// base. Push, pop and remove are O(1); remove swaps the last element into the
// vacated slot.
type freeLists struct {
	stacks [][]int
	slots  map[int]freeSlot
}

func newFreeLists(maxOrder int) freeLists {
	return freeLists{
		stacks: make([][]int, maxOrder+1),
		slots:  make(map[int]freeSlot),
	}
}

func (fl *freeLists) push(off, order int) {
	fl.slots[off] = freeSlot{order: uint8(order), idx: len(fl.stacks[order])}
	fl.stacks[order] = append(fl.stacks[order], off)
}

// pop removes and returns the most recently freed block of the given order.
func (fl *freeLists) pop(order int) (int, bool) {
	s := fl.stacks[order]
	if len(s) == 0 {
		return 0, false
	}
	off := s[len(s)-1]
	fl.stacks[order] = s[:len(s)-1]
	delete(fl.slots, off)
	return off, true
}

// lookup reports the order of the free block starting at off.
func (fl *freeLists) lookup(off int) (int, bool) {
	slot, ok := fl.slots[off]
	return int(slot.order), ok
}

func (fl *freeLists) remove(off int) {
	slot, ok := fl.slots[off]
	if !ok {
		return
	}
	s := fl.stacks[slot.order]
	last := len(s) - 1
	if slot.idx != last {
		moved := s[last]
		s[slot.idx] = moved
		fl.slots[moved] = freeSlot{order: slot.order, idx: slot.idx}
	}
	fl.stacks[slot.order] = s[:last]
	delete(fl.slots, off)
}

func (fl *freeLists) count(order int) int {
	return len(fl.stacks[order])
}

func (fl *freeLists) len() int {
	return len(fl.slots)
}

// Block describes one free block.
type Block struct {
	Offset int // relative to the heap base
	Order  int
}

// Size returns the block size in bytes.
func (b Block) Size() int { return 1 << b.Order }

func (fl *freeLists) snapshot() []Block {
	out := make([]Block, 0, len(fl.slots))
	for off, slot := range fl.slots {
		out = append(out, Block{Offset: off, Order: int(slot.order)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
