package buddy

import (
	"os"

	"github.com/joshuapare/memkit/heap"
)

var global *Allocator

// Init creates the process-wide allocator over heap.Default. It is
// idempotent. Heap initialization failure terminates the process.
func Init() {
	if global != nil {
		return
	}
	a, err := New(heap.Default(), nil)
	if err != nil {
		panic(err) // unreachable with DefaultConfig over an initialized heap

	}
	global = a
}

// Default returns the process-wide allocator, initializing it on first use.
func Default() *Allocator {
	Init()
	return global
}

// Alloc allocates from the process-wide allocator.
func Alloc(size int) ([]byte, error) {
	return Default().Alloc(size)
}

// Free returns b to the process-wide allocator.
func Free(b []byte) error {
	return Default().Free(b)
}

// PrintStats writes the process-wide allocator's statistics to stderr.
func PrintStats() {
	Default().PrintStats(os.Stderr)
}
