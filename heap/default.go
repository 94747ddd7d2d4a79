package heap

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joshuapare/memkit/internal/logger"
)

// ExitHeapInit is the process exit status used when the default heap cannot
// be initialized.
const ExitHeapInit = 3

// Environment variables read when the default heap is first created.
const (
	EnvBackend = "MEMKIT_HEAP_BACKEND"
	EnvReserve = "MEMKIT_HEAP_RESERVE"
)

var (
	defaultHeap *Heap

	// exit terminates the process; replaced in tests.
	exit = os.Exit
)

// Default returns the process-wide heap, initializing it on first use. If
// the heap cannot be reserved the process terminates with ExitHeapInit: no
// allocator can operate without an initial heap.
//
// Default is not safe for concurrent use.
func Default() *Heap {
	if defaultHeap != nil {
		return defaultHeap
	}

	h, err := New(optionsFromEnv())
	if err == nil {
		err = h.Init()
	}
	if err != nil {
		logger.Error("heap initialization failed", "error", err)
		fmt.Fprintf(os.Stderr, "memkit: heap initialization failed: %v\n", err)
		exit(ExitHeapInit)
		return nil
	}

	defaultHeap = h
	return h
}

// Base returns the base of the default heap, or 0 if it has not been
// initialized yet. It never triggers initialization.
func Base() uintptr {
	if defaultHeap == nil {
		return 0
	}
	return defaultHeap.Base()
}

// Size returns the committed size of the default heap, or 0 if it has not
// been initialized yet.
func Size() int {
	if defaultHeap == nil {
		return 0
	}
	return defaultHeap.Size()
}

// Grow grows the default heap, initializing it first if needed.
func Grow(n int) (uintptr, error) {
	return Default().Grow(n)
}

func optionsFromEnv() Options {
	opts := Options{Backend: os.Getenv(EnvBackend)}
	if v := os.Getenv(EnvReserve); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("ignoring invalid heap reserve", "env", EnvReserve, "value", v)
		} else {
			opts.Reserve = n
		}
	}
	return opts
}
