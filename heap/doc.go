// Package heap provides the page-granular heap that the rest of memkit is
// built on.
//
// # Overview
//
// A Heap reserves one large virtual address range on first use and then
// commits it in PageSize (64 KiB) steps. Memory is never moved: every byte
// committed stays at the same address for the lifetime of the heap, which is
// what lets the buddy allocator and arenas hand out long-lived slices.
//
//	h, err := heap.New(heap.Options{Backend: heap.BackendNative})
//	if err != nil {
//	    return err
//	}
//	if err := h.Init(); err != nil {  // reserve + commit the first page
//	    return err
//	}
//	top, err := h.Grow(3 * heap.PageSize) // top == h.Base() + previous Size()
//
// # Backends
//
// All backends share one contract (Provider) and differ only in the primitive
// used to reserve and commit:
//
//	guest    WebAssembly linear memory hosted by wazero; growth is memory.grow
//	syscall  raw mmap/mprotect system calls (linux/amd64, linux/arm64)
//	mapped   libc/libSystem mmap/mprotect wrappers (darwin, BSDs, linux)
//	virtual  VirtualAlloc MEM_RESERVE then MEM_COMMIT (windows)
//
// BackendNative picks the platform's native backend at compile time and falls
// back to the guest backend where there is none.
//
// # Failure Semantics
//
// A failed Grow reports ErrExhausted or ErrCommit and leaves the committed
// region untouched; it is never retried with a smaller size. Failure to
// initialize the process-wide Default heap is fatal: the process exits with
// status ExitHeapInit.
//
// # Thread Safety
//
// Heaps are not safe for concurrent use. The process-wide default heap is
// initialized on first use and must only be touched from one goroutine at a
// time.
package heap
