//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mappedMemory reserves with an inaccessible anonymous mapping and commits by
// changing page protection, through the OS library wrappers.
type mappedMemory struct {
	mem []byte
}

func init() {
	backends[BackendMapped] = func() sysMemory { return &mappedMemory{} }
}

// NewMapped returns a heap backed by mmap/mprotect library calls.
func NewMapped(reserve int) (*Heap, error) {
	return New(Options{Backend: BackendMapped, Reserve: reserve})
}

func (m *mappedMemory) reserve(size int) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, err
	}
	m.mem = b
	return uintptr(unsafe.Pointer(unsafe.SliceData(b))), nil
}

func (m *mappedMemory) commit(off, n int) error {
	return unix.Mprotect(m.mem[off:off+n], unix.PROT_READ|unix.PROT_WRITE)
}

func (m *mappedMemory) view(n int) []byte {
	return m.mem[:n:n]
}

func (m *mappedMemory) release() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	return err
}
