//go:build linux && (amd64 || arm64)

package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// syscallMemory issues the mmap/mprotect/munmap system calls directly,
// without going through any library wrapper.
type syscallMemory struct {
	base uintptr
	size int
}

func init() {
	backends[BackendSyscall] = func() sysMemory { return &syscallMemory{} }
}

// NewSyscall returns a heap backed by raw mmap/mprotect system calls.
func NewSyscall(reserve int) (*Heap, error) {
	return New(Options{Backend: BackendSyscall, Reserve: reserve})
}

func (s *syscallMemory) reserve(size int) (uintptr, error) {
	addr, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		0,             // address hint
		uintptr(size), // length
		unix.PROT_NONE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE,
		^uintptr(0), // fd: -1
		0,           // offset
	)
	if errno != 0 {
		return 0, errno
	}
	s.base = addr
	s.size = size
	return addr, nil
}

func (s *syscallMemory) commit(off, n int) error {
	_, _, errno := unix.Syscall(
		unix.SYS_MPROTECT,
		s.base+uintptr(off),
		uintptr(n),
		unix.PROT_READ|unix.PROT_WRITE,
	)
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *syscallMemory) view(n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(s.base)), n)
}

func (s *syscallMemory) release() error {
	if s.base == 0 {
		return nil
	}
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, s.base, uintptr(s.size), 0)
	s.base = 0
	if errno != 0 {
		return errno
	}
	return nil
}
