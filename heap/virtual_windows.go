//go:build windows

package heap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// virtualMemory reserves with VirtualAlloc(MEM_RESERVE) and commits page runs
// with VirtualAlloc(MEM_COMMIT).
type virtualMemory struct {
	base uintptr
}

func init() {
	backends[BackendVirtual] = func() sysMemory { return &virtualMemory{} }
}

// NewVirtual returns a heap backed by VirtualAlloc.
func NewVirtual(reserve int) (*Heap, error) {
	return New(Options{Backend: BackendVirtual, Reserve: reserve})
}

func (v *virtualMemory) reserve(size int) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, err
	}
	v.base = addr
	return addr, nil
}

func (v *virtualMemory) commit(off, n int) error {
	_, err := windows.VirtualAlloc(v.base+uintptr(off), uintptr(n), windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func (v *virtualMemory) view(n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v.base)), n)
}

func (v *virtualMemory) release() error {
	if v.base == 0 {
		return nil
	}
	err := windows.VirtualFree(v.base, 0, windows.MEM_RELEASE)
	v.base = 0
	return err
}
