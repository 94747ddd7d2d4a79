package arena

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
)

// Alloc returns a zeroed *T stored in the arena. T must not contain Go
// pointers and its alignment must not exceed 16.
func Alloc[T any](a *Arena) (*T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), nil
	}
	b, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}
	clear(b)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// AllocSlice returns n uninitialized elements of T stored in the arena.
// A zero n returns nil.
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	b, err := allocElems[T](a, n)
	if err != nil || b == nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// AllocSliceZeroed is like AllocSlice but zeroes the elements.
func AllocSliceZeroed[T any](a *Arena, n int) ([]T, error) {
	b, err := allocElems[T](a, n)
	if err != nil || b == nil {
		return nil, err
	}
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

func allocElems[T any](a *Arena, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d elements", ErrBadSize, n)
	}
	var zero T
	total, ok := buf.MulOverflowSafe(int(unsafe.Sizeof(zero)), n)
	if !ok {
		return nil, fmt.Errorf("%w: %d elements of %d bytes", ErrBadSize, n, unsafe.Sizeof(zero))
	}
	if total == 0 {
		return nil, nil
	}
	return a.Alloc(total)
}
