package heap

import "errors"

var (
	// ErrReserve indicates the address range could not be reserved.
	ErrReserve = errors.New("heap: reserve failed")

	// ErrExhausted indicates the reservation has no room for the requested pages.
	ErrExhausted = errors.New("heap: reservation exhausted")

	// ErrCommit indicates the OS refused to commit more pages.
	ErrCommit = errors.New("heap: commit failed")

	// ErrUnsupported indicates the requested backend is not available on this platform.
	ErrUnsupported = errors.New("heap: backend not supported on this platform")

	// ErrBadSize indicates a negative byte count.
	ErrBadSize = errors.New("heap: negative size")
)
