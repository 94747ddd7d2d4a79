package buddy

import "errors"

var (
	// ErrTooLarge indicates the request exceeds the largest block order.
	ErrTooLarge = errors.New("buddy: request larger than max order")

	// ErrNoSpace indicates no free block fit and growing the heap failed.
	ErrNoSpace = errors.New("buddy: no free block and heap growth failed")

	// ErrBadRef indicates a slice that was not returned by Alloc, or was
	// already freed.
	ErrBadRef = errors.New("buddy: bad block reference")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("buddy: negative size")

	// ErrConfig indicates an unusable Config.
	ErrConfig = errors.New("buddy: invalid config")
)
