package arena

import "errors"

var (
	// ErrChunk indicates the Source could not provide a new chunk.
	ErrChunk = errors.New("arena: chunk allocation failed")

	// ErrBadSize indicates a negative or overflowing allocation size.
	ErrBadSize = errors.New("arena: bad allocation size")
)
