package compact

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfRange is matched by every failed bounds check
	ErrOutOfRange = errors.New("index out of range")
	// ErrNegativeIndex is returned (wrapped) by checked accessors that receive an index below zero
	ErrNegativeIndex = errors.Wrap(ErrOutOfRange, "negative index")
	// ErrIndexTooLarge is returned (wrapped) by checked accessors that receive an index at or beyond Size
	ErrIndexTooLarge = errors.Wrap(ErrOutOfRange, "index too large")

	// ErrCapacityExceeded is returned when an operation would need more element slots than the
	// vector's configured maximum capacity, or more bytes than a single allocation can address
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidSize is returned when a negative size or capacity is requested
	ErrInvalidSize = errors.New("invalid size")
)
