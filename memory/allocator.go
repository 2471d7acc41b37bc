package memory

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

//go:generate mockgen -source allocator.go -destination ./mocks/allocator.go -package mocks

const (
	// MinAlignment is the alignment in bytes that every Allocator implementation must guarantee for
	// the blocks it returns. Consumers that need a stronger alignment must pad within the block.
	MinAlignment uint = 8
)

// ErrOutOfMemory is returned (possibly wrapped) when an Allocator cannot satisfy a request
var ErrOutOfMemory = errors.New("out of memory")

// ErrInvalidSize is returned (possibly wrapped) when an Allocator receives a size it cannot honor,
// such as a non-positive byte count, or an oldSize that does not match the block it describes
var ErrInvalidSize = errors.New("invalid allocation size")

// Allocator is the raw byte backend that compact containers draw their storage from. Implementations
// hand out untyped blocks of memory; they never see element types and never run per-element logic.
//
// Every method that produces a block reports failure with an explicit error rather than a nil pointer.
// Blocks are aligned to at least MinAlignment.
//
// Blocks must only ever hold pointer-free data: implementations are free to return memory the Go
// garbage collector does not scan.
type Allocator interface {
	// Allocate returns a block of at least size bytes. The contents of the block are unspecified.
	Allocate(size int) (unsafe.Pointer, error)
	// ZeroAllocate returns a block of at least size bytes with every byte set to zero.
	ZeroAllocate(size int) (unsafe.Pointer, error)
	// Reallocate resizes the block at ptr, which was most recently sized to oldSize bytes, to newSize
	// bytes. The first min(oldSize, newSize) bytes are preserved, and the block may move. A nil ptr
	// behaves like Allocate.
	//
	// If an error is returned, the block at ptr is still valid, still oldSize bytes, and unmodified.
	Reallocate(ptr unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error)
	// Free releases a block that was most recently sized to size bytes. Freeing a nil ptr does nothing.
	Free(ptr unsafe.Pointer, size int)
}

// DefaultAllocator is the Allocator used by containers that do not configure one. It draws from
// the Go heap.
//
// DefaultAllocator is safe to use from multiple goroutines.
var DefaultAllocator Allocator = NewHeapAllocator()

func checkSize(size int, operation string) error {
	if size <= 0 {
		return errors.Wrapf(ErrInvalidSize, "%s received %d bytes", operation, size)
	}
	return nil
}
