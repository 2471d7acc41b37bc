package memory

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
)

const wordSize = int(unsafe.Sizeof(uint64(0)))

// HeapAllocator is an Allocator that carves its blocks out of the Go heap. Blocks are backed by
// []uint64 so they are always 8-byte aligned, and they are reclaimed by the garbage collector
// once nothing points into them, so Free is advisory.
//
// HeapAllocator has no state and is safe to use from multiple goroutines.
type HeapAllocator struct{}

var _ Allocator = (*HeapAllocator)(nil)

func NewHeapAllocator() *HeapAllocator { return &HeapAllocator{} }

func (a *HeapAllocator) Allocate(size int) (unsafe.Pointer, error) {
	return a.ZeroAllocate(size)
}

// ZeroAllocate is identical to Allocate: the Go heap only ever hands out zeroed memory.
func (a *HeapAllocator) ZeroAllocate(size int) (ptr unsafe.Pointer, err error) {
	err = checkSize(size, "HeapAllocator::ZeroAllocate")
	if err != nil {
		return nil, err
	}

	words := size / wordSize
	if size%wordSize != 0 {
		words++
	}

	defer func() {
		// make panics instead of failing when the length exceeds what the runtime can address
		if r := recover(); r != nil {
			ptr = nil
			err = errors.Wrapf(ErrOutOfMemory, "HeapAllocator could not allocate %d bytes: %s", size, fmt.Sprint(r))
		}
	}()

	buf := make([]uint64, words)
	return unsafe.Pointer(unsafe.SliceData(buf)), nil
}

func (a *HeapAllocator) Reallocate(ptr unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.Allocate(newSize)
	}

	err := checkSize(newSize, "HeapAllocator::Reallocate")
	if err != nil {
		return nil, err
	}

	// shrinking in place is free, the tail is simply never touched again
	if newSize <= oldSize {
		return ptr, nil
	}

	newPtr, err := a.Allocate(newSize)
	if err != nil {
		return nil, err
	}

	copy(unsafe.Slice((*byte)(newPtr), oldSize), unsafe.Slice((*byte)(ptr), oldSize))
	return newPtr, nil
}

func (a *HeapAllocator) Free(ptr unsafe.Pointer, size int) {}
