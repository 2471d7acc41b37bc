package compact

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/compact/memutils"
)

// Size returns the number of live elements. It is 0 for an unallocated vector.
func (v *Vector[T, S, C]) Size() S {
	if v.data == nil {
		return 0
	}
	return v.header().size
}

// Capacity returns the number of element slots in the current block. It is 0 for an unallocated vector.
func (v *Vector[T, S, C]) Capacity() S {
	if v.data == nil {
		return 0
	}
	return v.header().capacity
}

// MaxCapacity returns the configured ceiling on size and capacity
func (v *Vector[T, S, C]) MaxCapacity() S {
	maxCapacity := v.config().MaxCapacity()
	if maxCapacity < 0 {
		return 0
	}
	return maxCapacity
}

// Empty returns true if the vector is unallocated or holds no live elements
func (v *Vector[T, S, C]) Empty() bool {
	return v.data == nil || v.header().size == 0
}

// Allocated returns true if the vector currently owns a block
func (v *Vector[T, S, C]) Allocated() bool {
	return v.data != nil
}

func (v *Vector[T, S, C]) checkIndex(index S) error {
	if index < 0 {
		return errors.Wrapf(ErrNegativeIndex, "index %d", index)
	}

	size := v.Size()
	if index >= size {
		return errors.Wrapf(ErrIndexTooLarge, "index %d with size %d", index, size)
	}

	return nil
}

// At returns the element at index. It fails with an error matching ErrNegativeIndex or
// ErrIndexTooLarge (and both match ErrOutOfRange) when index is not in [0, Size()).
func (v *Vector[T, S, C]) At(index S) (T, error) {
	err := v.checkIndex(index)
	if err != nil {
		var zero T
		return zero, err
	}

	return *v.elem(index), nil
}

// Set replaces the element at index, with the same bounds checking as At
func (v *Vector[T, S, C]) Set(index S, value T) error {
	err := v.checkIndex(index)
	if err != nil {
		return err
	}

	*v.elem(index) = value
	return nil
}

// Index returns the element at index without bounds checking. Calling it with an index outside of
// [0, Size()) is undefined behavior; the bounds are only verified in debug builds.
func (v *Vector[T, S, C]) Index(index S) T {
	if memutils.DebugEnabled {
		memutils.DebugAssert(index >= 0 && index < v.Size(), "index %d outside of size %d", index, v.Size())
	}
	return *v.elem(index)
}

// SetIndex replaces the element at index without bounds checking, with the same contract as Index
func (v *Vector[T, S, C]) SetIndex(index S, value T) {
	if memutils.DebugEnabled {
		memutils.DebugAssert(index >= 0 && index < v.Size(), "index %d outside of size %d", index, v.Size())
	}
	*v.elem(index) = value
}

// Front returns the first element. The vector must not be empty.
func (v *Vector[T, S, C]) Front() T {
	if memutils.DebugEnabled {
		memutils.DebugAssert(!v.Empty(), "Front called on an empty vector")
	}
	return *v.elem(0)
}

// Back returns the last element. The vector must not be empty.
func (v *Vector[T, S, C]) Back() T {
	if memutils.DebugEnabled {
		memutils.DebugAssert(!v.Empty(), "Back called on an empty vector")
	}
	return *v.elem(v.header().size - 1)
}

// Slice returns a view of the live elements that shares the vector's storage, or nil for an
// unallocated vector. The view must not be used after any call that can relocate or release
// the block.
func (v *Vector[T, S, C]) Slice() []T {
	if v.data == nil {
		return nil
	}
	return unsafe.Slice((*T)(v.data), int(v.header().size))
}

// Data returns the handle: the address of the first element slot, or nil for an unallocated vector
func (v *Vector[T, S, C]) Data() unsafe.Pointer {
	return v.data
}
