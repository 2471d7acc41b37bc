package compact

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/compact/memutils"
)

func (v *Vector[T, S, C]) initialCapacity() (S, error) {
	maxCapacity := v.MaxCapacity()
	if maxCapacity < 1 {
		return 0, errors.Wrapf(ErrCapacityExceeded, "the maximum capacity is %d", maxCapacity)
	}

	initial := v.config().InitialCapacity()
	if initial < 1 {
		initial = 1
	}

	return clampCapacity(initial, maxCapacity), nil
}

// PushBack appends value. An unallocated vector allocates its configured initial capacity, and a
// full vector relocates to 1.5x its capacity (see the growth rules on grownCapacity). If the vector
// is already full at its maximum capacity, PushBack fails with ErrCapacityExceeded; if the
// allocator fails, the error is returned. In both cases the vector is unchanged.
func (v *Vector[T, S, C]) PushBack(value T) error {
	if v.data == nil {
		capacity, err := v.initialCapacity()
		if err != nil {
			return err
		}

		data, err := v.allocateBlock(capacity, 0, false)
		if err != nil {
			return err
		}
		v.data = data
	} else if h := v.header(); h.size == h.capacity {
		newCapacity, err := grownCapacity(h.capacity, v.MaxCapacity())
		if err != nil {
			return err
		}

		err = v.relocate(newCapacity)
		if err != nil {
			return err
		}
	}

	h := v.header()
	if memutils.DebugEnabled {
		memutils.DebugAssert(h.size < h.capacity, "no free slot after growth: size %d, capacity %d", h.size, h.capacity)
	}
	*v.elem(h.size) = value
	h.size++

	return nil
}

// Append calls PushBack for each value in order, stopping at the first failure. Values appended
// before the failure remain in the vector.
func (v *Vector[T, S, C]) Append(values ...T) error {
	for i, value := range values {
		err := v.PushBack(value)
		if err != nil {
			return errors.Wrapf(err, "appending value %d of %d", i, len(values))
		}
	}

	return nil
}

// PopBack removes and returns the last element. The capacity is unchanged. The vector must not be
// empty; this is only verified in debug builds.
func (v *Vector[T, S, C]) PopBack() T {
	if memutils.DebugEnabled {
		memutils.DebugAssert(!v.Empty(), "PopBack called on an empty vector")
	}

	h := v.header()
	h.size--
	return *v.elem(h.size)
}

// UnorderedRemoveAt removes and returns the element at index by overwriting it with the last
// element. This is constant time, but it does not preserve the order of the remaining elements.
// The index must be in [0, Size()); this is only verified in debug builds.
func (v *Vector[T, S, C]) UnorderedRemoveAt(index S) T {
	if memutils.DebugEnabled {
		memutils.DebugAssert(index >= 0 && index < v.Size(), "index %d outside of size %d", index, v.Size())
	}

	h := v.header()
	removed := *v.elem(index)
	h.size--
	*v.elem(index) = *v.elem(h.size)

	return removed
}

// UnorderedRemove removes the first element equal to value with UnorderedRemoveAt and returns it.
// If no element is equal to value, the vector is unchanged and the zero value and false are returned.
func (v *Vector[T, S, C]) UnorderedRemove(value T) (T, bool) {
	index := slices.Index(v.Slice(), value)
	if index < 0 {
		var zero T
		return zero, false
	}

	return v.UnorderedRemoveAt(S(index)), true
}

// SwapElements exchanges the elements at indices a and b. Both must be in [0, Size()); this is only
// verified in debug builds.
func (v *Vector[T, S, C]) SwapElements(a, b S) {
	if memutils.DebugEnabled {
		memutils.DebugAssert(a >= 0 && a < v.Size(), "index %d outside of size %d", a, v.Size())
		memutils.DebugAssert(b >= 0 && b < v.Size(), "index %d outside of size %d", b, v.Size())
	}

	left, right := v.elem(a), v.elem(b)
	*left, *right = *right, *left
}

// Reserve ensures the capacity is at least min(capacity, MaxCapacity()) without changing the size or
// any element. An unallocated vector allocates a block of exactly that capacity.
func (v *Vector[T, S, C]) Reserve(capacity S) error {
	if capacity < 0 {
		return errors.Wrapf(ErrInvalidSize, "cannot reserve a capacity of %d", capacity)
	}

	capacity = clampCapacity(capacity, v.MaxCapacity())

	if v.data == nil {
		data, err := v.allocateBlock(capacity, 0, false)
		if err != nil {
			return err
		}
		v.data = data
		return nil
	}

	if capacity <= v.header().capacity {
		return nil
	}

	return v.relocate(capacity)
}

// Resize sets the size to size. Shrinking drops the trailing elements and keeps the capacity.
// Growing relocates to exactly size slots if the current capacity is too small, and sets every
// newly exposed element to the zero value of T. Sizes above MaxCapacity() fail with
// ErrCapacityExceeded.
func (v *Vector[T, S, C]) Resize(size S) error {
	if size < 0 {
		return errors.Wrapf(ErrInvalidSize, "cannot resize to %d", size)
	}

	if size > v.MaxCapacity() {
		return errors.Wrapf(ErrCapacityExceeded, "cannot resize to %d, the maximum is %d", size, v.MaxCapacity())
	}

	if v.data == nil {
		data, err := v.allocateBlock(size, size, true)
		if err != nil {
			return err
		}
		v.data = data
		return nil
	}

	oldSize := v.header().size
	if size <= oldSize {
		v.header().size = size
		return nil
	}

	if size > v.header().capacity {
		err := v.relocate(size)
		if err != nil {
			return err
		}
	}

	v.header().size = size
	clear(v.Slice()[int(oldSize):])
	return nil
}
