package compact

import (
	"iter"
	"slices"
)

// All returns an iterator over the indices and values of the live elements, front to back.
// The vector should not be resized during iteration; if it shrinks, iteration stops at the new end.
func (v *Vector[T, S, C]) All() iter.Seq2[S, T] {
	return func(yield func(S, T) bool) {
		for i := S(0); i < v.Size(); i++ {
			if !yield(i, *v.elem(i)) {
				return
			}
		}
	}
}

// Values returns an iterator over the values of the live elements, front to back
func (v *Vector[T, S, C]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := S(0); i < v.Size(); i++ {
			if !yield(*v.elem(i)) {
				return
			}
		}
	}
}

// Backward returns an iterator over the indices and values of the live elements, back to front.
// It counts indices down from Size(); it never forms an address outside of the block.
func (v *Vector[T, S, C]) Backward() iter.Seq2[S, T] {
	return func(yield func(S, T) bool) {
		for i := v.Size(); i > 0; i-- {
			index := i - 1
			if index >= v.Size() {
				// shrunk during iteration, resume from the new end
				i = v.Size() + 1
				continue
			}

			if !yield(index, *v.elem(index)) {
				return
			}
		}
	}
}

// Equal returns true if both vectors are unallocated, or both are allocated with the same size
// and equal elements in index order. An unallocated vector is not equal to an allocated empty one.
func (v *Vector[T, S, C]) Equal(other *Vector[T, S, C]) bool {
	if v.data == other.data {
		return true
	}

	if v.data == nil || other.data == nil {
		return false
	}

	return slices.Equal(v.Slice(), other.Slice())
}
