package compact

import (
	"unsafe"

	"github.com/vkngwrapper/compact/memory"
	"golang.org/x/exp/constraints"
)

// Relocatable is the set of element types a Vector can hold. Values of these types contain no Go
// pointers and have no identity, so they may be moved between blocks with a raw byte copy and
// stored in memory the garbage collector does not scan.
type Relocatable interface {
	constraints.Integer | constraints.Float | constraints.Complex | ~bool
}

// Size is the set of integer types a Vector can use for its inline size and capacity. The choice
// bounds the largest representable capacity and is part of the vector's type.
type Size interface {
	constraints.Integer
}

// Config supplies the compile-time parameters of a Vector. Implementations are expected to be
// zero-sized types whose methods return constants; a Vector calls them on the zero value of the
// type and never stores an instance.
type Config[S Size] interface {
	// MaxCapacity is the ceiling on size and capacity. Requests above it are clamped (Reserve) or
	// rejected with ErrCapacityExceeded (PushBack at the ceiling, Resize, Make).
	MaxCapacity() S
	// InitialCapacity is the capacity allocated by the first PushBack into an unallocated vector.
	// Values below 1 are treated as 1.
	InitialCapacity() S
	// Allocator is the backend every block of the vector is drawn from and returned to. It must
	// return the same backend for the lifetime of every vector using the Config.
	Allocator() memory.Allocator
}

// Defaults is the Config used when nothing else is needed: the largest value of S as the ceiling,
// an initial capacity of 1, and memory.DefaultAllocator.
type Defaults[S Size] struct{}

func (Defaults[S]) MaxCapacity() S              { return maxValue[S]() }
func (Defaults[S]) InitialCapacity() S          { return 1 }
func (Defaults[S]) Allocator() memory.Allocator { return memory.DefaultAllocator }

// Of is a Vector of T sized by int using Defaults
type Of[T Relocatable] = Vector[T, int, Defaults[int]]

func maxValue[S Size]() S {
	var zero S
	bits := unsafe.Sizeof(zero) * 8

	if ^zero < 0 {
		return S(uint64(1)<<(bits-1) - 1)
	}

	return ^zero
}
