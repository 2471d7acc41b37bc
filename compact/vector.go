package compact

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/compact/memory"
	"github.com/vkngwrapper/compact/memutils"
)

// noCopy lets go vet's copylocks check flag accidental copies of a Vector. Two copies of the same
// handle would both believe they own the block.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Vector is a growable, contiguous array of T that is exactly one pointer wide. Its size and
// capacity are not fields: they are stored as a header of two S values immediately before the
// first element, inside the same allocation as the elements. The zero value is an empty,
// unallocated vector and costs nothing.
//
// A Vector exclusively owns its block. It must not be copied by assignment; use Clone or CopyFrom
// to duplicate the elements and Take or MoveFrom to transfer ownership. Because the block may come
// from memory outside the Go heap, a Vector must be Released when it is no longer needed.
//
// Any call that can relocate the block (PushBack, Append, Reserve, Resize, CopyFrom) invalidates
// slices returned by Slice and in-progress iterators.
//
// A Vector is not safe for concurrent mutation. Distinct vectors may be used from different
// goroutines if the configured allocator is safe for concurrent use.
type Vector[T Relocatable, S Size, C Config[S]] struct {
	noCopy noCopy
	data   unsafe.Pointer
}

var _ memutils.Validatable = (*Vector[int, int, Defaults[int]])(nil)

// Make returns a vector with size and capacity both equal to size, every element set to the zero
// value of T.
func Make[T Relocatable, S Size, C Config[S]](size S) (Vector[T, S, C], error) {
	var v Vector[T, S, C]

	if size < 0 {
		return Vector[T, S, C]{}, errors.Wrapf(ErrInvalidSize, "cannot make a vector of size %d", size)
	}

	if size > v.MaxCapacity() {
		return Vector[T, S, C]{}, errors.Wrapf(ErrCapacityExceeded, "cannot make a vector of size %d, the maximum is %d", size, v.MaxCapacity())
	}

	data, err := v.allocateBlock(size, size, true)
	if err != nil {
		return Vector[T, S, C]{}, err
	}

	return Vector[T, S, C]{data: data}, nil
}

func (v *Vector[T, S, C]) config() C {
	var config C
	return config
}

func (v *Vector[T, S, C]) layout() blockLayout {
	return layoutOf[T, S]()
}

func (v *Vector[T, S, C]) header() *header[S] {
	return headerFromData[S](v.layout(), v.data)
}

func (v *Vector[T, S, C]) elem(index S) *T {
	var element T
	return (*T)(unsafe.Add(v.data, uintptr(index)*unsafe.Sizeof(element)))
}

// allocateBlock acquires a block with room for capacity elements and writes its header. It returns
// the handle of the new block; the vector itself is not modified.
func (v *Vector[T, S, C]) allocateBlock(capacity, size S, zero bool) (unsafe.Pointer, error) {
	layout := v.layout()

	capacityInt, ok := sizeToInt(capacity)
	if !ok {
		return nil, errors.Wrapf(ErrCapacityExceeded, "capacity %d cannot be addressed", capacity)
	}

	byteSize, err := layout.blockBytes(capacityInt)
	if err != nil {
		return nil, err
	}

	allocator := v.config().Allocator()

	var block unsafe.Pointer
	if zero {
		block, err = allocator.ZeroAllocate(byteSize)
	} else {
		block, err = allocator.Allocate(byteSize)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not allocate storage for %d elements", capacity)
	}

	data := layout.dataFromBlock(block)
	*headerFromData[S](layout, data) = header[S]{capacity: capacity, size: size}
	memutils.WriteMagicValue(data, layout.guardOffset(capacityInt))

	return data, nil
}

// relocate moves the elements into a block with room for newCapacity elements. The live elements
// travel as raw bytes. If the allocator fails, the vector is left exactly as it was.
func (v *Vector[T, S, C]) relocate(newCapacity S) error {
	layout := v.layout()
	oldCapacity := v.header().capacity

	// the current capacity was validated when its block was allocated
	oldCapacityInt, _ := sizeToInt(oldCapacity)
	oldBytes, _ := layout.blockBytes(oldCapacityInt)

	newCapacityInt, ok := sizeToInt(newCapacity)
	if !ok {
		return errors.Wrapf(ErrCapacityExceeded, "capacity %d cannot be addressed", newCapacity)
	}

	newBytes, err := layout.blockBytes(newCapacityInt)
	if err != nil {
		return err
	}

	block, err := v.config().Allocator().Reallocate(layout.blockFromData(v.data), oldBytes, newBytes)
	if err != nil {
		return errors.Wrapf(err, "could not relocate storage from %d to %d elements", oldCapacity, newCapacity)
	}

	v.data = layout.dataFromBlock(block)
	v.header().capacity = newCapacity
	memutils.WriteMagicValue(v.data, layout.guardOffset(newCapacityInt))
	memutils.DebugValidate(v)

	return nil
}

// Release returns the block to the allocator and leaves the vector empty and unallocated. Releasing
// an unallocated vector does nothing.
func (v *Vector[T, S, C]) Release() {
	if v.data == nil {
		return
	}

	layout := v.layout()
	capacity, _ := sizeToInt(v.header().capacity)
	byteSize, _ := layout.blockBytes(capacity)

	v.config().Allocator().Free(layout.blockFromData(v.data), byteSize)
	v.data = nil
}

// Clear sets the size to zero but keeps the block and its capacity
func (v *Vector[T, S, C]) Clear() {
	if v.data == nil {
		return
	}

	v.header().size = 0
}

// Clone returns an independent vector holding a copy of every element, with capacity equal to
// its size. Cloning an unallocated vector returns an unallocated vector.
func (v *Vector[T, S, C]) Clone() (Vector[T, S, C], error) {
	if v.data == nil {
		return Vector[T, S, C]{}, nil
	}

	size := v.header().size
	data, err := v.allocateBlock(size, size, false)
	if err != nil {
		return Vector[T, S, C]{}, err
	}

	copy(unsafe.Slice((*T)(data), int(size)), v.Slice())
	return Vector[T, S, C]{data: data}, nil
}

// CopyFrom replaces the contents of the vector with a copy of the elements of src. The current
// block is reused when it is large enough, and otherwise relocated to exactly src.Size()
// elements. Copying from an unallocated vector releases this one.
func (v *Vector[T, S, C]) CopyFrom(src *Vector[T, S, C]) error {
	if src == v {
		return nil
	}

	if src.data == nil {
		v.Release()
		return nil
	}

	size := src.header().size

	if v.data == nil {
		data, err := v.allocateBlock(size, 0, false)
		if err != nil {
			return err
		}
		v.data = data
	} else if v.header().capacity < size {
		err := v.relocate(size)
		if err != nil {
			return err
		}
	}

	v.header().size = size
	copy(v.Slice(), src.Slice())
	return nil
}

// Take transfers the block to a new vector and leaves v unallocated. No element is copied.
func (v *Vector[T, S, C]) Take() Vector[T, S, C] {
	data := v.data
	v.data = nil
	return Vector[T, S, C]{data: data}
}

// MoveFrom releases the vector's own block, takes ownership of src's block, and leaves src
// unallocated. No element is copied. Moving a vector into itself does nothing.
func (v *Vector[T, S, C]) MoveFrom(src *Vector[T, S, C]) {
	if src == v {
		return
	}

	v.Release()
	v.data = src.data
	src.data = nil
}

// Swap exchanges the blocks of the two vectors
func (v *Vector[T, S, C]) Swap(other *Vector[T, S, C]) {
	v.data, other.data = other.data, v.data
}

// Validate performs internal consistency checks on the header and, in debug builds, verifies that
// nothing has written past the last element slot.
func (v *Vector[T, S, C]) Validate() error {
	if v.data == nil {
		return nil
	}

	h := v.header()
	if h.size < 0 || h.size > h.capacity {
		return errors.Errorf("the header has size %d outside of capacity %d", h.size, h.capacity)
	}

	if h.capacity > v.MaxCapacity() {
		return errors.Errorf("the header has capacity %d above the maximum of %d", h.capacity, v.MaxCapacity())
	}

	capacity, ok := sizeToInt(h.capacity)
	if !ok {
		return errors.Errorf("the header has capacity %d, which cannot be addressed", h.capacity)
	}

	if !memutils.ValidateMagicValue(v.data, v.layout().guardOffset(capacity)) {
		return errors.New("memory corruption detected after the last element slot")
	}

	return nil
}

// Allocator returns the backend that the vector's blocks come from
func (v *Vector[T, S, C]) Allocator() memory.Allocator {
	return v.config().Allocator()
}
