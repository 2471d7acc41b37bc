package compact

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/compact/memory"
	"github.com/vkngwrapper/compact/memutils"
)

// header is the inline record stored immediately before the first element slot of every block.
type header[S Size] struct {
	capacity S
	size     S
}

// blockLayout describes how a block is carved up for a particular element and size type:
//
//	block                              data (handle)
//	|  padding  | capacity | size     | slot 0 | slot 1 | ... | slot capacity-1 | guard |
//	            <- headerSize ------->
//	<------------ dataOffset -------->
//
// The padding makes data aligned for both T and S. The guard is memutils.DebugMargin bytes long
// and is only present in debug builds.
type blockLayout struct {
	headerSize  int
	dataOffset  int
	elementSize int
}

// a block always extends at least this far past the first slot, so that the handle of an empty
// block still points inside its allocation
const minimumTailBytes = 1

func layoutOf[T Relocatable, S Size]() blockLayout {
	var element T
	var sizeValue S

	alignment := unsafe.Alignof(element)
	if unsafe.Alignof(sizeValue) > alignment {
		alignment = unsafe.Alignof(sizeValue)
	}

	if memutils.DebugEnabled {
		memutils.DebugCheckPow2(alignment, "element alignment")
		memutils.DebugAssert(alignment <= uintptr(memory.MinAlignment), "element alignment %d exceeds the allocator alignment %d", alignment, memory.MinAlignment)
	}

	headerSize := int(unsafe.Sizeof(header[S]{}))
	return blockLayout{
		headerSize:  headerSize,
		dataOffset:  memutils.AlignUp(headerSize, uint(alignment)),
		elementSize: int(unsafe.Sizeof(element)),
	}
}

// blockBytes returns the number of bytes a block holding capacity slots occupies
func (l blockLayout) blockBytes(capacity int) (int, error) {
	tail, err := memutils.CheckedMul(capacity, l.elementSize)
	if err == nil {
		tail, err = memutils.CheckedAdd(tail, memutils.DebugMargin)
	}
	if err == nil {
		tail = max(tail, minimumTailBytes)
		tail, err = memutils.CheckedAdd(tail, l.dataOffset)
	}
	if err != nil {
		return 0, errors.Wrapf(ErrCapacityExceeded, "%d elements of %d bytes cannot be addressed by one allocation", capacity, l.elementSize)
	}

	return tail, nil
}

func (l blockLayout) dataFromBlock(block unsafe.Pointer) unsafe.Pointer {
	if memutils.DebugEnabled {
		memutils.DebugAssert(block != nil, "dataFromBlock received a nil block")
	}
	return unsafe.Add(block, l.dataOffset)
}

func (l blockLayout) blockFromData(data unsafe.Pointer) unsafe.Pointer {
	if memutils.DebugEnabled {
		memutils.DebugAssert(data != nil, "blockFromData received a nil handle")
	}
	return unsafe.Add(data, -l.dataOffset)
}

func headerFromData[S Size](l blockLayout, data unsafe.Pointer) *header[S] {
	if memutils.DebugEnabled {
		memutils.DebugAssert(data != nil, "headerFromData received a nil handle")
	}
	return (*header[S])(unsafe.Add(data, -l.headerSize))
}

// guardOffset is the offset from data of the debug guard that follows the last slot
func (l blockLayout) guardOffset(capacity int) int {
	return capacity * l.elementSize
}

// sizeToInt converts a size or capacity to an int, failing when the value cannot be represented
func sizeToInt[S Size](value S) (int, bool) {
	if value < 0 || uint64(value) > uint64(math.MaxInt) {
		return 0, false
	}
	return int(value), true
}
