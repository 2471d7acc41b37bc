//go:build linux

package memory

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// PageAllocator is an Allocator that maps every block directly from the operating system with an
// anonymous private mapping. Blocks live outside the Go heap, are never scanned by the garbage
// collector, grow with mremap (which can move whole pages without copying), and are returned to
// the system on Free.
//
// Each block occupies at least one page, so PageAllocator suits a small number of large
// containers rather than many small ones.
//
// PageAllocator has no state and is safe to use from multiple goroutines.
type PageAllocator struct{}

var _ Allocator = (*PageAllocator)(nil)

func NewPageAllocator() *PageAllocator { return &PageAllocator{} }

// Allocate is identical to ZeroAllocate: fresh anonymous mappings are always zero-filled.
func (a *PageAllocator) Allocate(size int) (unsafe.Pointer, error) {
	return a.ZeroAllocate(size)
}

func (a *PageAllocator) ZeroAllocate(size int) (unsafe.Pointer, error) {
	err := checkSize(size, "PageAllocator::ZeroAllocate")
	if err != nil {
		return nil, err
	}

	data, err := unix.Mmap(
		-1, 0,
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS,
	)
	if err != nil {
		return nil, mappingError(err, "PageAllocator could not map %d bytes", size)
	}

	return unsafe.Pointer(unsafe.SliceData(data)), nil
}

func (a *PageAllocator) Reallocate(ptr unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.Allocate(newSize)
	}

	err := checkSize(newSize, "PageAllocator::Reallocate")
	if err != nil {
		return nil, err
	}

	if newSize == oldSize {
		return ptr, nil
	}

	data, err := unix.Mremap(unsafe.Slice((*byte)(ptr), oldSize), newSize, unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, mappingError(err, "PageAllocator could not remap %d bytes to %d bytes", oldSize, newSize)
	}

	return unsafe.Pointer(unsafe.SliceData(data)), nil
}

func (a *PageAllocator) Free(ptr unsafe.Pointer, size int) {
	if ptr == nil {
		return
	}

	// the mapping is looked up by its exact extent, so a failure here means the caller's
	// bookkeeping is already corrupt
	if err := unix.Munmap(unsafe.Slice((*byte)(ptr), size)); err != nil {
		panic(errors.Wrapf(err, "PageAllocator could not unmap %d bytes", size))
	}
}

// mappingError classifies a failed mmap or mremap. EINVAL means the request did not describe a
// mapping this allocator handed out (wrong oldSize, foreign pointer), so it is reported as
// ErrInvalidSize rather than memory pressure. The system error is kept as a secondary cause.
func mappingError(cause error, format string, args ...any) error {
	sentinel := ErrOutOfMemory
	if errors.Is(cause, unix.EINVAL) {
		sentinel = ErrInvalidSize
	}
	return errors.WithSecondaryError(errors.Wrapf(sentinel, format, args...), cause)
}
