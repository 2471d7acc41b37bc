package memory

import (
	"slices"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/compact/memory/internal/utils"
	"github.com/vkngwrapper/compact/memutils"
	"golang.org/x/exp/slog"
)

// ErrLeakedBlocks is returned from TrackingAllocator.CheckLeaks when blocks are still live
var ErrLeakedBlocks = errors.New("allocator has live blocks")

type trackedBlock struct {
	// ptr keeps heap-backed blocks reachable until they are freed, so a leaked block is
	// reported instead of silently collected
	ptr    unsafe.Pointer
	size   int
	serial int
}

// TrackingAllocator wraps another Allocator and keeps books on every block that passes through
// it: which blocks are live, how large they are, and aggregate Statistics. It can enforce a limit
// on live bytes, and it panics when a block is freed or reallocated that it did not hand out, or
// with a size that does not match its records.
//
// TrackingAllocator is safe to use from multiple goroutines unless it was created with
// TrackingCreateExternallySynchronized.
type TrackingAllocator struct {
	logger    *slog.Logger
	upstream  Allocator
	flags     TrackingCreateFlags
	byteLimit int

	mutex      utils.OptionalMutex
	blocks     *swiss.Map[uintptr, trackedBlock]
	stats      memutils.Statistics
	nextSerial int
}

var _ Allocator = (*TrackingAllocator)(nil)
var _ memutils.Validatable = (*TrackingAllocator)(nil)

func (a *TrackingAllocator) init(expectedBlocks int) {
	a.blocks = swiss.NewMap[uintptr, trackedBlock](uint32(expectedBlocks))
	a.stats.Clear()
}

func (a *TrackingAllocator) Allocate(size int) (unsafe.Pointer, error) {
	a.logger.Debug("TrackingAllocator::Allocate")
	return a.allocate(size, a.upstream.Allocate)
}

func (a *TrackingAllocator) ZeroAllocate(size int) (unsafe.Pointer, error) {
	a.logger.Debug("TrackingAllocator::ZeroAllocate")
	return a.allocate(size, a.upstream.ZeroAllocate)
}

func (a *TrackingAllocator) allocate(size int, upstreamAllocate func(int) (unsafe.Pointer, error)) (unsafe.Pointer, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	err := a.checkLimit(size)
	if err != nil {
		return nil, err
	}

	ptr, err := upstreamAllocate(size)
	if err != nil {
		a.logger.Debug("  TrackingAllocator::allocate FAILED", slog.Int("Size", size), slog.Any("error", err))
		return nil, err
	}

	a.track(ptr, size)
	a.stats.AddBlock(size)

	if a.flags&TrackingCreateLogBlocks != 0 {
		a.logger.Debug("  Allocated block", slog.Any("Address", ptr), slog.Int("Size", size))
	}

	return ptr, nil
}

func (a *TrackingAllocator) Reallocate(ptr unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
	a.logger.Debug("TrackingAllocator::Reallocate")

	if ptr == nil {
		return a.allocate(newSize, a.upstream.Allocate)
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	block := a.lookup(ptr, oldSize, "Reallocate")

	err := a.checkLimit(newSize - oldSize)
	if err != nil {
		return nil, err
	}

	newPtr, err := a.upstream.Reallocate(ptr, oldSize, newSize)
	if err != nil {
		a.logger.Debug("  TrackingAllocator::Reallocate FAILED",
			slog.Int("OldSize", oldSize),
			slog.Int("NewSize", newSize),
			slog.Any("error", err),
		)
		return nil, err
	}

	a.blocks.Delete(uintptr(ptr))
	a.blocks.Put(uintptr(newPtr), trackedBlock{ptr: newPtr, size: newSize, serial: block.serial})
	a.stats.ResizeBlock(oldSize, newSize)

	if a.flags&TrackingCreateLogBlocks != 0 {
		a.logger.Debug("  Reallocated block",
			slog.Any("OldAddress", ptr),
			slog.Any("Address", newPtr),
			slog.Int("OldSize", oldSize),
			slog.Int("Size", newSize),
		)
	}

	return newPtr, nil
}

func (a *TrackingAllocator) Free(ptr unsafe.Pointer, size int) {
	a.logger.Debug("TrackingAllocator::Free")

	if ptr == nil {
		return
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.lookup(ptr, size, "Free")
	a.blocks.Delete(uintptr(ptr))
	a.stats.RemoveBlock(size)

	if a.flags&TrackingCreateLogBlocks != 0 {
		a.logger.Debug("  Freed block", slog.Any("Address", ptr), slog.Int("Size", size))
	}

	a.upstream.Free(ptr, size)
}

func (a *TrackingAllocator) checkLimit(additionalBytes int) error {
	if a.byteLimit <= 0 || additionalBytes <= 0 {
		return nil
	}

	if a.stats.BlockBytes > a.byteLimit-additionalBytes {
		return errors.Wrapf(ErrOutOfMemory, "%d live bytes plus %d requested bytes would exceed the limit of %d bytes",
			a.stats.BlockBytes, additionalBytes, a.byteLimit)
	}

	return nil
}

func (a *TrackingAllocator) track(ptr unsafe.Pointer, size int) {
	if existing, ok := a.blocks.Get(uintptr(ptr)); ok {
		// upstream handed out an address we still consider live
		err := errors.AssertionFailedf("upstream allocator returned live block %p (serial %d, %d bytes) again", ptr, existing.serial, existing.size)
		a.logger.Error("TrackingAllocator detected a duplicate block", slog.Any("error", err))
		panic(err)
	}

	a.blocks.Put(uintptr(ptr), trackedBlock{ptr: ptr, size: size, serial: a.nextSerial})
	a.nextSerial++
}

func (a *TrackingAllocator) lookup(ptr unsafe.Pointer, size int, operation string) trackedBlock {
	block, ok := a.blocks.Get(uintptr(ptr))
	if !ok {
		err := errors.AssertionFailedf("%s received block %p, which is not live in this allocator", operation, ptr)
		a.logger.Error("TrackingAllocator detected an unknown block", slog.Any("error", err))
		panic(err)
	}

	if block.size != size {
		err := errors.AssertionFailedf("%s received block %p with size %d, but it was allocated with size %d", operation, ptr, size, block.size)
		a.logger.Error("TrackingAllocator detected a block size mismatch", slog.Any("error", err))
		panic(err)
	}

	return block
}

// Statistics returns a snapshot of the allocator's statistics
func (a *TrackingAllocator) Statistics() memutils.Statistics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.stats
}

// AddDetailedStatistics sums this allocator's statistics, including the size range of its live
// blocks, into the statistics currently present in the provided memutils.DetailedStatistics object.
func (a *TrackingAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	stats.Statistics.AddStatistics(&a.stats)
	a.blocks.Iter(func(_ uintptr, block trackedBlock) bool {
		stats.AddBlockSize(block.size)
		return false
	})
}

// LiveBlockCount returns the number of blocks that have been allocated and not yet freed
func (a *TrackingAllocator) LiveBlockCount() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.blocks.Count()
}

// LiveBlockSize returns the size the allocator has on record for the live block at ptr,
// and false if ptr is not a live block
func (a *TrackingAllocator) LiveBlockSize(ptr unsafe.Pointer) (int, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	block, ok := a.blocks.Get(uintptr(ptr))
	return block.size, ok
}

// CheckLeaks returns ErrLeakedBlocks, annotated with the number and total size of the
// outstanding blocks, if any block handed out by this allocator has not been freed
func (a *TrackingAllocator) CheckLeaks() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	count := a.blocks.Count()
	if count == 0 {
		return nil
	}

	return errors.Wrapf(ErrLeakedBlocks, "%d blocks totalling %d bytes were never freed", count, a.stats.BlockBytes)
}

// Validate performs internal consistency checks between the block records and the statistics.
func (a *TrackingAllocator) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var liveBytes int
	a.blocks.Iter(func(_ uintptr, block trackedBlock) bool {
		liveBytes += block.size
		return false
	})

	if a.blocks.Count() != a.stats.BlockCount {
		return errors.Errorf("the statistics report %d live blocks, but %d blocks are tracked", a.stats.BlockCount, a.blocks.Count())
	}

	if liveBytes != a.stats.BlockBytes {
		return errors.Errorf("the statistics report %d live bytes, but the tracked blocks add up to %d", a.stats.BlockBytes, liveBytes)
	}

	if a.byteLimit > 0 && liveBytes > a.byteLimit {
		return errors.Errorf("%d live bytes exceed the limit of %d bytes", liveBytes, a.byteLimit)
	}

	return nil
}

// BuildStatsString returns a json document describing the allocator's statistics. If detailed is
// true, every live block is listed in allocation order.
func (a *TrackingAllocator) BuildStatsString(detailed bool) string {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Flags").String(a.flags.String())
	obj.Name("ByteLimit").Int(a.byteLimit)

	statsObj := obj.Name("Total").Object()
	statsObj.Name("BlockCount").Int(a.stats.BlockCount)
	statsObj.Name("BlockBytes").Int(a.stats.BlockBytes)
	statsObj.Name("PeakBlockBytes").Int(a.stats.PeakBlockBytes)
	statsObj.Name("AllocationCount").Int(a.stats.AllocationCount)
	statsObj.Name("AllocationBytes").Int(a.stats.AllocationBytes)
	statsObj.Name("ReallocationCount").Int(a.stats.ReallocationCount)
	statsObj.Name("FreeCount").Int(a.stats.FreeCount)
	statsObj.End()

	if detailed {
		a.printDetailedBlocks(obj)
	}

	obj.End()
	return string(writer.Bytes())
}

func (a *TrackingAllocator) printDetailedBlocks(json jwriter.ObjectState) {
	blocks := make([]trackedBlock, 0, a.blocks.Count())
	a.blocks.Iter(func(_ uintptr, block trackedBlock) bool {
		blocks = append(blocks, block)
		return false
	})
	slices.SortFunc(blocks, func(left, right trackedBlock) int {
		return left.serial - right.serial
	})

	arrayState := json.Name("Blocks").Array()
	defer arrayState.End()

	for _, block := range blocks {
		blockObj := arrayState.Object()
		blockObj.Name("Serial").Int(block.serial)
		blockObj.Name("Size").Int(block.size)
		blockObj.End()
	}
}
