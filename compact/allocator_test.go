package compact_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/compact/compact"
	"github.com/vkngwrapper/compact/memory"
	"github.com/vkngwrapper/compact/memory/mocks"
	"github.com/vkngwrapper/compact/memutils"
	"go.uber.org/mock/gomock"
)

// backend is returned by the Allocator method of mockConfig and trackingConfig. Tests that use
// either config set it and must not run in parallel.
var backend memory.Allocator

type mockConfig struct{}

func (mockConfig) MaxCapacity() int            { return 1 << 20 }
func (mockConfig) InitialCapacity() int        { return 1 }
func (mockConfig) Allocator() memory.Allocator { return backend }

type mockVector = compact.Vector[int64, int, mockConfig]

func useBackend(t *testing.T, allocator memory.Allocator) {
	backend = allocator
	t.Cleanup(func() {
		backend = nil
	})
}

func heapBlock(size int) unsafe.Pointer {
	buf := make([]uint64, (size+7)/8)
	return unsafe.Pointer(&buf[0])
}

func TestPushBackAllocationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	allocator.EXPECT().Allocate(gomock.Any()).Return(unsafe.Pointer(nil), memory.ErrOutOfMemory)

	var v mockVector
	err := v.PushBack(1)
	require.ErrorIs(t, err, memory.ErrOutOfMemory)
	require.False(t, v.Allocated())
	require.Equal(t, 0, v.Size())
}

func TestGrowthFailureLeavesVectorUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	var block unsafe.Pointer
	var blockSize int
	allocator.EXPECT().Allocate(gomock.Any()).DoAndReturn(func(size int) (unsafe.Pointer, error) {
		block = heapBlock(size)
		blockSize = size
		return block, nil
	})

	var v mockVector
	require.NoError(t, v.PushBack(42))
	data := v.Data()

	allocator.EXPECT().Reallocate(block, blockSize, gomock.Any()).DoAndReturn(
		func(ptr unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
			require.Greater(t, newSize, oldSize)
			return unsafe.Pointer(nil), memory.ErrOutOfMemory
		})

	err := v.PushBack(43)
	require.ErrorIs(t, err, memory.ErrOutOfMemory)
	require.Equal(t, 1, v.Size())
	require.Equal(t, 1, v.Capacity())
	require.Equal(t, data, v.Data())
	require.Equal(t, int64(42), v.Front())
	require.NoError(t, v.Validate())

	allocator.EXPECT().Free(block, blockSize)
	v.Release()
}

func TestReserveAndResizeFailureLeaveVectorUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	var block unsafe.Pointer
	var blockSize int
	allocator.EXPECT().Allocate(gomock.Any()).DoAndReturn(func(size int) (unsafe.Pointer, error) {
		block = heapBlock(size)
		blockSize = size
		return block, nil
	})

	var v mockVector
	require.NoError(t, v.Reserve(4))
	require.NoError(t, v.Append(1, 2, 3))

	allocator.EXPECT().Reallocate(block, blockSize, gomock.Any()).
		Return(unsafe.Pointer(nil), memory.ErrOutOfMemory).
		Times(2)

	require.ErrorIs(t, v.Reserve(100), memory.ErrOutOfMemory)
	require.ErrorIs(t, v.Resize(50), memory.ErrOutOfMemory)

	require.Equal(t, 4, v.Capacity())
	require.Equal(t, []int64{1, 2, 3}, v.Slice())

	allocator.EXPECT().Free(block, blockSize)
	v.Release()
}

func TestRelocationIsSized(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	heap := memory.NewHeapAllocator()
	var liveSize int

	allocator.EXPECT().Allocate(gomock.Any()).DoAndReturn(func(size int) (unsafe.Pointer, error) {
		liveSize = size
		return heap.Allocate(size)
	})
	allocator.EXPECT().Reallocate(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ptr unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
			require.Equal(t, liveSize, oldSize)
			liveSize = newSize
			return heap.Reallocate(ptr, oldSize, newSize)
		}).AnyTimes()

	var v mockVector
	for i := 0; i < 50; i++ {
		require.NoError(t, v.PushBack(int64(i)))
	}
	for i, value := range v.All() {
		require.Equal(t, int64(i), value)
	}

	allocator.EXPECT().Free(gomock.Any(), gomock.Any()).Do(func(ptr unsafe.Pointer, size int) {
		require.Equal(t, liveSize, size)
	})
	v.Release()
}

func TestMakeZeroAllocates(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	var block unsafe.Pointer
	allocator.EXPECT().ZeroAllocate(gomock.Any()).DoAndReturn(func(size int) (unsafe.Pointer, error) {
		block = heapBlock(size)
		return block, nil
	})

	v, err := compact.Make[int64, int, mockConfig](3)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0, 0}, v.Slice())

	allocator.EXPECT().Free(block, gomock.Any())
	v.Release()
}

func TestCloneFailureLeavesSourceIntact(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	allocator.EXPECT().Allocate(gomock.Any()).DoAndReturn(func(size int) (unsafe.Pointer, error) {
		return heapBlock(size), nil
	})

	var v mockVector
	require.NoError(t, v.PushBack(7))

	allocator.EXPECT().Allocate(gomock.Any()).Return(unsafe.Pointer(nil), memory.ErrOutOfMemory)

	clone, err := v.Clone()
	require.ErrorIs(t, err, memory.ErrOutOfMemory)
	require.False(t, clone.Allocated())
	require.Equal(t, []int64{7}, v.Slice())

	var dst mockVector
	allocator.EXPECT().Allocate(gomock.Any()).Return(unsafe.Pointer(nil), memory.ErrOutOfMemory)
	require.ErrorIs(t, dst.CopyFrom(&v), memory.ErrOutOfMemory)
	require.False(t, dst.Allocated())

	allocator.EXPECT().Free(gomock.Any(), gomock.Any())
	v.Release()
}

func TestMoveDoesNotTouchAllocator(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	useBackend(t, allocator)

	allocator.EXPECT().Allocate(gomock.Any()).DoAndReturn(func(size int) (unsafe.Pointer, error) {
		return heapBlock(size), nil
	})

	var a, b mockVector
	require.NoError(t, a.PushBack(1))

	b.MoveFrom(&a)
	c := b.Take()
	a.Swap(&c)

	require.Equal(t, []int64{1}, a.Slice())
	require.False(t, b.Allocated())
	require.False(t, c.Allocated())

	allocator.EXPECT().Free(gomock.Any(), gomock.Any())
	a.Release()
	b.Release()
	c.Release()
}

type trackingConfig struct{}

func (trackingConfig) MaxCapacity() uint32         { return 1 << 16 }
func (trackingConfig) InitialCapacity() uint32     { return 1 }
func (trackingConfig) Allocator() memory.Allocator { return backend }

type trackedVector = compact.Vector[int64, uint32, trackingConfig]

func newTracking(t *testing.T, options memory.TrackingCreateOptions) *memory.TrackingAllocator {
	tracking := memory.NewTrackingAllocator(nil, memory.NewHeapAllocator(), options)
	useBackend(t, tracking)
	return tracking
}

func TestTrackedVectorLifecycle(t *testing.T) {
	tracking := newTracking(t, memory.TrackingCreateOptions{})

	var v trackedVector
	for i := 0; i < 100; i++ {
		require.NoError(t, v.PushBack(int64(i)))
	}

	stats := tracking.Statistics()
	require.Equal(t, 1, stats.BlockCount)
	require.Equal(t, 1, stats.AllocationCount)
	// 1 -> 2 -> 3 -> 4 -> 6 -> 9 -> 13 -> 19 -> 28 -> 42 -> 63 -> 94 -> 141
	require.Equal(t, 12, stats.ReallocationCount)
	require.Equal(t, uint32(141), v.Capacity())
	require.GreaterOrEqual(t, stats.BlockBytes, 141*8)
	require.NoError(t, tracking.Validate())

	var detailed memutils.DetailedStatistics
	detailed.Clear()
	tracking.AddDetailedStatistics(&detailed)
	require.Equal(t, stats.BlockBytes, detailed.BlockSizeMin)
	require.Equal(t, stats.BlockBytes, detailed.BlockSizeMax)

	v.Release()
	require.NoError(t, tracking.CheckLeaks())
	require.Equal(t, 0, tracking.Statistics().BlockBytes)
	require.Equal(t, 1, tracking.Statistics().FreeCount)
}

func TestTrackedCopiesAndMoves(t *testing.T) {
	tracking := newTracking(t, memory.TrackingCreateOptions{})

	var a trackedVector
	require.NoError(t, a.Append(1, 2, 3))

	b, err := a.Clone()
	require.NoError(t, err)
	require.Equal(t, 2, tracking.LiveBlockCount())

	var c trackedVector
	require.NoError(t, c.CopyFrom(&b))
	require.Equal(t, 3, tracking.LiveBlockCount())

	c.MoveFrom(&a)
	require.Equal(t, 2, tracking.LiveBlockCount())

	d := c.Take()
	require.Equal(t, 2, tracking.LiveBlockCount())
	require.True(t, d.Equal(&b))

	err = tracking.CheckLeaks()
	require.ErrorIs(t, err, memory.ErrLeakedBlocks)

	b.Release()
	d.Release()
	require.NoError(t, tracking.CheckLeaks())
	require.NoError(t, tracking.Validate())
}

func TestTrackedByteLimit(t *testing.T) {
	tracking := newTracking(t, memory.TrackingCreateOptions{ByteLimit: 256})

	var v trackedVector
	err := v.Reserve(100)
	require.ErrorIs(t, err, memory.ErrOutOfMemory)
	require.False(t, v.Allocated())

	for err == nil {
		err = v.PushBack(int64(v.Size()))
	}
	require.ErrorIs(t, err, memory.ErrOutOfMemory)
	require.NotZero(t, v.Size())
	require.Equal(t, v.Size(), v.Capacity())
	for i, value := range v.All() {
		require.Equal(t, int64(i), value)
	}
	require.LessOrEqual(t, tracking.Statistics().BlockBytes, 256)
	require.NoError(t, v.Validate())

	v.Release()
	require.NoError(t, tracking.CheckLeaks())
}
