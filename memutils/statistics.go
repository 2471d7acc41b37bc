package memutils

import "math"

// Statistics summarizes the traffic an allocator has seen. Block values describe memory that is
// currently live, Allocation values are running totals since the last Clear.
type Statistics struct {
	BlockCount        int
	BlockBytes        int
	PeakBlockBytes    int
	AllocationCount   int
	AllocationBytes   int
	ReallocationCount int
	FreeCount         int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.BlockBytes = 0
	s.PeakBlockBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
	s.ReallocationCount = 0
	s.FreeCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.BlockBytes += other.BlockBytes
	s.PeakBlockBytes += other.PeakBlockBytes
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
	s.ReallocationCount += other.ReallocationCount
	s.FreeCount += other.FreeCount
}

// AddBlock records a newly live block of the provided size
func (s *Statistics) AddBlock(size int) {
	s.BlockCount++
	s.BlockBytes += size
	s.AllocationCount++
	s.AllocationBytes += size

	if s.BlockBytes > s.PeakBlockBytes {
		s.PeakBlockBytes = s.BlockBytes
	}
}

// ResizeBlock records a live block changing size from oldSize to newSize
func (s *Statistics) ResizeBlock(oldSize, newSize int) {
	s.ReallocationCount++
	s.BlockBytes += newSize - oldSize

	if newSize > oldSize {
		s.AllocationBytes += newSize - oldSize
	}

	if s.BlockBytes > s.PeakBlockBytes {
		s.PeakBlockBytes = s.BlockBytes
	}
}

// RemoveBlock records a live block of the provided size being freed
func (s *Statistics) RemoveBlock(size int) {
	s.BlockCount--
	s.BlockBytes -= size
	s.FreeCount++
}

type DetailedStatistics struct {
	Statistics
	BlockSizeMin int
	BlockSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.BlockSizeMin = math.MaxInt
	s.BlockSizeMax = 0
}

// AddBlockSize folds the size of a single live block into the min/max range
func (s *DetailedStatistics) AddBlockSize(size int) {
	if size < s.BlockSizeMin {
		s.BlockSizeMin = size
	}

	if size > s.BlockSizeMax {
		s.BlockSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)

	if other.BlockSizeMin < s.BlockSizeMin {
		s.BlockSizeMin = other.BlockSizeMin
	}

	if other.BlockSizeMax > s.BlockSizeMax {
		s.BlockSizeMax = other.BlockSizeMax
	}
}
