package memory

import (
	"strings"

	"github.com/vkngwrapper/compact/memory/internal/utils"
	"golang.org/x/exp/slog"
)

// TrackingCreateFlags indicate specific tracking allocator behaviors to activate or deactivate
type TrackingCreateFlags int32

var trackingCreateFlagsMapping = make(map[TrackingCreateFlags]string)

func (f TrackingCreateFlags) Register(str string) {
	trackingCreateFlagsMapping[f] = str
}

func (f TrackingCreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := TrackingCreateFlags(1); bit != 0; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		name, ok := trackingCreateFlagsMapping[bit]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// TrackingCreateExternallySynchronized ensures that the tracking allocator will not be synchronized
	// internally. The consumer must guarantee it is used from only one goroutine at a time or is
	// synchronized by some other mechanism, but performance may improve because internal mutexes are
	// not used.
	TrackingCreateExternallySynchronized TrackingCreateFlags = 1 << iota
	// TrackingCreateLogBlocks causes every allocation, reallocation and free to be logged at debug level
	// with its address and size, rather than only the method name.
	TrackingCreateLogBlocks
)

func init() {
	TrackingCreateExternallySynchronized.Register("TrackingCreateExternallySynchronized")
	TrackingCreateLogBlocks.Register("TrackingCreateLogBlocks")
}

const (
	// defaultTrackedBlockCapacity is the number of live blocks the tracking map is sized for
	// at creation when TrackingCreateOptions.ExpectedBlocks is left at 0
	defaultTrackedBlockCapacity int = 64
)

// TrackingCreateOptions contains optional settings when creating a tracking allocator
type TrackingCreateOptions struct {
	// Flags indicates specific tracking allocator behaviors to activate or deactivate
	Flags TrackingCreateFlags

	// ByteLimit can be left at 0. If it is provided, it is the maximum number of bytes that may be
	// live across all blocks handed out by the tracking allocator at one time. The limit will be
	// enforced at runtime: requests that would exceed it fail with ErrOutOfMemory without reaching
	// the upstream allocator.
	ByteLimit int

	// ExpectedBlocks is a sizing hint for the number of blocks that will be live at once
	ExpectedBlocks int
}

// NewTrackingAllocator creates a new TrackingAllocator
//
// logger - Receives debug-level traces of allocator traffic and error-level reports of misuse. If nil,
// slog.Default() is used
//
// upstream - The Allocator that actually provides memory. If nil, DefaultAllocator is used
//
// options - Optional parameters: it is valid to leave all the fields blank
func NewTrackingAllocator(logger *slog.Logger, upstream Allocator, options TrackingCreateOptions) *TrackingAllocator {
	if logger == nil {
		logger = slog.Default()
	}

	if upstream == nil {
		upstream = DefaultAllocator
	}

	expectedBlocks := options.ExpectedBlocks
	if expectedBlocks <= 0 {
		expectedBlocks = defaultTrackedBlockCapacity
	}

	allocator := &TrackingAllocator{
		logger:    logger,
		upstream:  upstream,
		flags:     options.Flags,
		byteLimit: options.ByteLimit,
		mutex:     utils.NewOptionalMutex(options.Flags&TrackingCreateExternallySynchronized == 0),
	}
	allocator.init(expectedBlocks)

	logger.Debug("TrackingAllocator::New",
		slog.String("Flags", options.Flags.String()),
		slog.Int("ByteLimit", options.ByteLimit),
	)

	return allocator
}
