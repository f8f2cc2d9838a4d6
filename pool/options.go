package pool

import (
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/buflib/internal/format"
)

// logAllocEnv enables debug logging to stderr for contexts created without
// an explicit Logger.
const logAllocEnv = "BUFLIB_LOG_ALLOC"

// Options configures a Context.
type Options struct {
	// SplitThreshold is the smallest remainder, in cells, that is split off
	// a free block as a new free block. Smaller remainders stay with the
	// allocation.
	SplitThreshold int

	// HandleReserve is the number of tail cells Available and Allocatable
	// keep back for future handle-table growth.
	HandleReserve int

	// MaxCompactRounds bounds how many compaction passes AllocMaximum runs
	// while passes still make progress.
	MaxCompactRounds int

	// CheckInvariants verifies the whole buffer after every mutating call
	// and panics with ErrCorrupt on the first violation. Tests only.
	CheckInvariants bool

	// Logger receives debug events (compaction passes, moves, shrinks,
	// failed allocations). nil means discard, unless BUFLIB_LOG_ALLOC is set.
	Logger *slog.Logger
}

// DefaultOptions is used by New when opts is nil. A supplied Options with a
// zero SplitThreshold or MaxCompactRounds falls back to these values.
var DefaultOptions = Options{
	SplitThreshold:   format.FreeHeaderCells,
	HandleReserve:    16,
	MaxCompactRounds: 8,
}

func (o Options) withDefaults() Options {
	if o.SplitThreshold < format.FreeHeaderCells {
		o.SplitThreshold = DefaultOptions.SplitThreshold
	}
	if o.HandleReserve < 0 {
		o.HandleReserve = 0
	}
	if o.MaxCompactRounds <= 0 {
		o.MaxCompactRounds = DefaultOptions.MaxCompactRounds
	}
	if o.Logger == nil {
		o.Logger = defaultLogger()
	}
	return o
}

func defaultLogger() *slog.Logger {
	if os.Getenv(logAllocEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
