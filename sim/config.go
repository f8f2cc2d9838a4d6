package sim

import "log/slog"

// Config controls a simulation run.
type Config struct {
	Steps    int   // Workload steps to run
	Seed     int64 // Seed for the workload generator
	MaxAlloc int   // Largest payload requested, in bytes

	// ProgressEvery logs a progress line every that many steps. Zero
	// disables progress logging.
	ProgressEvery int

	// Logger receives progress and violation events. nil discards them.
	Logger *slog.Logger
}

// DefaultConfig is a short run suitable for tests and the CLI default.
var DefaultConfig = Config{
	Steps:         10000,
	Seed:          1,
	MaxAlloc:      512,
	ProgressEvery: 1000,
}

func (c Config) withDefaults() Config {
	if c.Steps <= 0 {
		c.Steps = DefaultConfig.Steps
	}
	if c.MaxAlloc <= 0 {
		c.MaxAlloc = DefaultConfig.MaxAlloc
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}
