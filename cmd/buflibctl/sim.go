package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/buflib/arena"
	"github.com/joshuapare/buflib/cmd/buflibctl/logger"
	"github.com/joshuapare/buflib/pool"
	"github.com/joshuapare/buflib/sim"
)

var (
	simSize     string
	simSteps    int
	simSeed     int64
	simMaxAlloc int
	simBacking  string
	simDump     bool
	simParanoid bool
)

func init() {
	cmd := newSimCmd()
	cmd.Flags().StringVar(&simSize, "size", "64k", "Pool buffer size (e.g. 4096, 64k, 1m)")
	cmd.Flags().IntVar(&simSteps, "steps", sim.DefaultConfig.Steps, "Number of workload steps")
	cmd.Flags().Int64Var(&simSeed, "seed", sim.DefaultConfig.Seed, "Workload seed")
	cmd.Flags().IntVar(&simMaxAlloc, "max-alloc", sim.DefaultConfig.MaxAlloc, "Largest payload requested, in bytes")
	cmd.Flags().StringVar(&simBacking, "backing", "heap", "Buffer backing: heap or mmap")
	cmd.Flags().BoolVar(&simDump, "dump", false, "Print the final block layout")
	cmd.Flags().BoolVar(&simParanoid, "paranoid", false, "Verify the pool inside every allocator call")
	rootCmd.AddCommand(cmd)
}

func newSimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sim",
		Short: "Run a random workload against a pool",
		Long: `The sim command creates a pool and drives it with a seeded mix of
allocations, frees, pins, shrinks and compactions. After every step it checks
that payloads are intact, pinned payloads have not moved, and every structural
invariant holds. The first violation aborts the run with a non-zero exit.

Example:
  buflibctl sim
  buflibctl sim --size 1m --steps 100000 --seed 7
  buflibctl sim --size 8k --backing mmap --dump --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runSim(ctx)
		},
	}
}

type simOutput struct {
	Size     int         `json:"size"`
	Backing  string      `json:"backing"`
	Duration string      `json:"duration"`
	Report   sim.Report  `json:"report"`
	Layout   []blockJSON `json:"layout,omitempty"`
}

type blockJSON struct {
	Cell   int         `json:"cell"`
	Cells  int         `json:"cells"`
	Free   bool        `json:"free,omitempty"`
	Handle pool.Handle `json:"handle,omitempty"`
	Size   int         `json:"size,omitempty"`
	Pins   int         `json:"pins,omitempty"`
}

func runSim(ctx context.Context) error {
	size, err := parseSize(simSize)
	if err != nil {
		return err
	}
	kind, err := arena.ParseKind(simBacking)
	if err != nil {
		return err
	}

	buf, err := arena.New(kind, size)
	if err != nil {
		return err
	}
	defer buf.Close()

	p, err := pool.New(buf.Bytes(), &pool.Options{
		CheckInvariants: simParanoid,
		Logger:          poolLogger(),
	})
	if err != nil {
		return err
	}

	printVerbose("Pool: %d bytes (%s), seed %d, %d steps\n", size, kind, simSeed, simSteps)
	logger.Info("sim start", "size", size, "backing", kind.String(), "seed", simSeed, "steps", simSteps)

	start := time.Now()
	rep, runErr := sim.Run(ctx, p, sim.Config{
		Steps:         simSteps,
		Seed:          simSeed,
		MaxAlloc:      simMaxAlloc,
		ProgressEvery: sim.DefaultConfig.ProgressEvery,
		Logger:        logger.L,
	})
	elapsed := time.Since(start)
	logger.Info("sim done", "steps", rep.Steps, "duration", elapsed, "violation", rep.Violation)

	if jsonOut {
		out := simOutput{Size: size, Backing: kind.String(), Duration: elapsed.String(), Report: rep}
		if simDump {
			p.Walk(func(b pool.BlockInfo) bool {
				out.Layout = append(out.Layout, blockJSON{
					Cell: b.Cell, Cells: b.Cells, Free: b.Free, Handle: b.Handle, Size: b.Size, Pins: b.Pins,
				})
				return true
			})
		}
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		printReport(rep, elapsed)
		if simDump && !quiet {
			p.Dump(rootCmd.OutOrStdout())
		}
	}

	if errors.Is(runErr, context.Canceled) {
		printInfo("Interrupted after %d steps\n", rep.Steps)
		return nil
	}
	if runErr != nil {
		return fmt.Errorf("simulation failed: %w", runErr)
	}
	return nil
}

func printReport(rep sim.Report, elapsed time.Duration) {
	printInfo("Steps:        %d (%s)\n", rep.Steps, elapsed.Round(time.Millisecond))
	printInfo("Allocations:  %d ok, %d out of memory\n", rep.Allocs, rep.AllocFailures)
	printInfo("Frees:        %d\n", rep.Frees)
	printInfo("Pins:         %d pin, %d unpin\n", rep.Pins, rep.Unpins)
	printInfo("Shrinks:      %d explicit, %d trimmed, %d released by owner\n", rep.Shrinks, rep.Trims, rep.Releases)
	printInfo("Compaction:   %d passes, %d moves\n", rep.Pool.CompactPasses, rep.Pool.Moves)
	printInfo("Live:         %d (peak %d)\n", rep.Live, rep.PeakLive)
	if rep.Violation != "" {
		printInfo("Violation:    %s\n", rep.Violation)
	}
}

// poolLogger returns nil unless logging was enabled on the command line, so
// the pool falls back to its BUFLIB_LOG_ALLOC toggle.
func poolLogger() *slog.Logger {
	if !logger.Enabled() {
		return nil
	}
	return logger.L
}
