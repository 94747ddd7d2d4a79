package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/arena"
	"github.com/joshuapare/memkit/buddy"
)

var (
	scenarioRounds    int
	scenarioChunkSize int
)

func init() {
	cmd := newScenarioCmd()
	cmd.Flags().IntVar(&scenarioRounds, "rounds", 2, "Number of reset-and-repeat rounds")
	cmd.Flags().IntVar(&scenarioChunkSize, "chunk-size", 4096, "Initial arena chunk size")
	rootCmd.AddCommand(cmd)
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run the arena reuse scenario",
		Long: `The scenario command starts from a one-page heap, creates an arena and
in every round allocates 100 integers and a 70,000 byte buffer before
resetting the arena to its first position. Rounds after the first should
reuse the arena's chunks and make no buddy allocations.

Example:
  memctl scenario
  memctl scenario --rounds 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario()
		},
	}
	return cmd
}

// RoundReport records allocator activity during one scenario round.
type RoundReport struct {
	Round       int   `json:"round"`
	BuddyAllocs int64 `json:"buddy_allocs"`
	HeapSize    int   `json:"heap_size"`
	Chunks      int   `json:"chunks"`
	ArenaInUse  int   `json:"arena_in_use"`
}

// ScenarioReport is the result of a scenario run.
type ScenarioReport struct {
	Backend     string        `json:"backend"`
	InitialHeap int           `json:"initial_heap"`
	Rounds      []RoundReport `json:"rounds"`
	Reused      bool          `json:"reused"`
}

func runScenario() error {
	if scenarioRounds < 1 {
		return fmt.Errorf("--rounds must be at least 1")
	}

	h, err := openHeap()
	if err != nil {
		return fmt.Errorf("failed to open heap: %w", err)
	}
	defer h.Close()

	bud, err := buddy.New(h, nil)
	if err != nil {
		return fmt.Errorf("failed to create allocator: %w", err)
	}
	report := ScenarioReport{Backend: h.Backend(), InitialHeap: h.Size(), Reused: true}

	a, err := arena.NewWithSource(bud, scenarioChunkSize)
	if err != nil {
		return fmt.Errorf("failed to create arena: %w", err)
	}
	defer a.Free()

	for round := 1; round <= scenarioRounds; round++ {
		before := bud.Stats().AllocCalls

		ints, err := arena.AllocSlice[int64](a, 100)
		if err != nil {
			return fmt.Errorf("round %d: ints: %w", round, err)
		}
		for i := range ints {
			ints[i] = int64(i)
		}
		if _, err := a.Alloc(70000); err != nil {
			return fmt.Errorf("round %d: buffer: %w", round, err)
		}

		r := RoundReport{
			Round:       round,
			BuddyAllocs: bud.Stats().AllocCalls - before,
			HeapSize:    h.Size(),
			Chunks:      a.ChunkCount(),
			ArenaInUse:  a.SizeInUse(),
		}
		if round > 1 && r.BuddyAllocs != 0 {
			report.Reused = false
		}
		report.Rounds = append(report.Rounds, r)
		a.Reset(a.FirstPos())
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("\nScenario (%s backend, initial heap %d bytes):\n", report.Backend, report.InitialHeap)
	for _, r := range report.Rounds {
		printInfo("  Round %d: %d buddy allocs, heap %d bytes, %d chunks, %d bytes in use\n",
			r.Round, r.BuddyAllocs, r.HeapSize, r.Chunks, r.ArenaInUse)
	}
	if report.Reused {
		printInfo("  ✓ Chunks reused after reset\n")
	} else {
		printInfo("  ✗ Buddy allocations after reset\n")
	}
	return nil
}
