package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/buddy"
)

var (
	statsOps     int
	statsSeed    int64
	statsMaxSize int
	statsKeep    bool
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsOps, "ops", 10000, "Number of alloc/free operations")
	cmd.Flags().Int64Var(&statsSeed, "seed", 1, "Workload random seed")
	cmd.Flags().IntVar(&statsMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().BoolVar(&statsKeep, "keep", false, "Keep live blocks instead of freeing them at the end")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a random workload and show buddy allocator statistics",
		Long: `The stats command runs a seeded mix of allocations and frees over a
private buddy allocator and prints its statistics: call counts, splits and
merges, heap growth and the free blocks left per order.

Example:
  memctl stats
  memctl stats --ops 100000 --max-size 65536
  memctl stats --backend guest --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
	return cmd
}

func runStats() error {
	if statsOps < 0 || statsMaxSize < 0 {
		return fmt.Errorf("--ops and --max-size must not be negative")
	}

	h, err := openHeap()
	if err != nil {
		return fmt.Errorf("failed to open heap: %w", err)
	}
	defer h.Close()

	a, err := buddy.New(h, nil)
	if err != nil {
		return fmt.Errorf("failed to create allocator: %w", err)
	}

	rng := rand.New(rand.NewSource(statsSeed))
	var live [][]byte
	for i := range statsOps {
		if len(live) > 0 && rng.Intn(2) == 0 {
			j := rng.Intn(len(live))
			if err := a.Free(live[j]); err != nil {
				return fmt.Errorf("op %d: free: %w", i, err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		b, err := a.Alloc(rng.Intn(statsMaxSize + 1))
		if err != nil {
			return fmt.Errorf("op %d: alloc: %w", i, err)
		}
		live = append(live, b)
	}
	printVerbose("Workload done: %d live blocks\n", len(live))

	if !statsKeep {
		for _, b := range live {
			if err := a.Free(b); err != nil {
				return fmt.Errorf("final free: %w", err)
			}
		}
	}

	if jsonOut {
		return printJSON(a.Stats())
	}
	if !quiet {
		a.PrintStats(stdout)
	}
	return nil
}
