package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/heap"
	"github.com/joshuapare/memkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	backend string
	reserve int

	// stdout is where command output goes; replaced in tests.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Inspect and exercise the memkit allocators",
	Long: `memctl creates a private heap with the chosen backend and runs the
memkit allocator layers over it: the buddy allocator, arenas and scratch pools.
It reports heap placement, allocator statistics and workload behavior.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug})
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&backend, "backend", heap.BackendNative, "Heap backend: native, guest, syscall, mapped, virtual")
	rootCmd.PersistentFlags().
		IntVar(&reserve, "reserve", 0, "Heap reservation in bytes (0 = backend default)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openHeap creates and initializes a private heap from the global flags.
func openHeap() (*heap.Heap, error) {
	h, err := heap.New(heap.Options{Backend: backend, Reserve: reserve})
	if err != nil {
		return nil, err
	}
	if err := h.Init(); err != nil {
		return nil, err
	}
	printVerbose("Heap reserved: backend=%s reserve=%d\n", h.Backend(), h.Reserved())
	return h, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
