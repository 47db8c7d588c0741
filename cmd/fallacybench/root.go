package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cod-technologies/fallacy/alloc"
)

var (
	// Global flags
	verbose     bool
	allocName   string
	arenaSize   int
	budget      int
	showMetrics bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "fallacybench",
	Short: "Exercise fallible containers against pluggable allocators",
	Long: `fallacybench runs container workloads (growable arrays, text buffers,
hash maps) on top of the library's allocators and reports how much memory
moved and where allocation failed. It is the quickest way to compare the
heap, arena, and mmap backends under a memory budget.

Configuration can be set via flags or environment variables with the
FALLACY_ prefix (e.g. FALLACY_BUDGET=1048576).`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		allocName = viper.GetString("allocator")
		arenaSize = viper.GetInt("arena-size")
		budget = viper.GetInt("budget")
		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		}
		return nil
	},
}

func init() {
	viper.SetEnvPrefix("FALLACY")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every allocator operation")
	rootCmd.PersistentFlags().
		StringVar(&allocName, "allocator", "heap", "Backing allocator: heap, arena, or mmap")
	rootCmd.PersistentFlags().
		IntVar(&arenaSize, "arena-size", 1<<20, "Arena capacity in bytes (allocator=arena)")
	rootCmd.PersistentFlags().
		IntVar(&budget, "budget", 0, "Hard byte budget enforced on top of the allocator, 0 for none")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", true, "Print allocation counters on exit")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildAllocator assembles the allocator stack selected by the global
// flags: base backend, optional budget limit, metrics, and tracing.
func buildAllocator() (alloc.Allocator, *prometheus.Registry, error) {
	var base alloc.Allocator
	switch allocName {
	case "heap":
		base = alloc.Heap{}
	case "arena":
		base = alloc.NewArena(arenaSize)
	case "mmap":
		m, err := alloc.NewMmap()
		if err != nil {
			return nil, nil, err
		}
		base = m
	default:
		return nil, nil, fmt.Errorf("unknown allocator %q (want heap, arena, or mmap)", allocName)
	}

	if budget > 0 {
		base = alloc.NewLimit(base, budget)
	}

	reg := prometheus.NewRegistry()
	metered, err := alloc.NewMetered(base, reg)
	if err != nil {
		return nil, nil, err
	}

	var a alloc.Allocator = metered
	if verbose {
		a = alloc.NewTraced(a, logger)
	}
	return a, reg, nil
}

// dumpMetrics prints every counter and gauge in the registry, sorted by
// metric name.
func dumpMetrics(reg *prometheus.Registry) error {
	if !showMetrics {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	fmt.Println("\nAllocation counters:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			fmt.Printf("  %-40s %.0f\n", mf.GetName(), v)
		}
	}
	return nil
}
