package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cod-technologies/fallacy/alloc"
	"github.com/cod-technologies/fallacy/hmap"
	"github.com/cod-technologies/fallacy/strbuf"
	"github.com/cod-technologies/fallacy/vec"
)

func init() {
	rootCmd.AddCommand(newBenchCmd())
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run container workloads and report allocation traffic",
		Long: `The bench command pushes a configurable number of items through each
container and prints how far it got before the allocator refused.

Example:
  fallacybench bench --items 100000
  fallacybench bench --allocator arena --arena-size 65536 --workload map`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench()
		},
	}
	cmd.Flags().Int("items", 100000, "Number of items per workload")
	cmd.Flags().String("workload", "all", "Workload to run: vec, text, map, or all")
	return cmd
}

func runBench() error {
	items := viper.GetInt("items")
	workload := viper.GetString("workload")

	a, reg, err := buildAllocator()
	if err != nil {
		return err
	}

	run := func(name string, fn func(alloc.Allocator, int) (int, error)) error {
		start := time.Now()
		done, err := fn(a, items)
		elapsed := time.Since(start)
		switch {
		case err == nil:
			fmt.Printf("%-6s %d items in %v\n", name, done, elapsed)
		case errors.Is(err, alloc.ErrOutOfMemory):
			fmt.Printf("%-6s out of memory after %d of %d items (%v)\n", name, done, items, elapsed)
		default:
			return fmt.Errorf("%s workload: %w", name, err)
		}
		logger.Debug("workload finished",
			zap.String("workload", name),
			zap.Int("completed", done),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil
	}

	workloads := []struct {
		name string
		fn   func(alloc.Allocator, int) (int, error)
	}{
		{"vec", benchVec},
		{"text", benchText},
		{"map", benchMap},
	}
	for _, w := range workloads {
		if workload != "all" && workload != w.name {
			continue
		}
		if err := run(w.name, w.fn); err != nil {
			return err
		}
	}
	return dumpMetrics(reg)
}

func benchVec(a alloc.Allocator, items int) (int, error) {
	v := vec.New[int64](a)
	defer v.Free()
	for i := 0; i < items; i++ {
		if err := v.TryPush(int64(i)); err != nil {
			return i, err
		}
	}
	return items, nil
}

func benchText(a alloc.Allocator, items int) (int, error) {
	b := strbuf.New(a)
	defer b.Free()
	for i := 0; i < items; i++ {
		if err := b.TryPushString("héllo wörld "); err != nil {
			return i, err
		}
	}
	return items, nil
}

func benchMap(a alloc.Allocator, items int) (int, error) {
	m := hmap.New[uint64, uint64](a)
	defer m.Free()
	for i := 0; i < items; i++ {
		k := uint64(i)
		if _, _, err := m.TryInsert(k, k*k); err != nil {
			return i, err
		}
	}
	return items, nil
}
