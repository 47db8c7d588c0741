package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cod-technologies/fallacy/alloc"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show allocator backends and the layouts of common element types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo()
		},
	}
	return cmd
}

func runInfo() error {
	fmt.Println("Backends:")
	fmt.Println("  heap   collector-traced, supports pointer-bearing element types")
	fmt.Printf("  arena  bump-pointer, pointer-free types only, capacity %d bytes\n", arenaSize)
	if m, err := alloc.NewMmap(); err != nil {
		fmt.Printf("  mmap   unavailable: %v\n", err)
	} else {
		fmt.Printf("  mmap   anonymous mappings, page size %d bytes\n", m.PageSize())
	}
	fmt.Printf("\nPage size reported by the OS: %d bytes\n", os.Getpagesize())

	type row struct {
		name string
		lay  alloc.Layout
	}
	rows := []row{
		{"byte", alloc.Of[byte]()},
		{"int64", alloc.Of[int64]()},
		{"string", alloc.Of[string]()},
		{"[2]uint64", alloc.Of[[2]uint64]()},
		{"struct{K,V uint64}", alloc.Of[struct{ K, V uint64 }]()},
	}
	fmt.Println("\nElement layouts:")
	fmt.Printf("  %-20s %6s %6s %9s\n", "type", "size", "align", "pointers")
	for _, r := range rows {
		fmt.Printf("  %-20s %6d %6d %9v\n", r.name, r.lay.Size(), r.lay.Align(), r.lay.Pointers())
	}

	fmt.Println("\nGrowth policy (capacity after reserving one more element):")
	for _, c := range []int{0, 4, 8, 100, 1000} {
		next, err := alloc.GrowCapacity(c, c, 1, 4)
		if err != nil {
			return err
		}
		fmt.Printf("  %6d -> %d\n", c, next)
	}
	return nil
}
