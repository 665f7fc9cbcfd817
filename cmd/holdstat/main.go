// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Command holdstat drives a synthetic allocation workload over a Pool and
// reports its allocation and live-block counts, as a small, independently runnable
// exercise of the allocator stack outside of the test suite.
package main

import (
	"fmt"
	"os"

	"github.com/fmstephe/offheap-hold/cmd/holdstat/internal/stat"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var unitSize, slabSize uint64
	var allocCount int

	root := &cobra.Command{
		Use:   "holdstat",
		Short: "Report allocation and live-block counts for a Pool over a Slab",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := stat.Run(unitSize, slabSize, allocCount)
			if err != nil {
				return err
			}
			cmd.Println(report)
			return nil
		},
	}

	root.Flags().Uint64Var(&unitSize, "unit-size", 256, "Slab unit size in bytes")
	root.Flags().Uint64Var(&slabSize, "slab-size", 1<<16, "Slab total size in bytes")
	root.Flags().IntVar(&allocCount, "allocs", 1000, "Number of 8-byte allocations to make")

	return root
}
