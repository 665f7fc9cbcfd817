// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package stat drives a small Pool-over-Slab allocation workload and
// formats its resulting Stats, factored out of cmd/holdstat so it can be
// unit tested without shelling out to the built binary.
package stat

import (
	"fmt"

	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/heap"
	"github.com/fmstephe/offheap-hold/poolhold"
)

// Report is the outcome of a single Run: how many allocations succeeded
// before the workload finished, and the Pool's live block count after every
// other allocation was freed.
type Report struct {
	Allocs int
	Live   int
}

func (r Report) String() string {
	return fmt.Sprintf("allocs=%d live=%d", r.Allocs, r.Live)
}

// Run allocates count 8-byte blocks from a Pool backed by a Slab of the
// given unit/slab size, deallocates every other one, reports the resulting
// live count, then frees the rest so the Pool can be torn down cleanly.
// It returns an error only if the very first allocation fails (a
// misconfigured unit/slab size): OOM mid-run is expected workload
// behavior, not a misconfiguration, so it is absorbed into the Report
// rather than propagated.
func Run(unitSize, slabSize uint64, count int) (Report, error) {
	slabConf := heap.NewSlabConfigBySize(unitSize, slabSize)
	slab := heap.NewSlab(slabConf)
	defer slab.Destroy()

	// Each Pack the Pool acquires is one Slab unit, so its size must not
	// exceed the Slab's (possibly rounded-up) unit size; poolhold.New's
	// DefaultPackSize (64KiB) would make every pack request Oversized
	// against a small workload Slab like the ones callers configure here.
	pool := poolhold.NewSized(slab, uintptr(slabConf.UnitSize))
	defer pool.Destroy()

	usize := block.Must(8, 8)

	blocks := make([]block.Block, 0, count)
	for i := 0; i < count; i++ {
		b, err := pool.Alloc(usize)
		if err != nil {
			if i == 0 {
				return Report{}, fmt.Errorf("holdstat: first allocation failed: %w", err)
			}
			break
		}
		*(*uint64)(b.Ptr()) = uint64(i)
		blocks = append(blocks, b)
	}

	for i, b := range blocks {
		if i%2 == 0 {
			pool.Dealloc(b)
		}
	}
	liveAfterHalfFreed := pool.Live()

	// Free the remainder too so the deferred pool.Destroy doesn't trip
	// its leaky-pool panic; the reported Live reflects the state right
	// after the half-free pass above, before this final cleanup.
	for i, b := range blocks {
		if i%2 != 0 {
			pool.Dealloc(b)
		}
	}

	return Report{Allocs: len(blocks), Live: liveAfterHalfFreed}, nil
}
