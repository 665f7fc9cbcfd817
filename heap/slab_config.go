// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package heap

import (
	"github.com/fmstephe/flib/fmath"
)

// SlabConfig describes the fixed-unit geometry of a Slab: every unit is the
// same power-of-two size, and units are packed contiguously into one
// backing slab acquired via mmap.
type SlabConfig struct {
	RequestedUnitSize uint64
	RequestedSlabSize uint64

	UnitSize      uint64
	UnitsPerSlab  uint64
	TotalSlabSize uint64
}

// NewSlabConfigBySize rounds requestedUnitSize up to a power of two (so
// that every unit's address within a slab is naturally aligned to the unit
// size), and fits as many such units as possible into a slab sized to at
// least requestedSlabSize bytes, grounded on the sizing algorithm
// offheap/internal/pointerstore/allocation_config.go uses for its typed
// object slabs.
func NewSlabConfigBySize(requestedUnitSize, requestedSlabSize uint64) SlabConfig {
	unitSize := uint64(fmath.NxtPowerOfTwo(int64(requestedUnitSize)))

	totalSlabSize := uint64(fmath.NxtPowerOfTwo(int64(requestedSlabSize)))
	if totalSlabSize < unitSize {
		// The slab is too small for even one unit at the requested
		// size; fall back to exactly one unit per slab.
		totalSlabSize = unitSize
	}

	unitsPerSlab := totalSlabSize / unitSize

	return SlabConfig{
		RequestedUnitSize: requestedUnitSize,
		RequestedSlabSize: requestedSlabSize,

		UnitSize:      unitSize,
		UnitsPerSlab:  unitsPerSlab,
		TotalSlabSize: totalSlabSize,
	}
}
