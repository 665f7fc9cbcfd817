// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package heap defines the Heap trait, the lowest layer of the allocator
// stack: an untagged allocator of raw Blocks. Heap implementations know
// nothing about AllocTag; callers are responsible for remembering which
// Heap allocated a given Block.
package heap

import (
	"errors"

	"github.com/fmstephe/offheap-hold/block"
)

// Heap is a low-level, untagged allocator of raw memory blocks.
type Heap interface {
	Alloc(l block.Layout) (block.Block, error)
	Dealloc(b block.Block) (freedBytes uintptr)
}

// Error taxonomy for Heap operations: the Layout errors plus OutOfMemory
// and Unsupported.
var (
	ErrMisaligned  = block.ErrMisaligned
	ErrOversized   = block.ErrOversized
	ErrOutOfMemory = errors.New("heap: out of memory")
)

// Unsupported reports that a Heap does not implement the requested
// operation, carrying a static reason.
type Unsupported struct {
	Reason string
}

func (u Unsupported) Error() string {
	return "heap: unsupported: " + u.Reason
}
