// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package hold

import (
	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
)

// emptyHold is the process-wide Hold that serves every zero-sized
// allocation from a single shared sentinel block, and rejects every
// non-zero request.
type emptyHold struct {
	reified *alloctag.Reified
}

var theEmptyHold = newEmptyHold()

func newEmptyHold() *emptyHold {
	e := &emptyHold{}
	e.reified = alloctag.NewReified(e)
	return e
}

// Empty returns the process-wide singleton Hold that only ever serves
// zero-sized allocations.
func Empty() Hold {
	return theEmptyHold
}

// EmptyReified returns the Reified box for the empty Hold, for allocators
// that need a placeholder AllocTag target before a real Hold is known (for
// example a pack header statically initialized before HoldScope is
// entered).
func EmptyReified() *alloctag.Reified {
	return theEmptyHold.reified
}

func (e *emptyHold) Alloc(l block.Layout) (block.Block, error) {
	if l.Size != 0 {
		return block.Block{}, NewUnsupported("empty hold cannot satisfy a non-zero-sized allocation")
	}
	return block.Empty, nil
}

func (e *emptyHold) Dealloc(b block.Block) {
	if !b.IsEmpty() {
		panic("hold: empty hold asked to deallocate a non-zero-sized block")
	}
}

func (e *emptyHold) Resize(b block.Block, l block.Layout) (block.Block, error) {
	if !b.IsEmpty() || l.Size != 0 {
		return block.Block{}, NewUnsupported("empty hold cannot resize to a non-zero size")
	}
	return block.Empty, nil
}

func (e *emptyHold) Realloc(b block.Block, l block.Layout) (block.Block, error) {
	return Realloc(e, b, l)
}
