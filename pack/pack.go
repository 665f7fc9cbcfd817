// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package pack

import (
	"sync/atomic"

	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/hold"
)

// Pack is a Hold that bump-allocates over a single backing Block. It
// reclaims space only when the most recently allocated block is freed; the
// bytes of any other freed block stay unusable for the Pack's lifetime.
type Pack struct {
	base    *packBase
	reified *alloctag.Reified

	live atomic.Int64
	used atomic.Int64
}

// New constructs a Pack bump-allocating over data.
func New(data block.Block) *Pack {
	p := &Pack{base: newPackBase(data)}
	p.reified = alloctag.NewReified(p)
	return p
}

var _ hold.Hold = (*Pack)(nil)

func (p *Pack) Alloc(l block.Layout) (block.Block, error) {
	b, err := p.base.alloc(l, p.reified)
	if err != nil {
		return block.Block{}, err
	}
	p.live.Add(1)
	p.used.Add(int64(l.Size))
	return b, nil
}

func (p *Pack) Dealloc(b block.Block) {
	p.base.dealloc(b)
	p.live.Add(-1)
	p.used.Add(-int64(b.Size()))
}

func (p *Pack) Resize(b block.Block, l block.Layout) (block.Block, error) {
	oldSize := b.Size()
	resized, err := p.base.resize(b, l)
	if err != nil {
		return block.Block{}, err
	}
	p.used.Add(int64(l.Size) - int64(oldSize))
	return resized, nil
}

func (p *Pack) Realloc(b block.Block, l block.Layout) (block.Block, error) {
	return hold.Realloc(p, b, l)
}

// Live returns the number of currently allocated blocks.
func (p *Pack) Live() int {
	return int(p.live.Load())
}

// Used returns the sum of requested sizes of all currently live
// allocations (not including AllocTag or alignment padding overhead).
func (p *Pack) Used() int {
	return int(p.used.Load())
}

// Free returns the number of unallocated bytes remaining in the pack's
// backing block.
func (p *Pack) Free() uintptr {
	return p.base.free()
}

// Size returns the total size of the pack's backing block.
func (p *Pack) Size() uintptr {
	return p.base.data.Size()
}
