// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package poolhold implements Pool: a Hold that is a lock-free stack of
// Packs acquired on demand from a Heap, grounded on the pool growth
// algorithm in original_source/lib/memory/alloc/pool.rs.
package poolhold

import (
	"sync/atomic"

	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/heap"
	"github.com/fmstephe/offheap-hold/hold"
	"github.com/fmstephe/offheap-hold/pack"
)

// DefaultPackSize is the size of each Pack the Pool acquires from its Heap
// when the current head pack has no room, absent a request large enough to
// need a bigger one.
const DefaultPackSize = 1 << 16

// packOverhead is reserved alongside a request's own size when a pack must
// be sized larger than DefaultPackSize to satisfy one oversized request;
// it approximates "layout extended by the pack header" without requiring
// the header to be co-located in the backing block (see pack.packBase's
// doc comment for why).
const packOverhead = 64

type packListNode struct {
	pack    *pack.Pack
	backing block.Block
	next    *packListNode
}

// Pool is a Hold that grows by acquiring further Packs from an underlying
// Heap as its current packs fill up.
type Pool struct {
	heap         heap.Heap
	packSize     uintptr
	head         atomic.Pointer[packListNode]
	live         atomic.Int64
	destroyed    atomic.Bool
	packAlign    uintptr
}

var _ hold.Hold = (*Pool)(nil)

// New constructs a Pool that acquires Packs of DefaultPackSize (or larger,
// for requests that don't fit) from h.
func New(h heap.Heap) *Pool {
	return NewSized(h, DefaultPackSize)
}

// NewSized is New but with an explicit default pack size.
func NewSized(h heap.Heap, packSize uintptr) *Pool {
	return &Pool{
		heap:      h,
		packSize:  packSize,
		packAlign: 8,
	}
}

func (p *Pool) Alloc(l block.Layout) (block.Block, error) {
	head := p.head.Load()
	if head != nil {
		if b, err := head.pack.Alloc(l); err == nil {
			p.live.Add(1)
			return b, nil
		}
	}
	return p.allocSlow(l, head)
}

func (p *Pool) allocSlow(l block.Layout, observed *packListNode) (block.Block, error) {
	packSize := p.packSize
	// Upper bound on what the request takes in a fresh pack: its tag, the
	// worst-case alignment padding, and its tag-rounded size.
	if fit := alloctag.Size + alloctag.Align + l.Align + l.Size; fit > packSize {
		packSize = l.Size + packOverhead
		if fit > packSize {
			packSize = fit
		}
	}

	backing, err := p.heap.Alloc(block.Must(packSize, p.packAlign))
	if err != nil {
		return block.Block{}, err
	}
	newPack := pack.New(backing)

	// Pre-allocate the triggering request inside the new pack before it
	// is ever published, so that by the time another thread can observe
	// it, it already serves this request.
	b, err := newPack.Alloc(l)
	if err != nil {
		p.heap.Dealloc(backing)
		return block.Block{}, err
	}

	node := &packListNode{pack: newPack, backing: backing}
	current := observed
	for {
		node.next = current
		if p.head.CompareAndSwap(current, node) {
			p.live.Add(1)
			return b, nil
		}

		// Lost the race to publish; re-read the head and check if it
		// now has room for this request before retrying publication
		// of our speculative pack.
		current = p.head.Load()
		if current != nil {
			if b2, err2 := current.pack.Alloc(l); err2 == nil {
				p.heap.Dealloc(backing)
				p.live.Add(1)
				return b2, nil
			}
		}
	}
}

func (p *Pool) Dealloc(b block.Block) {
	alloctag.FromPtr(b).Dealloc(b)
	p.live.Add(-1)
}

func (p *Pool) Resize(b block.Block, l block.Layout) (block.Block, error) {
	return alloctag.FromPtr(b).Resize(b, l)
}

func (p *Pool) Realloc(b block.Block, l block.Layout) (block.Block, error) {
	return hold.Realloc(p, b, l)
}

// Live returns the total number of currently allocated blocks across every
// pack in the pool.
func (p *Pool) Live() int {
	return int(p.live.Load())
}

// Destroy frees every pack back to the underlying Heap. Panics if any
// allocation made from this Pool is still live: a leaky pool is a contract
// violation, not a recoverable error.
func (p *Pool) Destroy() {
	if !p.destroyed.CompareAndSwap(false, true) {
		return
	}
	if p.live.Load() != 0 {
		panic("poolhold: leaky pool, destroyed with live allocations outstanding")
	}

	for {
		node := p.head.Load()
		if node == nil {
			return
		}
		if !p.head.CompareAndSwap(node, node.next) {
			continue
		}
		p.heap.Dealloc(node.backing)
	}
}
