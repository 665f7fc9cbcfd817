// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package heap

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/fmstephe/offheap-hold/block"
)

// Stats reports the allocation counters for a Slab.
type Stats struct {
	Allocs int
	Frees  int
	Live   int
	Reused int
}

// Slab is a fixed-unit Heap: it partitions one backing mmap'd block into
// equal-sized units and serves allocations from a lock-free LIFO free
// list, grounded on the free-list CAS loop in
// offheap/internal/pointerstore/pointer_store.go, generalized from typed
// object slots to raw Layout-sized units and bounded to a single backing
// block: a Slab does not grow; Pool is the layer that grows by acquiring
// further Packs from a Heap.
type Slab struct {
	conf SlabConfig
	base uintptr

	// head is the address of the first free unit, or 0 if the free list
	// is empty. Each free unit stores the next free unit's address (or 0)
	// in its own first machine word.
	head atomic.Uintptr

	// nextOffset is the index of the next never-yet-allocated unit.
	nextOffset atomic.Uint64

	allocs atomic.Uint64
	frees  atomic.Uint64
	reused atomic.Uint64

	destroyed atomic.Bool
}

// NewSlab constructs a Slab with the given fixed-unit geometry, backed by
// one freshly mmap'd region.
func NewSlab(conf SlabConfig) *Slab {
	if conf.UnitSize < unsafe.Sizeof(uintptr(0)) {
		panic(fmt.Errorf("heap: slab unit size %d is smaller than a free-list link (%d bytes)", conf.UnitSize, unsafe.Sizeof(uintptr(0))))
	}

	base := mmapSlab(conf)

	return &Slab{
		conf: conf,
		base: base,
	}
}

// Alloc satisfies l from this Slab's units, or returns ErrOversized,
// ErrMisaligned, or ErrOutOfMemory.
func (s *Slab) Alloc(l block.Layout) (block.Block, error) {
	if l.Size > s.conf.UnitSize {
		return block.Block{}, ErrOversized
	}
	// Every unit address is base + i*UnitSize, a multiple of UnitSize
	// (UnitSize is a power of two), so only alignments no coarser than
	// UnitSize can be satisfied.
	if l.Align > s.conf.UnitSize {
		return block.Block{}, ErrMisaligned
	}

	if addr, ok := s.popFree(); ok {
		s.allocs.Add(1)
		s.reused.Add(1)
		return block.FromRawParts(unsafe.Pointer(addr), l.Size), nil
	}

	addr, err := s.allocFromOffset()
	if err != nil {
		return block.Block{}, err
	}
	s.allocs.Add(1)
	return block.FromRawParts(unsafe.Pointer(addr), l.Size), nil
}

// Dealloc returns the unit backing b to the free list.
func (s *Slab) Dealloc(b block.Block) uintptr {
	addr := uintptr(b.Ptr())

	for {
		oldHead := s.head.Load()
		*(*uintptr)(unsafe.Pointer(addr)) = oldHead
		if s.head.CompareAndSwap(oldHead, addr) {
			break
		}
	}

	s.frees.Add(1)
	return uintptr(s.conf.UnitSize)
}

// Destroy releases the Slab's backing memory to the operating system. The
// Slab must not be used after Destroy returns.
func (s *Slab) Destroy() error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	return munmapSlab(s.base, s.conf)
}

// Stats returns the current allocation counters.
func (s *Slab) Stats() Stats {
	allocs := s.allocs.Load()
	frees := s.frees.Load()
	return Stats{
		Allocs: int(allocs),
		Frees:  int(frees),
		Live:   int(allocs - frees),
		Reused: int(s.reused.Load()),
	}
}

// Config returns the geometry this Slab was constructed with.
func (s *Slab) Config() SlabConfig {
	return s.conf
}

func (s *Slab) popFree() (uintptr, bool) {
	for {
		head := s.head.Load()
		if head == 0 {
			return 0, false
		}
		next := *(*uintptr)(unsafe.Pointer(head))
		if s.head.CompareAndSwap(head, next) {
			return head, true
		}
	}
}

func (s *Slab) allocFromOffset() (uintptr, error) {
	idx := s.nextOffset.Add(1) - 1
	if idx >= s.conf.UnitsPerSlab {
		return 0, ErrOutOfMemory
	}
	return s.base + uintptr(idx)*uintptr(s.conf.UnitSize), nil
}
