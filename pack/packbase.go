// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package pack implements PackBase and Pack: a bump allocator over a single
// backing memory block that reclaims space only when the most recently
// allocated block is freed (LIFO), or when the whole pack is dropped.
package pack

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/hold"
)

func ptrOf(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet
}

// packBase is the low-level bump-pointer algorithm, grounded directly on
// original_source/lib/memory/alloc/pack.rs: mark is the byte offset, from
// the start of data, of the next free byte. Unlike the original, the mark
// counter here is not itself stored inside data (placing a Go struct at an
// arbitrary mmap'd address would require casting a Go-managed header onto
// unmanaged bytes, which buys nothing here since Go has no equivalent need
// to co-locate allocator bookkeeping with the bytes it manages); every
// byte-level invariant a caller can observe (tag placement, bump
// arithmetic, LIFO rewind) is preserved exactly.
type packBase struct {
	data block.Block
	mark atomic.Uint32
}

func newPackBase(data block.Block) *packBase {
	if data.Size() > math.MaxUint32 {
		panic("pack: backing block too large (must fit in a uint32 byte offset)")
	}
	return &packBase{data: data}
}

func (pb *packBase) free() uintptr {
	return pb.data.Size() - uintptr(pb.mark.Load())
}

func (pb *packBase) alloc(l block.Layout, r *alloctag.Reified) (block.Block, error) {
	tagSize := alloctag.Size
	tagAlign := alloctag.Align

	align := l.Align
	if tagAlign > align {
		align = tagAlign
	}
	// Round the requested size up to tag alignment so the next tag (for
	// the following allocation) starts correctly aligned.
	size := roundUp(l.Size, tagAlign)

	baseAddr := uintptr(pb.data.Ptr())
	totalSize := pb.data.Size()

	for {
		oldMark := pb.mark.Load()

		startAddr := baseAddr + uintptr(oldMark)
		blockAddr := roundUp(startAddr+tagSize, align)

		endAddr := blockAddr + size
		if endAddr < blockAddr {
			return block.Block{}, hold.ErrOutOfMemory
		}
		newMark := endAddr - baseAddr
		if newMark > totalSize {
			return block.Block{}, hold.ErrOutOfMemory
		}

		if !pb.mark.CompareAndSwap(oldMark, uint32(newMark)) {
			continue
		}

		tagAddr := blockAddr - tagSize
		alloctag.WriteAt(tagAddr, r)

		return block.FromRawParts(ptrOf(blockAddr), l.Size), nil
	}
}

func (pb *packBase) dealloc(b block.Block) uintptr {
	tagSize := alloctag.Size
	tagAlign := alloctag.Align

	size := roundUp(b.Size(), tagAlign)
	if size == 0 {
		return 0
	}

	baseAddr := uintptr(pb.data.Ptr())
	blockAddr := uintptr(b.Ptr())

	endAddr := blockAddr + size
	tagAddr := blockAddr - tagSize

	oldMark := uint32(endAddr - baseAddr)
	newMark := uint32(tagAddr - baseAddr)

	// Only rewinds if this block is still the most recent allocation
	// (LIFO). Otherwise the bytes leak until the whole pack drops; this
	// is the documented pack contract.
	pb.mark.CompareAndSwap(oldMark, newMark)

	return size
}

func (pb *packBase) resize(b block.Block, l block.Layout) (block.Block, error) {
	tagAlign := alloctag.Align

	blockAddr := uintptr(b.Ptr())
	if l.Align != 0 && blockAddr%l.Align != 0 {
		return block.Block{}, hold.ErrMisaligned
	}

	oldSize := roundUp(b.Size(), tagAlign)
	if oldSize == 0 {
		return block.Block{}, hold.NewUnsupported("resize from a zero-sized block")
	}
	newSize := roundUp(l.Size, tagAlign)
	if newSize == 0 {
		return block.Block{}, hold.NewUnsupported("resize to a zero size")
	}

	baseAddr := uintptr(pb.data.Ptr())
	endAddr := blockAddr + oldSize
	oldMark := uint32(endAddr - baseAddr)

	if pb.mark.Load() == oldMark {
		// Most recent allocation: free to grow or shrink, bounded by
		// the pack's remaining capacity.
		newEndAddr := blockAddr + newSize
		if newEndAddr-baseAddr > pb.data.Size() {
			return block.Block{}, hold.ErrOutOfMemory
		}
		newMark := uint32(newEndAddr - baseAddr)
		if !pb.mark.CompareAndSwap(oldMark, newMark) {
			return block.Block{}, hold.ErrOversized
		}
		return block.FromRawParts(b.Ptr(), l.Size), nil
	}

	// Not the most recent allocation: only a shrink can be satisfied
	// in place, since the tail bytes simply become unreachable waste
	// until the pack drops.
	if newSize <= oldSize {
		return block.FromRawParts(b.Ptr(), l.Size), nil
	}
	return block.Block{}, hold.ErrOversized
}

func roundUp(size, align uintptr) uintptr {
	if align == 0 {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}
