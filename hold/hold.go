// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package hold defines the Hold trait: a tagged allocator of sized and
// aligned blocks, whose deallocation routes through the AllocTag preceding
// every block it returns. It also provides the empty Hold singleton and the
// thread-local Hold scope stack.
package hold

import (
	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
)

// Hold is a tagged allocator: every block it returns has, as the word
// immediately preceding it, an AllocTag that resolves back to the Hold.
//
// Hold embeds alloctag.Holder so that an AllocTag captured from any block a
// Hold has allocated can always route Dealloc/Resize back to it, even when
// the caller holds nothing but a raw pointer (this is how Arc and Buf
// deallocate without threading a Hold reference through every lease).
type Hold interface {
	alloctag.Holder

	// Alloc returns a block satisfying l, tagged to this Hold.
	Alloc(l block.Layout) (block.Block, error)

	// Realloc is the default composition of Resize/Alloc/Dealloc: try an
	// in-place Resize first, and fall back to allocating a new block,
	// copying the overlapping bytes, and freeing the old block.
	Realloc(b block.Block, l block.Layout) (block.Block, error)
}

// Realloc implements the default Hold.Realloc behaviour (resize in place,
// else allocate/copy/free) for Hold implementations that only need to
// implement Alloc/Dealloc/Resize themselves and can call this helper.
func Realloc(h Hold, b block.Block, l block.Layout) (block.Block, error) {
	if resized, err := h.Resize(b, l); err == nil {
		return resized, nil
	}

	newBlock, err := h.Alloc(l)
	if err != nil {
		return block.Block{}, err
	}

	n := b.Size()
	if l.Size < n {
		n = l.Size
	}
	copy(newBlock.Bytes()[:n], b.Bytes()[:n])

	h.Dealloc(b)
	return newBlock, nil
}
