// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package arc

import (
	"unsafe"

	"github.com/fmstephe/offheap-hold/hold"
)

// StowInto relocates the Arc resident into a new Hold: it allocates a
// fresh (header, value) block from dst, copies the resident
// value and metadata across, and installs a forwarding address in the
// source header so that every other outstanding Hard/Soft sharing this
// allocation transparently resolves to the new location on its next
// operation (see resolveHeader).
//
// Precondition: no Ref or Mut may currently be outstanding (ref count zero
// and the MUT flag clear) — a live borrow has already cached the data
// pointer this call is about to invalidate. Plain outstanding Hard clones
// are fine; they all share this same header and will all observe the
// forwarding.
//
// Deviation from a fully reclaiming relocator, recorded in DESIGN.md: the
// source header's own (header, value) block is never reclaimed by this
// call, even once every outstanding Hard/Soft sharing it has migrated off
// of it — it is left as a permanent forwarding stub. Reclaiming it would
// require tracking, for every header, how many of its *original* lease
// holders have not yet dereferenced (and thereby migrated) through it,
// which this implementation does not do; see the "stow stub reclamation"
// entry in DESIGN.md Open Questions.
func (h Hard[T, M]) StowInto(dst hold.Hold) (Hard[T, M], error) {
	header := resolveHeader(h.header)

	old := header.status.Load()
	if old&mutFlag != 0 {
		return Hard[T, M]{}, ErrAliased
	}
	if (old&refCountMask)>>refCountShift != 0 {
		return Hard[T, M]{}, ErrAliased
	}
	if old&relocatedFlag != 0 {
		return Hard[T, M]{}, ErrRelocating
	}

	value := *valueFromHeader[T, M](header)
	meta := *header.Meta()

	newData, err := newArc[T, M](dst, value, meta, old&^relocatedFlag)
	if err != nil {
		return Hard[T, M]{}, err
	}
	newHeader := headerFromData[T, M](newData)

	// The forwarding address must be visible before the RELOCATED bit is:
	// a concurrent resolveHeader that observes the flag set is entitled to
	// load relocation immediately and chase it, with no further
	// synchronization. Storing the flag first would let that chase read a
	// zero address.
	header.relocation.Store(uintptr(unsafe.Pointer(newHeader)))

	for {
		cur := header.status.Load()
		if cur&relocatedFlag != 0 {
			panic("arc: concurrent double stow of the same allocation")
		}
		if header.status.CompareAndSwap(cur, cur|relocatedFlag) {
			break
		}
	}

	return Hard[T, M]{header: newHeader}, nil
}
