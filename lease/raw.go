// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package lease

import (
	"unsafe"

	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/hold"
)

// Raw is an exclusive-owning lease over a Hold-allocated value of type T.
// Unlike Ptr, Raw keeps its metadata M beside the pointer rather than in the
// block itself, so the allocation holds only the resident value.
type Raw[T any, M any] struct {
	data unsafe.Pointer
	meta M
}

// HoldNewRaw allocates a T-sized block from h, tagged back to h, writes
// value into it, and returns a Raw leasing it with the given metadata.
func HoldNewRaw[T any, M any](h hold.Hold, value T, meta M) (Raw[T, M], error) {
	if err := checkResidentSafe[T](); err != nil {
		return Raw[T, M]{}, err
	}

	l := block.Must(sizeOf[T](), alignOf[T]())
	b, err := h.Alloc(l)
	if err != nil {
		return Raw[T, M]{}, err
	}

	*(*T)(b.Ptr()) = value
	return Raw[T, M]{data: b.Ptr(), meta: meta}, nil
}

// MustHoldNewRaw is HoldNewRaw but panics on error.
func MustHoldNewRaw[T any, M any](h hold.Hold, value T, meta M) Raw[T, M] {
	r, err := HoldNewRaw[T, M](h, value, meta)
	if err != nil {
		panic(err)
	}
	return r
}

// Value returns a pointer to the leased T.
func (r *Raw[T, M]) Value() *T {
	return (*T)(r.data)
}

// Meta returns a pointer to the metadata stored beside the lease.
func (r *Raw[T, M]) Meta() *M {
	return &r.meta
}

// Free deallocates the leased value via the AllocTag preceding it. Free must
// not be called more than once for a given Raw.
func (r *Raw[T, M]) Free() {
	b := block.FromRawParts(r.data, sizeOf[T]())
	alloctag.FromPtr(b).Dealloc(b)
	r.data = nil
}
