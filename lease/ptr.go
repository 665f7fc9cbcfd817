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

// Ptr is an exclusive-owning lease over a Hold-allocated value of type T
// whose metadata M lives immediately before the value in the same
// allocation, so Ptr itself carries only the data pointer.
type Ptr[T any, M any] struct {
	data unsafe.Pointer
}

// ptrLayout returns the combined (meta, value) Layout and the byte offset
// from its base at which the T value begins.
func ptrLayout[T any, M any]() (combined block.Layout, offsetOfValue uintptr, err error) {
	metaLayout := block.Must(sizeOf[M](), alignOf[M]())
	valueLayout := block.Must(sizeOf[T](), alignOf[T]())
	return metaLayout.Extended(valueLayout)
}

// metaOffset returns the distance, in bytes, from a Ptr's data pointer back
// to its metadata. It is a pure function of T and M, so it can be recomputed
// identically at both construction and access time without being stored.
func metaOffset[T any, M any]() uintptr {
	_, offset, err := ptrLayout[T, M]()
	if err != nil {
		panic(err)
	}
	return offset
}

// HoldNewPtr allocates room for one M followed by one T from h, writes meta
// and value into place, and returns a Ptr leasing the value.
func HoldNewPtr[T any, M any](h hold.Hold, value T, meta M) (Ptr[T, M], error) {
	if err := checkResidentSafe[T](); err != nil {
		return Ptr[T, M]{}, err
	}
	if err := checkResidentSafe[M](); err != nil {
		return Ptr[T, M]{}, err
	}

	l, offset, err := ptrLayout[T, M]()
	if err != nil {
		return Ptr[T, M]{}, err
	}

	b, err := h.Alloc(l)
	if err != nil {
		return Ptr[T, M]{}, err
	}

	base := uintptr(b.Ptr())
	*(*M)(unsafe.Pointer(base)) = meta             //nolint:govet
	valuePtr := unsafe.Pointer(base + offset)       //nolint:govet
	*(*T)(valuePtr) = value

	return Ptr[T, M]{data: valuePtr}, nil
}

// MustHoldNewPtr is HoldNewPtr but panics on error.
func MustHoldNewPtr[T any, M any](h hold.Hold, value T, meta M) Ptr[T, M] {
	p, err := HoldNewPtr[T, M](h, value, meta)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns a pointer to the leased T.
func (p *Ptr[T, M]) Value() *T {
	return (*T)(p.data)
}

// Meta returns a pointer to the metadata stored just before the value.
func (p *Ptr[T, M]) Meta() *M {
	offset := metaOffset[T, M]()
	return (*M)(unsafe.Pointer(uintptr(p.data) - offset)) //nolint:govet
}

// Free deallocates the leased value, meta included, via the AllocTag
// preceding the combined allocation. Free must not be called more than once
// for a given Ptr.
func (p *Ptr[T, M]) Free() {
	l, offset, err := ptrLayout[T, M]()
	if err != nil {
		panic(err)
	}
	base := unsafe.Pointer(uintptr(p.data) - offset) //nolint:govet
	b := block.FromRawParts(base, l.Size)
	alloctag.FromPtr(b).Dealloc(b)
	p.data = nil
}
