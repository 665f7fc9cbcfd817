// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package lease

import (
	"fmt"
	"unsafe"

	"github.com/fmstephe/offheap-hold/alloctag"
	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/hold"
)

// BufHeader is the metadata Buf stores immediately before its element data
// in the backing block: current length, capacity, and caller-supplied user
// metadata.
type BufHeader[M any] struct {
	Len  int
	Cap  int
	User M
}

// Buf is a growable array of T, resizeable in place when possible and
// reallocated through h otherwise. Unlike Raw/Ptr, Buf keeps a reference to
// the Hold it grows through directly: growth can require a brand-new block
// at a different address, which needs Hold.Alloc, a capability the AllocTag
// back-pointer alone (alloctag.Holder) does not expose.
type Buf[T any, M any] struct {
	h    hold.Hold
	data unsafe.Pointer // points at element 0; header lives just before it
}

func elemStride[T any]() uintptr {
	return roundUp(sizeOf[T](), alignOf[T]())
}

func bufDataOffset[T any, M any]() uintptr {
	return roundUp(sizeOf[BufHeader[M]](), alignOf[T]())
}

func bufLayout[T any, M any](cap int) (block.Layout, error) {
	headerLayout := block.Must(sizeOf[BufHeader[M]](), alignOf[BufHeader[M]]())
	elemLayout := block.Must(elemStride[T](), alignOf[T]())

	repeated, _, err := block.Repeated(elemLayout, uintptr(cap))
	if err != nil {
		return block.Layout{}, err
	}

	size := bufDataOffset[T, M]() + repeated.Size
	align := headerLayout.Align
	if elemLayout.Align > align {
		align = elemLayout.Align
	}
	return block.New(size, align)
}

// HoldNewBuf returns an empty Buf with zero capacity.
func HoldNewBuf[T any, M any](h hold.Hold, meta M) (Buf[T, M], error) {
	return HoldNewBufWithCapacity[T, M](h, meta, 0)
}

// HoldNewBufWithCapacity returns an empty Buf pre-reserved to hold at least
// capacity elements without reallocating.
func HoldNewBufWithCapacity[T any, M any](h hold.Hold, meta M, capacity int) (Buf[T, M], error) {
	if err := checkResidentSafe[T](); err != nil {
		return Buf[T, M]{}, err
	}
	if err := checkResidentSafe[M](); err != nil {
		return Buf[T, M]{}, err
	}
	if capacity < 0 {
		return Buf[T, M]{}, fmt.Errorf("lease: negative capacity %d", capacity)
	}

	l, err := bufLayout[T, M](capacity)
	if err != nil {
		return Buf[T, M]{}, err
	}

	b, err := h.Alloc(l)
	if err != nil {
		return Buf[T, M]{}, err
	}

	offset := bufDataOffset[T, M]()
	base := uintptr(b.Ptr())
	header := (*BufHeader[M])(unsafe.Pointer(base)) //nolint:govet
	header.Len = 0
	header.Cap = capacity
	header.User = meta

	return Buf[T, M]{h: h, data: unsafe.Pointer(base + offset)}, nil //nolint:govet
}

func (buf *Buf[T, M]) header() *BufHeader[M] {
	offset := bufDataOffset[T, M]()
	return (*BufHeader[M])(unsafe.Pointer(uintptr(buf.data) - offset)) //nolint:govet
}

func (buf *Buf[T, M]) blockBase() unsafe.Pointer {
	offset := bufDataOffset[T, M]()
	return unsafe.Pointer(uintptr(buf.data) - offset) //nolint:govet
}

// Len returns the number of elements currently stored.
func (buf *Buf[T, M]) Len() int {
	return buf.header().Len
}

// Cap returns the number of elements that can be stored without growing.
func (buf *Buf[T, M]) Cap() int {
	return buf.header().Cap
}

// Meta returns a pointer to the user metadata stored in the header.
func (buf *Buf[T, M]) Meta() *M {
	return &buf.header().User
}

// Get returns a pointer to the element at index i. Panics if i is out of
// bounds.
func (buf *Buf[T, M]) Get(i int) *T {
	h := buf.header()
	if i < 0 || i >= h.Len {
		panic(fmt.Errorf("lease: index %d out of range [0, %d)", i, h.Len))
	}
	return buf.elemPtr(i)
}

func (buf *Buf[T, M]) elemPtr(i int) *T {
	stride := elemStride[T]()
	return (*T)(unsafe.Pointer(uintptr(buf.data) + uintptr(i)*stride)) //nolint:govet
}

// Push appends x, growing the backing allocation first if necessary.
func (buf *Buf[T, M]) Push(x T) error {
	h := buf.header()
	if h.Len == h.Cap {
		if err := buf.tryReserve(1); err != nil {
			return err
		}
		h = buf.header()
	}
	*buf.elemPtr(h.Len) = x
	h.Len++
	return nil
}

// Pop removes and returns the last element. ok is false if the Buf is empty.
func (buf *Buf[T, M]) Pop() (x T, ok bool) {
	h := buf.header()
	if h.Len == 0 {
		return x, false
	}
	h.Len--
	return *buf.elemPtr(h.Len), true
}

// Insert shifts every element at or after i one slot later and writes x at
// i. Panics if i is out of [0, Len].
func (buf *Buf[T, M]) Insert(i int, x T) error {
	h := buf.header()
	if i < 0 || i > h.Len {
		panic(fmt.Errorf("lease: insert index %d out of range [0, %d]", i, h.Len))
	}
	if h.Len == h.Cap {
		if err := buf.tryReserve(1); err != nil {
			return err
		}
		h = buf.header()
	}
	for j := h.Len; j > i; j-- {
		*buf.elemPtr(j) = *buf.elemPtr(j - 1)
	}
	*buf.elemPtr(i) = x
	h.Len++
	return nil
}

// Remove shifts every element after i one slot earlier and returns the
// removed value. Panics if i is out of [0, Len).
func (buf *Buf[T, M]) Remove(i int) T {
	h := buf.header()
	if i < 0 || i >= h.Len {
		panic(fmt.Errorf("lease: remove index %d out of range [0, %d)", i, h.Len))
	}
	removed := *buf.elemPtr(i)
	for j := i; j < h.Len-1; j++ {
		*buf.elemPtr(j) = *buf.elemPtr(j + 1)
	}
	h.Len--
	return removed
}

// TryReserve ensures capacity for at least extra more elements beyond Len,
// growing the backing allocation (by doubling, or to max(Len+extra, 1)) if
// needed. On failure the Buf is left unchanged.
func (buf *Buf[T, M]) TryReserve(extra int) error {
	return buf.tryReserve(extra)
}

func (buf *Buf[T, M]) tryReserve(extra int) error {
	h := buf.header()
	if h.Cap-h.Len >= extra {
		return nil
	}

	newCap := h.Len + extra
	if doubled := 2 * h.Cap; doubled > newCap {
		newCap = doubled
	}
	if newCap < 1 {
		newCap = 1
	}

	// Unlike TryReserveInPlace, ordinary growth may relocate the backing
	// allocation: if the owning Hold can't resize in place it falls back
	// to allocate-copy-free through buf.h.Realloc.
	oldLayout, newLayout, err := buf.layouts(newCap)
	if err != nil {
		return err
	}
	oldBlock := block.FromRawParts(buf.blockBase(), oldLayout.Size)
	resized, err := buf.h.Realloc(oldBlock, newLayout)
	if err != nil {
		return err
	}
	buf.adoptResized(resized, newCap)
	return nil
}

// TryReserveInPlace attempts to grow (or shrink) the backing allocation to
// exactly newCap elements via the owning Hold's Resize, without falling back
// to allocate-copy-free on failure.
func (buf *Buf[T, M]) TryReserveInPlace(newCap int) error {
	return buf.tryReserveInPlace(newCap)
}

func (buf *Buf[T, M]) tryReserveInPlace(newCap int) error {
	h := buf.header()
	if newCap == h.Cap {
		return nil
	}

	oldLayout, newLayout, err := buf.layouts(newCap)
	if err != nil {
		return err
	}

	oldBlock := block.FromRawParts(buf.blockBase(), oldLayout.Size)
	tag := alloctag.FromPtr(oldBlock)

	resized, err := tag.Resize(oldBlock, newLayout)
	if err != nil {
		return err
	}
	buf.adoptResized(resized, newCap)
	return nil
}

func (buf *Buf[T, M]) layouts(newCap int) (old, new_ block.Layout, err error) {
	h := buf.header()
	old, err = bufLayout[T, M](h.Cap)
	if err != nil {
		return block.Layout{}, block.Layout{}, err
	}
	new_, err = bufLayout[T, M](newCap)
	if err != nil {
		return block.Layout{}, block.Layout{}, err
	}
	return old, new_, nil
}

func (buf *Buf[T, M]) adoptResized(resized block.Block, newCap int) {
	offset := bufDataOffset[T, M]()
	buf.data = unsafe.Pointer(uintptr(resized.Ptr()) + offset) //nolint:govet
	buf.header().Cap = newCap
}

// Free deallocates the Buf's backing allocation. Free must not be called
// more than once for a given Buf.
func (buf *Buf[T, M]) Free() {
	l, err := bufLayout[T, M](buf.header().Cap)
	if err != nil {
		panic(err)
	}
	b := block.FromRawParts(buf.blockBase(), l.Size)
	alloctag.FromPtr(b).Dealloc(b)
	buf.data = nil
}
