// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package alloctag

import (
	"unsafe"

	"github.com/fmstephe/offheap-hold/block"
)

// tagFromDataPtr returns a pointer to the Tag that immediately precedes
// data's address in memory.
func tagFromDataPtr(data block.Block) *Tag {
	addr := uintptr(data.Ptr()) - Size
	return (*Tag)(unsafe.Pointer(addr)) //nolint:govet
}

// WriteAt initializes a Tag in place at tagAddr to point at r, and returns
// the address immediately following the tag: the address at which the
// tagged block itself begins.
func WriteAt(tagAddr uintptr, r *Reified) uintptr {
	tag := (*Tag)(unsafe.Pointer(tagAddr)) //nolint:govet
	*tag = New(r)
	return tagAddr + Size
}
