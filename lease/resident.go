// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package lease implements the owning handles layered directly on top of a
// Hold-allocated block: Raw and Ptr (exclusive leases), composed with the
// three canonical residents (Box, Buf, String).
//
// Go has no unsized types, so unlike the original design a single generic
// Resident composed with any lease is not expressible as one type; instead
// each resident is realized as its own family of lease types: Raw/Ptr
// (Box-style single value), Buf (growable buffer) and String (growable
// UTF-8 buffer).
//
// Every resident value allocated by this package must itself be free of Go
// pointers: the memory backing a lease lives in a Hold-managed block that
// may be mmap'd and is never scanned by the Go garbage collector, so a
// real pointer stored inside it would become invisible to the GC the
// moment the referent it points to is otherwise unreferenced. This mirrors
// the restriction offheap.AllocObject documents and enforces via
// reflection (see pointer_checker.go).
package lease

import (
	"unsafe"
)

func roundUp(size, align uintptr) uintptr {
	if align == 0 {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}

func sizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func alignOf[T any]() uintptr {
	var zero T
	return unsafe.Alignof(zero)
}
