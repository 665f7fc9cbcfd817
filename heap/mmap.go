// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package heap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapSlab reserves an anonymous, unmanaged memory region of conf's total
// slab size, grounded on offheap/internal/pointerstore/mmap.go's MmapSlab.
// Every unit-sized slot's address is base + i*conf.UnitSize, computed by
// the caller on demand (see Slab.allocFromOffset) rather than precomputed
// here.
func mmapSlab(conf SlabConfig) (base uintptr) {
	data, err := unix.Mmap(-1, 0, int(conf.TotalSlabSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Errorf("heap: cannot mmap %#v: %w", conf, err))
	}

	return uintptr(unsafe.Pointer(&data[0]))
}

// munmapSlab releases a region previously returned by mmapSlab.
func munmapSlab(base uintptr, conf SlabConfig) error {
	b := pointerToBytes(base, int(conf.TotalSlabSize))
	return unix.Munmap(b)
}

func pointerToBytes(ptr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
}
