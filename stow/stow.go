// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package stow implements a recursive-relocation protocol: moving an
// object graph from one allocator context to another, rolling back every
// already-moved child in reverse order if a later child fails, so that a
// failed stow leaves its source completely unchanged.
//
// Grounded on original_source/lib/memory/alloc/stow.rs's Stow trait. Rust
// expresses "stow knows how to move any T" as one trait impl'd per type,
// including a blanket impl over tuples and a generated impl per value
// type. Go has no blanket trait impl and no variadic generics, so this
// package instead exposes:
//
//   - Value / UnstowValue: the byte-copy instance for plain value types —
//     for value types, stow is a byte copy and unstow is a no-op.
//   - Slice: the element-wise instance for slices, taking the element's own
//     stow/unstow functions (the Go equivalent of Rust picking up T's Stow
//     impl automatically).
//   - Tuple2/Tuple3/Tuple4: the composed-relocation instances for 2-, 3-
//     and 4-tuples, stowing left to right and unstowing right to left on
//     failure.
//   - Into / From: the value-returning convenience layer (the original's
//     StowInto/StowFrom split) over arc.Hard's full relocation — Into reads
//     "stow src into dst", From reads "stow dst from src"; same operation,
//     argument order matching whichever reads better at the call site.
package stow

import (
	"github.com/fmstephe/offheap-hold/arc"
	"github.com/fmstephe/offheap-hold/hold"
)

// Stower moves the value at src into the (already-allocated) destination
// slot dst, returning an error if the underlying allocation fails. On
// error, dst must be left untouched (or in a state Unstower can clean up)
// and src must be left unchanged.
type Stower[T any] func(src, dst *T) error

// Unstower reverses a successful Stower call: it moves the value at dst
// back into src, restoring src to the value it held before the matching
// Stower call. Called in reverse order of a sequence of Stower calls when
// a later one in that sequence fails.
type Unstower[T any] func(dst, src *T)

// Value is the Stower instance for any plain value type: stow is a byte
// copy.
func Value[T any](src, dst *T) error {
	*dst = *src
	return nil
}

// UnstowValue is the Unstower instance paired with Value: a no-op, since a
// byte copy never mutates src.
func UnstowValue[T any](dst, src *T) {}

// Slice stows each element of src into the corresponding slot of dst
// (which must be at least len(src) long) using elemStow. If the k-th
// element fails, elements [0, k) are unstowed in reverse order via
// elemUnstow and the error is returned; src and dst[:k] are left as
// elemUnstow leaves them (value types: unchanged).
func Slice[T any](src, dst []T, elemStow Stower[T], elemUnstow Unstower[T]) error {
	for i := range src {
		if err := elemStow(&src[i], &dst[i]); err != nil {
			for j := i - 1; j >= 0; j-- {
				elemUnstow(&dst[j], &src[j])
			}
			return err
		}
	}
	return nil
}

// Tuple2 stows (srcA, srcB) into (dstA, dstB) left to right, unstowing
// right to left on the first failure.
func Tuple2[A any, B any](
	srcA, dstA *A, stowA Stower[A], unstowA Unstower[A],
	srcB, dstB *B, stowB Stower[B], unstowB Unstower[B],
) error {
	if err := stowA(srcA, dstA); err != nil {
		return err
	}
	if err := stowB(srcB, dstB); err != nil {
		unstowA(dstA, srcA)
		return err
	}
	return nil
}

// Tuple3 stows (srcA, srcB, srcC) into (dstA, dstB, dstC) left to right,
// unstowing right to left on the first failure.
func Tuple3[A any, B any, C any](
	srcA, dstA *A, stowA Stower[A], unstowA Unstower[A],
	srcB, dstB *B, stowB Stower[B], unstowB Unstower[B],
	srcC, dstC *C, stowC Stower[C], unstowC Unstower[C],
) error {
	if err := Tuple2(srcA, dstA, stowA, unstowA, srcB, dstB, stowB, unstowB); err != nil {
		return err
	}
	if err := stowC(srcC, dstC); err != nil {
		unstowB(dstB, srcB)
		unstowA(dstA, srcA)
		return err
	}
	return nil
}

// Tuple4 stows (srcA, srcB, srcC, srcD) into (dstA, dstB, dstC, dstD) left
// to right, unstowing right to left on the first failure.
func Tuple4[A any, B any, C any, D any](
	srcA, dstA *A, stowA Stower[A], unstowA Unstower[A],
	srcB, dstB *B, stowB Stower[B], unstowB Unstower[B],
	srcC, dstC *C, stowC Stower[C], unstowC Unstower[C],
	srcD, dstD *D, stowD Stower[D], unstowD Unstower[D],
) error {
	if err := Tuple3(
		srcA, dstA, stowA, unstowA,
		srcB, dstB, stowB, unstowB,
		srcC, dstC, stowC, unstowC,
	); err != nil {
		return err
	}
	if err := stowD(srcD, dstD); err != nil {
		unstowC(dstC, srcC)
		unstowB(dstB, srcB)
		unstowA(dstA, srcA)
		return err
	}
	return nil
}

// Into stows an arc.Hard lease into dst, the value-returning convenience
// layer over arc.Hard.StowInto (mirroring the original's StowInto trait
// over the lower-level Stow trait).
func Into[T any, M any](src arc.Hard[T, M], dst hold.Hold) (arc.Hard[T, M], error) {
	return src.StowInto(dst)
}

// From is Into with its arguments in the original's StowFrom order: stow
// src from its current Hold into dst.
func From[T any, M any](dst hold.Hold, src arc.Hard[T, M]) (arc.Hard[T, M], error) {
	return Into(src, dst)
}
