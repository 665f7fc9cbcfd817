// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package hold

import (
	"errors"
	"fmt"

	"github.com/fmstephe/offheap-hold/block"
)

// Error taxonomy for Hold operations. A Hold's error set is a superset of
// the Heap error set: the Layout errors, plus OutOfMemory and Unsupported.
var (
	ErrMisaligned  = block.ErrMisaligned
	ErrOversized   = block.ErrOversized
	ErrOutOfMemory = errors.New("hold: out of memory")
)

// Unsupported reports that a Hold does not implement the requested
// operation, carrying a static reason string.
type Unsupported struct {
	Reason string
}

func (u Unsupported) Error() string {
	return fmt.Sprintf("hold: unsupported: %s", u.Reason)
}

// NewUnsupported builds an error satisfying errors.As(err, *Unsupported).
func NewUnsupported(reason string) error {
	return Unsupported{Reason: reason}
}
