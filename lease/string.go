// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package lease

import (
	"errors"
	"unicode/utf8"

	"github.com/fmstephe/offheap-hold/hold"
)

// ErrInvalidUTF8 is returned when a HoldNewStringFrom or PushString argument
// is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("lease: argument is not valid UTF-8")

// String is a growable, UTF-8-validated string, implemented as a thin
// wrapper over Buf[byte, M].
type String[M any] struct {
	buf Buf[byte, M]
}

// HoldNewString returns an empty String.
func HoldNewString[M any](h hold.Hold, meta M) (String[M], error) {
	buf, err := HoldNewBuf[byte, M](h, meta)
	if err != nil {
		return String[M]{}, err
	}
	return String[M]{buf: buf}, nil
}

// HoldNewStringFrom copies s's bytes into a freshly allocated String.
func HoldNewStringFrom[M any](h hold.Hold, s string, meta M) (String[M], error) {
	if !utf8.ValidString(s) {
		return String[M]{}, ErrInvalidUTF8
	}
	buf, err := HoldNewBufWithCapacity[byte, M](h, meta, len(s))
	if err != nil {
		return String[M]{}, err
	}
	str := String[M]{buf: buf}
	for i := 0; i < len(s); i++ {
		if err := str.buf.Push(s[i]); err != nil {
			str.buf.Free()
			return String[M]{}, err
		}
	}
	return str, nil
}

// Len returns the number of bytes currently stored.
func (s *String[M]) Len() int {
	return s.buf.Len()
}

// Meta returns a pointer to the user metadata stored in the header.
func (s *String[M]) Meta() *M {
	return s.buf.Meta()
}

// String returns a copy of the stored bytes as a Go string.
func (s *String[M]) String() string {
	n := s.buf.Len()
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = *s.buf.Get(i)
	}
	return string(b)
}

// PushString appends the UTF-8 bytes of more to the string, growing the
// backing allocation as needed.
func (s *String[M]) PushString(more string) error {
	if !utf8.ValidString(more) {
		return ErrInvalidUTF8
	}
	if err := s.buf.TryReserve(len(more)); err != nil {
		return err
	}
	for i := 0; i < len(more); i++ {
		if err := s.buf.Push(more[i]); err != nil {
			return err
		}
	}
	return nil
}

// Free deallocates the String's backing allocation. Free must not be called
// more than once for a given String.
func (s *String[M]) Free() {
	s.buf.Free()
}
