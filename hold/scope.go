// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package hold

import (
	"github.com/fmstephe/offheap-hold/block"
)

// Go has no goroutine-local storage, so a per-goroutine Hold stack is
// realized as an explicit value (*LocalHold) the caller threads through a
// call chain, exactly the way other Go libraries in this pack carry
// connection-scoped state via an explicit argument rather than an ambient
// global. goroutine-confined code that wants the convenience of an
// ambient-looking stack can hold on to the *LocalHold returned by Enter and
// pass it down explicitly; there is no hidden global per-goroutine lookup.

// LocalHold is a node in a singly-linked stack of Hold references. It is
// itself a Hold that forwards every Alloc call to the Hold on top of the
// stack; Dealloc is never called on a LocalHold directly because every tag
// written during Alloc points at the concrete inner Hold, not the scope.
type LocalHold struct {
	inner Hold
	prev  *LocalHold
}

// Enter pushes hold onto scope (which may be nil, meaning "no enclosing
// scope yet") and returns the new top of stack. The caller is expected to
// keep using the returned *LocalHold for the lifetime of the scope, and
// simply let it go out of scope (there is no heap state to release: popping
// is just discarding the returned value and reverting to using scope).
func Enter(scope *LocalHold, inner Hold) *LocalHold {
	if inner == nil {
		panic("hold: cannot enter a scope with a nil Hold")
	}
	return &LocalHold{inner: inner, prev: scope}
}

// Current returns the Hold this scope forwards to.
func (s *LocalHold) Current() Hold {
	if s == nil {
		panic("hold: no Hold scope is active")
	}
	return s.inner
}

// Leave returns the enclosing scope, i.e. the scope active before Enter was
// called to produce s. Returns nil once the outermost scope is popped.
func (s *LocalHold) Leave() *LocalHold {
	if s == nil {
		panic("hold: no Hold scope is active")
	}
	return s.prev
}

func (s *LocalHold) Alloc(l block.Layout) (block.Block, error) {
	return s.Current().Alloc(l)
}

func (s *LocalHold) Dealloc(b block.Block) {
	panic("hold: Dealloc is unreachable on a LocalHold scope; every tag points at the concrete Hold, never the scope")
}

func (s *LocalHold) Resize(b block.Block, l block.Layout) (block.Block, error) {
	panic("hold: Resize is unreachable on a LocalHold scope; every tag points at the concrete Hold, never the scope")
}

func (s *LocalHold) Realloc(b block.Block, l block.Layout) (block.Block, error) {
	return Realloc(s, b, l)
}

// global is the process-wide Hold singleton consumers must supply. Unlike
// the original's link-time `_tg_global_hold` symbol, Go has no equivalent
// weak-symbol mechanism, so this is a package variable set once via
// SetGlobal during process initialization.
var global Hold

// SetGlobal installs the process-wide Hold returned by Global. Intended to
// be called once, during program startup, by the consumer embedding this
// library.
func SetGlobal(h Hold) {
	global = h
}

// Global returns the process-wide Hold installed by SetGlobal. Panics if no
// Hold has been installed: consumers that embed this library must call
// SetGlobal during initialization.
func Global() Hold {
	if global == nil {
		panic("hold: no global Hold has been installed; call hold.SetGlobal during startup")
	}
	return global
}
