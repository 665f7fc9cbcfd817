package lease_test

import (
	"testing"
	"unsafe"

	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/heap"
	"github.com/fmstephe/offheap-hold/lease"
	"github.com/fmstephe/offheap-hold/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPack(t *testing.T, size uintptr) *pack.Pack {
	t.Helper()
	buf := make([]byte, size)
	return pack.New(block.FromRawParts(unsafe.Pointer(&buf[0]), size))
}

// Testable Property #2: round-trip. A Raw's dereferenced contents equal the
// value it was constructed from.
func TestRawRoundTrip(t *testing.T) {
	p := newTestPack(t, 4096)

	r, err := lease.HoldNewRaw[uint64, string](p, 42, "answer")
	require.NoError(t, err)

	assert.Equal(t, uint64(42), *r.Value())
	assert.Equal(t, "answer", *r.Meta())

	r.Free()
}

func TestRawFreeReturnsSpaceToPack(t *testing.T) {
	p := newTestPack(t, 4096)

	freeBefore := p.Free()
	r := lease.MustHoldNewRaw[uint64, struct{}](p, 7, struct{}{})
	assert.Less(t, p.Free(), freeBefore)

	r.Free()
	assert.Equal(t, freeBefore, p.Free())
}

func TestHoldNewRawRejectsPointerContainingType(t *testing.T) {
	p := newTestPack(t, 4096)

	_, err := lease.HoldNewRaw[*int, struct{}](p, nil, struct{}{})
	require.Error(t, err)
}

// S1 is exercised directly against pack.Pack in pack_test.go; this confirms
// the same accounting holds when allocation goes through Raw.
func TestRawAccountingMatchesDirectPackAlloc(t *testing.T) {
	slabConf := heap.NewSlabConfigBySize(4096, 4096)
	slab := heap.NewSlab(slabConf)
	defer slab.Destroy()

	backing, err := slab.Alloc(block.Must(4096, 8))
	require.NoError(t, err)
	p := pack.New(backing)

	outer := lease.MustHoldNewRaw[uint64, struct{}](p, 5, struct{}{})
	inner := lease.MustHoldNewRaw[uint64, struct{}](p, 9, struct{}{})

	assert.Equal(t, 16, p.Used())
	assert.Equal(t, 2, p.Live())

	inner.Free()
	assert.Equal(t, 8, p.Used())
	assert.Equal(t, 1, p.Live())

	outer.Free()
	assert.Equal(t, 0, p.Used())
	assert.Equal(t, 0, p.Live())
}
