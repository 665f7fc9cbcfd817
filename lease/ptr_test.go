package lease_test

import (
	"testing"

	"github.com/fmstephe/offheap-hold/lease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtrRoundTrip(t *testing.T) {
	p := newTestPack(t, 4096)

	ptr, err := lease.HoldNewPtr[uint64, uint32](p, 42, 7)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), *ptr.Value())
	assert.Equal(t, uint32(7), *ptr.Meta())

	ptr.Free()
}

func TestPtrMetaSurvivesMutation(t *testing.T) {
	p := newTestPack(t, 4096)

	ptr := lease.MustHoldNewPtr[uint64, uint32](p, 1, 99)
	*ptr.Value() = 2
	assert.Equal(t, uint64(2), *ptr.Value())
	assert.Equal(t, uint32(99), *ptr.Meta())

	*ptr.Meta() = 100
	assert.Equal(t, uint32(100), *ptr.Meta())

	ptr.Free()
}

func TestPtrFreeReturnsSpaceToPack(t *testing.T) {
	p := newTestPack(t, 4096)

	freeBefore := p.Free()
	ptr := lease.MustHoldNewPtr[uint64, uint32](p, 1, 2)
	assert.Less(t, p.Free(), freeBefore)

	ptr.Free()
	assert.Equal(t, freeBefore, p.Free())
}

func TestHoldNewPtrRejectsPointerContainingMeta(t *testing.T) {
	p := newTestPack(t, 4096)

	_, err := lease.HoldNewPtr[uint64, *int](p, 1, nil)
	require.Error(t, err)
}
