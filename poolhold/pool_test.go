package poolhold_test

import (
	"testing"

	"github.com/fmstephe/offheap-hold/block"
	"github.com/fmstephe/offheap-hold/heap"
	"github.com/fmstephe/offheap-hold/poolhold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S4: Pool over a slab(4096, unit 256). Allocate 100 usize-sized blocks
// directly from the pool, which grows as packs fill; every block reads back
// its written value; after all are freed, Destroy returns the packs to the
// slab without panicking.
func TestPoolGrowsTransparentlyOverSlab(t *testing.T) {
	slabConf := heap.NewSlabConfigBySize(256, 4096)
	slab := heap.NewSlab(slabConf)
	defer slab.Destroy()

	pool := poolhold.NewSized(slab, 256)

	usize := block.Must(8, 8)

	type entry struct {
		block block.Block
		value uint64
	}
	entries := make([]entry, 0, 100)

	for i := 0; i < 100; i++ {
		b, err := pool.Alloc(usize)
		require.NoError(t, err)
		value := uint64(i) * 3
		*(*uint64)(b.Ptr()) = value
		entries = append(entries, entry{block: b, value: value})
	}

	assert.Equal(t, 100, pool.Live())

	for _, e := range entries {
		got := *(*uint64)(e.block.Ptr())
		assert.Equal(t, e.value, got)
	}

	for _, e := range entries {
		pool.Dealloc(e.block)
	}
	assert.Equal(t, 0, pool.Live())

	pool.Destroy()
}

func TestPoolDestroyPanicsWhenLeaky(t *testing.T) {
	slabConf := heap.NewSlabConfigBySize(256, 65536)
	slab := heap.NewSlab(slabConf)
	defer slab.Destroy()

	pool := poolhold.NewSized(slab, 256)
	_, err := pool.Alloc(block.Must(8, 8))
	require.NoError(t, err)

	assert.Panics(t, func() {
		pool.Destroy()
	})
}
