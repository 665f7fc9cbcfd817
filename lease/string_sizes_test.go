package lease_test

import (
	"fmt"
	"testing"

	"github.com/fmstephe/offheap-hold/internal/testutil"
	"github.com/fmstephe/offheap-hold/lease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stringSizeRanges = []int{0, 1, 10, 50, 100, 500, 1000, 5000}

// Testable Property #2 (round-trip), exercised across a range of string
// sizes rather than one fixed example.
func TestStringAllocateAndGetAcrossSizes(t *testing.T) {
	p := newTestPack(t, 1<<20)

	rsm := testutil.NewRandomStringMaker()

	for _, length := range stringSizeRanges {
		t.Run(fmt.Sprintf("size=%d", length), func(t *testing.T) {
			value := rsm.MakeSizedString(length)

			s, err := lease.HoldNewStringFrom[struct{}](p, value, struct{}{})
			require.NoError(t, err)
			defer s.Free()

			assert.Equal(t, length, s.Len())
			assert.Equal(t, value, s.String())
		})
	}
}
