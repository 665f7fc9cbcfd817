package stat_test

import (
	"testing"

	"github.com/fmstephe/offheap-hold/cmd/holdstat/internal/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsHalfLive(t *testing.T) {
	report, err := stat.Run(64, 4096, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Allocs)
	assert.Equal(t, 5, report.Live)
}

func TestRunStopsGracefullyOnOOM(t *testing.T) {
	report, err := stat.Run(64, 64, 1000)
	require.NoError(t, err)
	assert.Greater(t, report.Allocs, 0)
	assert.Less(t, report.Allocs, 1000)
}
