package teldata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResiduals(t *testing.T) {
	event := sampleEvent()
	residuals, err := Residuals(&event)
	require.NoError(t, err)

	assert.Equal(t, []Residual{
		{Trajectory: 0, Hit: 0, DetN: 1, U: 0.25, V: 0.25},
		{Trajectory: 0, Hit: 1, DetN: 2, U: 0, V: 3},
	}, residuals)
}

func TestResidualsSkipUnmatched(t *testing.T) {
	event := sampleEvent()
	for i := range event.Trajectories[0].Hits {
		event.Trajectories[0].Hits[i].Matched = NoHitGroup
	}
	residuals, err := Residuals(&event)
	require.NoError(t, err)
	assert.Empty(t, residuals)
}

func TestResidualsDanglingMatch(t *testing.T) {
	event := sampleEvent()
	event.Trajectories[0].Hits[1].Matched = RefHitGroup(4)

	_, err := Residuals(&event)
	require.Error(t, err)
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "TJs[0].THs[1].MM.MHi", refErr.Path)
}

func TestSummarizeResiduals(t *testing.T) {
	stats := SummarizeResiduals([]Residual{
		{DetN: 2, U: 1, V: -1},
		{DetN: 1, U: 1, V: 0},
		{DetN: 1, U: 3, V: 0},
	})
	require.Len(t, stats, 2)

	assert.Equal(t, ResidualStats{DetN: 1, Count: 2, MeanU: 2, MeanV: 0, RmsU: 1, RmsV: 0}, stats[0])
	assert.Equal(t, ResidualStats{DetN: 2, Count: 1, MeanU: 1, MeanV: -1, RmsU: 0, RmsV: 0}, stats[1])

	assert.Empty(t, SummarizeResiduals(nil))
}
