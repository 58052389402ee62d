package teldata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitGroupRef(t *testing.T) {
	i, ok := NoHitGroup.Index()
	assert.False(t, ok)
	assert.Equal(t, -1, i)
	assert.False(t, HitGroupRef{}.IsSet())

	ref := RefHitGroup(3)
	i, ok = ref.Index()
	assert.True(t, ok)
	assert.Equal(t, 3, i)
	assert.Equal(t, int64(3), ref.wireIndex())

	assert.Equal(t, NoHitGroup, RefHitGroup(-1))
	assert.Equal(t, int64(-1), RefHitGroup(-5).wireIndex())

	i, _ = RefHitGroup(MaxHitGroupIndex + 10).Index()
	assert.Equal(t, MaxHitGroupIndex, i)
}

func TestResolve(t *testing.T) {
	event := sampleEvent()

	group, err := event.Resolve(RefHitGroup(1))
	require.NoError(t, err)
	assert.Equal(t, uint16(2), group.DetN)

	group, err = event.Resolve(NoHitGroup)
	require.NoError(t, err)
	assert.Nil(t, group)

	_, err = event.Resolve(RefHitGroup(2))
	assert.ErrorIs(t, err, ErrDanglingReference)
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, 2, refErr.Index)
	assert.Equal(t, 2, refErr.Len)
}

func TestNumRawHits(t *testing.T) {
	event := sampleEvent()
	assert.Equal(t, 3, event.NumRawHits())
	assert.Equal(t, 0, (&Event{}).NumRawHits())
}

func TestEqual(t *testing.T) {
	a, b := sampleEvent(), sampleEvent()
	assert.True(t, a.Equal(&b))

	b.Trajectories[0].Hits[1].Matched = NoHitGroup
	assert.False(t, a.Equal(&b))

	b = sampleEvent()
	b.HitGroups[0].RawHits[1].ClkN++
	assert.False(t, a.Equal(&b))

	b = sampleEvent()
	b.HitGroups = b.HitGroups[:1]
	assert.False(t, a.Equal(&b))

	empty := Event{RawHits: []RawHit{}, HitGroups: []HitGroup{}}
	assert.True(t, empty.Equal(&Event{}))
}
