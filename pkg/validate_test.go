package teldata

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoGroupEvent(origin int) Event {
	return Event{
		RunN: 1,
		HitGroups: []HitGroup{
			{DetN: 1, Pos: [2]float64{0, 0}},
			{DetN: 2, Pos: [2]float64{1, 1}},
		},
		Trajectories: []Trajectory{{
			TrajN: 1,
			Hits:  []TrajHit{{DetN: 2, Origin: RefHitGroup(origin)}},
		}},
	}
}

func TestValidateInBounds(t *testing.T) {
	event := twoGroupEvent(1)
	assert.NoError(t, Validate(&event))
}

func TestValidateOutOfBounds(t *testing.T) {
	event := twoGroupEvent(2)
	err := Validate(&event)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingReference)

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "TJs[0].THs[0].OM.MHi", refErr.Path)
	assert.Equal(t, 2, refErr.Index)
	assert.Equal(t, 2, refErr.Len)
}

func TestValidateReportsEveryReference(t *testing.T) {
	event := sampleEvent()
	event.Trajectories[0].Hits[0].Origin = RefHitGroup(5)
	event.Trajectories[0].Hits[1].Matched = RefHitGroup(2)

	err := Validate(&event)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	errs := joined.Unwrap()
	require.Len(t, errs, 2)
	assert.Equal(t, "TJs[0].THs[0].OM.MHi", errs[0].(*ReferenceError).Path)
	assert.Equal(t, "TJs[0].THs[1].MM.MHi", errs[1].(*ReferenceError).Path)
}

func TestValidateUnsetReferences(t *testing.T) {
	event := Event{Trajectories: []Trajectory{{Hits: []TrajHit{{}, {}}}}}
	assert.NoError(t, Validate(&event))
}

func TestValidateIdempotent(t *testing.T) {
	for _, event := range []Event{sampleEvent(), twoGroupEvent(2)} {
		before := event
		first := Validate(&event)
		second := Validate(&event)
		assert.Equal(t, first, second)
		assert.True(t, before.Equal(&event))
	}
}

func TestValidateBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("Validate succeeds only for indices inside the hit groups", prop.ForAll(
		func(nGroups uint8, index int32, merge bool) bool {
			event := Event{HitGroups: make([]HitGroup, nGroups)}
			hit := TrajHit{}
			if merge {
				hit.Matched = RefHitGroup(int(index))
			} else {
				hit.Origin = RefHitGroup(int(index))
			}
			event.Trajectories = []Trajectory{{Hits: []TrajHit{hit}}}

			err := Validate(&event)
			if index >= 0 && int(index) < int(nGroups) {
				return err == nil
			}
			if index < 0 {
				return err == nil // unset
			}
			return errors.Is(err, ErrDanglingReference)
		},
		gen.UInt8(),
		gen.Int32Range(-2, 300),
		gen.Bool(),
	))

	properties.Property("random valid events validate", prop.ForAll(
		func(seed int64) bool {
			event := randomEvent(rand.New(rand.NewSource(seed)))
			return Validate(&event) == nil
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestCheckHitGroupDetectors(t *testing.T) {
	event := sampleEvent()
	assert.Empty(t, CheckHitGroupDetectors(&event))

	event.HitGroups[0].RawHits[1].DetN = 4
	warnings := CheckHitGroupDetectors(&event)
	require.Len(t, warnings, 1)
	assert.Equal(t, "MHs[0].MRs[1]", warnings[0].Path)
	assert.Equal(t, "MHs[0].MRs[1]: raw hit on detector 4 in hit group of detector 1", warnings[0].String())
}
