package teldata

import "math"

// Event is one telescope readout together with its reconstruction.
// Events are values: once constructed they must not be modified, and all
// substructures belong to the event that holds them.
type Event struct {
	RunN         uint64
	EventN       uint64
	SetupN       uint16
	ClockN       uint64
	RawHits      []RawHit
	HitGroups    []HitGroup
	Trajectories []Trajectory
}

// RawHit is a single pixel readout.
type RawHit struct {
	U    uint16
	V    uint16
	DetN uint16
	ClkN uint16
}

// HitGroup is a cluster of raw hits merged into one measured hit.
type HitGroup struct {
	DetN    uint16
	Pos     [2]float64
	RawHits []RawHit
}

type Trajectory struct {
	TrajN uint64
	Hits  []TrajHit
}

// TrajHit is the intersection of a trajectory with one detector plane.
// Origin points at the hit group the fit was seeded from, Matched at the
// hit group associated with the fitted position afterwards.
type TrajHit struct {
	DetN    uint16
	Fit     FitHit
	Origin  HitGroupRef
	Matched HitGroupRef
}

// FitHit carries the fitted position and direction, in local plane
// coordinates and in global coordinates.
type FitHit struct {
	DetN      uint16
	Local     [2]float64
	LocalDir  [3]float64
	Global    [3]float64
	GlobalDir [3]float64
}

// HitGroupRef is a position in Event.HitGroups. The zero value refers to no
// hit group.
type HitGroupRef struct {
	n uint32 // index + 1
}

// MaxHitGroupIndex is the largest index a HitGroupRef can hold.
const MaxHitGroupIndex = math.MaxInt32

// NoHitGroup is the unset reference.
var NoHitGroup = HitGroupRef{}

// RefHitGroup returns a reference to the hit group at index i. Negative
// indices give NoHitGroup and indices above MaxHitGroupIndex are clamped to
// it, which is never a valid position in a real event.
func RefHitGroup(i int) HitGroupRef {
	if i < 0 {
		return NoHitGroup
	}
	if i > MaxHitGroupIndex {
		i = MaxHitGroupIndex
	}
	return HitGroupRef{n: uint32(i) + 1}
}

// Index returns the referenced position and whether the reference is set.
func (r HitGroupRef) Index() (int, bool) {
	if r.n == 0 {
		return -1, false
	}
	return int(r.n - 1), true
}

func (r HitGroupRef) IsSet() bool {
	return r.n != 0
}

// wireIndex is the stored form of the reference, -1 when unset.
func (r HitGroupRef) wireIndex() int64 {
	i, _ := r.Index()
	return int64(i)
}

// Resolve returns the hit group a reference points at. It returns nil for an
// unset reference and a *ReferenceError when the index is out of range.
func (e *Event) Resolve(ref HitGroupRef) (*HitGroup, error) {
	i, ok := ref.Index()
	if !ok {
		return nil, nil
	}
	if i >= len(e.HitGroups) {
		return nil, &ReferenceError{Index: i, Len: len(e.HitGroups)}
	}
	return &e.HitGroups[i], nil
}

// NumRawHits counts the raw hits of the event, both the free ones and the
// ones held by hit groups.
func (e *Event) NumRawHits() int {
	n := len(e.RawHits)
	for _, g := range e.HitGroups {
		n += len(g.RawHits)
	}
	return n
}

// Equal reports field-for-field equality. Nil and empty sequences are equal.
func (e *Event) Equal(o *Event) bool {
	if e.RunN != o.RunN || e.EventN != o.EventN || e.SetupN != o.SetupN || e.ClockN != o.ClockN {
		return false
	}
	if !equalRawHits(e.RawHits, o.RawHits) {
		return false
	}
	if len(e.HitGroups) != len(o.HitGroups) {
		return false
	}
	for i := range e.HitGroups {
		a, b := &e.HitGroups[i], &o.HitGroups[i]
		if a.DetN != b.DetN || a.Pos != b.Pos || !equalRawHits(a.RawHits, b.RawHits) {
			return false
		}
	}
	if len(e.Trajectories) != len(o.Trajectories) {
		return false
	}
	for i := range e.Trajectories {
		a, b := &e.Trajectories[i], &o.Trajectories[i]
		if a.TrajN != b.TrajN || len(a.Hits) != len(b.Hits) {
			return false
		}
		for j := range a.Hits {
			if a.Hits[j] != b.Hits[j] {
				return false
			}
		}
	}
	return true
}

func equalRawHits(a, b []RawHit) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
