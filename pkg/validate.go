package teldata

import (
	"errors"
	"fmt"
)

// Validate checks that every origin and merge match of the event points
// inside its hit-group sequence. All dangling references are reported,
// each as a *ReferenceError, joined in trajectory order.
//
// Validate does not modify the event.
func Validate(event *Event) error {
	var errs []error
	nGroups := len(event.HitGroups)
	for t, traj := range event.Trajectories {
		for h, hit := range traj.Hits {
			if i, ok := hit.Origin.Index(); ok && i >= nGroups {
				errs = append(errs, &ReferenceError{
					Path:  fmt.Sprintf("TJs[%d].THs[%d].OM.MHi", t, h),
					Index: i,
					Len:   nGroups,
				})
			}
			if i, ok := hit.Matched.Index(); ok && i >= nGroups {
				errs = append(errs, &ReferenceError{
					Path:  fmt.Sprintf("TJs[%d].THs[%d].MM.MHi", t, h),
					Index: i,
					Len:   nGroups,
				})
			}
		}
	}
	return errors.Join(errs...)
}

// Warning is a finding that does not make a record invalid.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// CheckHitGroupDetectors reports raw hits held by a hit group whose detector
// differs from the group's own detector.
func CheckHitGroupDetectors(event *Event) []Warning {
	var warnings []Warning
	for g, group := range event.HitGroups {
		for r, raw := range group.RawHits {
			if raw.DetN != group.DetN {
				warnings = append(warnings, Warning{
					Path:    fmt.Sprintf("MHs[%d].MRs[%d]", g, r),
					Message: fmt.Sprintf("raw hit on detector %d in hit group of detector %d", raw.DetN, group.DetN),
				})
			}
		}
	}
	return warnings
}
