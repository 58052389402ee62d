package teldata

import (
	"fmt"
	"math"
	"sort"
)

// Residual is the distance, in local plane coordinates, between a matched
// hit group and the fitted trajectory position on the same plane.
type Residual struct {
	Trajectory int
	Hit        int
	DetN       uint16
	U          float64
	V          float64
}

// Residuals computes one residual for every trajectory hit that has a
// matched hit group. The detector is the one of the matched group.
func Residuals(event *Event) ([]Residual, error) {
	var out []Residual
	for t, traj := range event.Trajectories {
		for h, hit := range traj.Hits {
			group, err := event.Resolve(hit.Matched)
			if err != nil {
				if refErr, ok := err.(*ReferenceError); ok {
					refErr.Path = fmt.Sprintf("TJs[%d].THs[%d].MM.MHi", t, h)
				}
				return nil, err
			}
			if group == nil {
				continue
			}
			out = append(out, Residual{
				Trajectory: t,
				Hit:        h,
				DetN:       group.DetN,
				U:          group.Pos[0] - hit.Fit.Local[0],
				V:          group.Pos[1] - hit.Fit.Local[1],
			})
		}
	}
	return out, nil
}

type ResidualStats struct {
	DetN  uint16
	Count int
	MeanU float64
	MeanV float64
	RmsU  float64
	RmsV  float64
}

// SummarizeResiduals aggregates residuals per detector, sorted by detector.
// RMS is taken around the mean.
func SummarizeResiduals(residuals []Residual) []ResidualStats {
	type sums struct {
		n                int
		su, sv, suu, svv float64
	}
	byDet := make(map[uint16]*sums)
	for _, r := range residuals {
		s, ok := byDet[r.DetN]
		if !ok {
			s = &sums{}
			byDet[r.DetN] = s
		}
		s.n++
		s.su += r.U
		s.sv += r.V
		s.suu += r.U * r.U
		s.svv += r.V * r.V
	}

	stats := make([]ResidualStats, 0, len(byDet))
	for det, s := range byDet {
		n := float64(s.n)
		meanU, meanV := s.su/n, s.sv/n
		stats = append(stats, ResidualStats{
			DetN:  det,
			Count: s.n,
			MeanU: meanU,
			MeanV: meanV,
			RmsU:  math.Sqrt(math.Max(s.suu/n-meanU*meanU, 0)),
			RmsV:  math.Sqrt(math.Max(s.svv/n-meanV*meanV, 0)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].DetN < stats[j].DetN
	})
	return stats
}
