package teldata

import (
	"math/rand"
	"sync"
)

// sampleEvent is the event stored in testdata/sample_event.golden.
func sampleEvent() Event {
	return Event{
		RunN:    7,
		EventN:  42,
		SetupN:  3,
		ClockN:  123456789,
		RawHits: []RawHit{{U: 10, V: 20, DetN: 1, ClkN: 5}},
		HitGroups: []HitGroup{
			{
				DetN: 1,
				Pos:  [2]float64{1.5, -0.25},
				RawHits: []RawHit{
					{U: 11, V: 21, DetN: 1, ClkN: 5},
					{U: 12, V: 21, DetN: 1, ClkN: 6},
				},
			},
			{DetN: 2, Pos: [2]float64{0, 3}},
		},
		Trajectories: []Trajectory{{
			TrajN: 1,
			Hits: []TrajHit{
				{
					DetN: 1,
					Fit: FitHit{
						DetN:      1,
						Local:     [2]float64{1.25, -0.5},
						LocalDir:  [3]float64{0, 0, 1},
						Global:    [3]float64{1, 2, 3},
						GlobalDir: [3]float64{0.5, 0, 0.5},
					},
					Origin:  RefHitGroup(0),
					Matched: RefHitGroup(0),
				},
				{
					DetN: 2,
					Fit: FitHit{
						DetN:      2,
						LocalDir:  [3]float64{0, 0, 1},
						Global:    [3]float64{0, 0, 10},
						GlobalDir: [3]float64{0, 0, 1},
					},
					Origin:  NoHitGroup,
					Matched: RefHitGroup(1),
				},
			},
		}},
	}
}

// sampleDocument is sampleEvent in its unwrapped wire form, the way the
// tests hand documents to Construct.
func sampleDocument() map[string]any {
	return map[string]any{
		"RN":  7,
		"EN":  42,
		"DN":  3,
		"CK":  123456789,
		"MRs": []any{[]any{10, 20, 1, 5}},
		"MHs": []any{
			map[string]any{"DN": 1, "PLs": []any{1.5, -0.25}, "MRs": []any{[]any{11, 21, 1, 5}, []any{12, 21, 1, 6}}},
			map[string]any{"DN": 2, "PLs": []any{0, 3}, "MRs": []any{}},
		},
		"TJs": []any{map[string]any{
			"TN": 1,
			"THs": []any{
				map[string]any{
					"DN": 1,
					"FH": map[string]any{"DN": 1, "PLs": []any{1.25, -0.5}, "DLs": []any{0, 0, 1}, "PGs": []any{1, 2, 3}, "DGs": []any{0.5, 0, 0.5}},
					"OM": map[string]any{"MHi": 0},
					"MM": map[string]any{"MHi": 0},
				},
				map[string]any{
					"DN": 2,
					"FH": map[string]any{"DN": 2, "PLs": []any{0, 0}, "DLs": []any{0, 0, 1}, "PGs": []any{0, 0, 10}, "DGs": []any{0, 0, 1}},
					"MM": map[string]any{"MHi": 1},
				},
			},
		}},
	}
}

// randomEvent builds a valid event: every reference is unset or inside
// the hit groups.
func randomEvent(r *rand.Rand) Event {
	event := Event{
		RunN:   r.Uint64(),
		EventN: r.Uint64(),
		SetupN: uint16(r.Intn(1 << 16)),
		ClockN: r.Uint64(),
	}
	event.RawHits = randomRawHits(r)
	for i := r.Intn(5); i > 0; i-- {
		event.HitGroups = append(event.HitGroups, HitGroup{
			DetN:    uint16(r.Intn(1 << 16)),
			Pos:     [2]float64{r.NormFloat64(), r.NormFloat64()},
			RawHits: randomRawHits(r),
		})
	}
	for i := r.Intn(4); i > 0; i-- {
		traj := Trajectory{TrajN: r.Uint64()}
		for j := r.Intn(4); j > 0; j-- {
			traj.Hits = append(traj.Hits, TrajHit{
				DetN: uint16(r.Intn(1 << 16)),
				Fit: FitHit{
					DetN:      uint16(r.Intn(1 << 16)),
					Local:     [2]float64{r.NormFloat64(), r.NormFloat64()},
					LocalDir:  [3]float64{r.Float64(), r.Float64(), r.Float64()},
					Global:    [3]float64{r.NormFloat64() * 100, r.NormFloat64() * 100, r.Float64() * 1000},
					GlobalDir: [3]float64{r.Float64(), r.Float64(), r.Float64()},
				},
				Origin:  randomRef(r, len(event.HitGroups)),
				Matched: randomRef(r, len(event.HitGroups)),
			})
		}
		event.Trajectories = append(event.Trajectories, traj)
	}
	return event
}

func randomRawHits(r *rand.Rand) []RawHit {
	var hits []RawHit
	for i := r.Intn(6); i > 0; i-- {
		hits = append(hits, RawHit{
			U:    uint16(r.Intn(1 << 16)),
			V:    uint16(r.Intn(1 << 16)),
			DetN: uint16(r.Intn(1 << 16)),
			ClkN: uint16(r.Intn(1 << 16)),
		})
	}
	return hits
}

func randomRef(r *rand.Rand, nGroups int) HitGroupRef {
	if nGroups == 0 || r.Intn(3) == 0 {
		return NoHitGroup
	}
	return RefHitGroup(r.Intn(nGroups))
}

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, module+": "+message)
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}
