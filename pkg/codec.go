package teldata

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
)

// Wire documents keep the field names of the telescope event
// files. Every sequence element is wrapped in a single-key object.

type eventDoc struct {
	EV eventWire `json:"EV"`
}

type eventWire struct {
	RN  uint64        `json:"RN"`
	EN  uint64        `json:"EN"`
	DN  uint16        `json:"DN"`
	CK  uint64        `json:"CK"`
	MRs [][4]uint16   `json:"MRs"`
	MHs []hitGroupDoc `json:"MHs"`
	TJs []trajDoc     `json:"TJs"`
}

type hitGroupDoc struct {
	MH hitGroupWire `json:"MH"`
}

type hitGroupWire struct {
	DN  uint16      `json:"DN"`
	PLs [2]float64  `json:"PLs"`
	MRs [][4]uint16 `json:"MRs"`
}

type trajDoc struct {
	TJ trajWire `json:"TJ"`
}

type trajWire struct {
	TN  uint64       `json:"TN"`
	THs []trajHitDoc `json:"THs"`
}

type trajHitDoc struct {
	TH trajHitWire `json:"TH"`
}

type trajHitWire struct {
	DN uint16     `json:"DN"`
	FH fitHitWire `json:"FH"`
	OM matchWire  `json:"OM"`
	MM matchWire  `json:"MM"`
}

type fitHitWire struct {
	DN  uint16     `json:"DN"`
	PLs [2]float64 `json:"PLs"`
	DLs [3]float64 `json:"DLs"`
	PGs [3]float64 `json:"PGs"`
	DGs [3]float64 `json:"DGs"`
}

type matchWire struct {
	MHi int64 `json:"MHi"`
}

// Serialize encodes the event as one compact wire document. Unset matches
// are written as {"MHi":-1} and empty sequences as [].
func Serialize(event *Event) ([]byte, error) {
	doc, err := toWire(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Parse decodes one wire document. It is the inverse of Serialize and also
// accepts the unwrapped form of the document.
func Parse(data []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Event{}, malformed("", "%v", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Event{}, malformed("", "trailing data after event document")
	}
	return Construct(raw)
}

func toWire(event *Event) (eventDoc, error) {
	w := eventWire{
		RN:  event.RunN,
		EN:  event.EventN,
		DN:  event.SetupN,
		CK:  event.ClockN,
		MRs: rawHitsWire(event.RawHits),
		MHs: make([]hitGroupDoc, 0, len(event.HitGroups)),
		TJs: make([]trajDoc, 0, len(event.Trajectories)),
	}
	for i, g := range event.HitGroups {
		if err := checkFinite(indexPath("MHs", i)+".PLs", g.Pos[:]); err != nil {
			return eventDoc{}, err
		}
		w.MHs = append(w.MHs, hitGroupDoc{MH: hitGroupWire{
			DN:  g.DetN,
			PLs: g.Pos,
			MRs: rawHitsWire(g.RawHits),
		}})
	}
	for i, t := range event.Trajectories {
		tw := trajWire{TN: t.TrajN, THs: make([]trajHitDoc, 0, len(t.Hits))}
		for j, h := range t.Hits {
			path := indexPath(indexPath("TJs", i)+".THs", j) + ".FH"
			for _, v := range [][]float64{h.Fit.Local[:], h.Fit.LocalDir[:], h.Fit.Global[:], h.Fit.GlobalDir[:]} {
				if err := checkFinite(path, v); err != nil {
					return eventDoc{}, err
				}
			}
			tw.THs = append(tw.THs, trajHitDoc{TH: trajHitWire{
				DN: h.DetN,
				FH: fitHitWire{
					DN:  h.Fit.DetN,
					PLs: h.Fit.Local,
					DLs: h.Fit.LocalDir,
					PGs: h.Fit.Global,
					DGs: h.Fit.GlobalDir,
				},
				OM: matchWire{MHi: h.Origin.wireIndex()},
				MM: matchWire{MHi: h.Matched.wireIndex()},
			}})
		}
		w.TJs = append(w.TJs, trajDoc{TJ: tw})
	}
	return eventDoc{EV: w}, nil
}

func rawHitsWire(hits []RawHit) [][4]uint16 {
	out := make([][4]uint16, 0, len(hits))
	for _, h := range hits {
		out = append(out, [4]uint16{h.U, h.V, h.DetN, h.ClkN})
	}
	return out
}

func checkFinite(path string, values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mismatch(path, "non-finite number %v", v)
		}
	}
	return nil
}
