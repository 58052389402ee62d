package teldata

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"golang.org/x/exp/constraints"
)

// Construct builds an Event from a decoded document tree, as produced by
// decoding JSON or YAML into an `any`. Objects are map[string]any, sequences
// are []any and numbers may be json.Number, floats or any Go integer type.
//
// The wrapper keys of the wrapped documents (EV, MH, TJ, TH) are optional.
// Missing origin or merge matches, null ones and MHi == -1 are all read as
// NoHitGroup. Unknown keys are ignored.
//
// Construct never returns a partial event: on error the Event is zero.
func Construct(raw any) (Event, error) {
	obj, err := asObject(raw, "")
	if err != nil {
		return Event{}, err
	}
	obj, path, err := unwrap(obj, "EV", "")
	if err != nil {
		return Event{}, err
	}

	var event Event
	if event.RunN, err = unsignedField[uint64](obj, "RN", path); err != nil {
		return Event{}, err
	}
	if event.EventN, err = unsignedField[uint64](obj, "EN", path); err != nil {
		return Event{}, err
	}
	if event.SetupN, err = unsignedField[uint16](obj, "DN", path); err != nil {
		return Event{}, err
	}
	if event.ClockN, err = unsignedField[uint64](obj, "CK", path); err != nil {
		return Event{}, err
	}
	if event.RawHits, err = rawHitsField(obj, "MRs", path); err != nil {
		return Event{}, err
	}

	groups, groupsPath, err := sequenceField(obj, "MHs", path)
	if err != nil {
		return Event{}, err
	}
	for i, g := range groups {
		group, err := constructHitGroup(g, indexPath(groupsPath, i))
		if err != nil {
			return Event{}, err
		}
		event.HitGroups = append(event.HitGroups, group)
	}

	trajs, trajsPath, err := sequenceField(obj, "TJs", path)
	if err != nil {
		return Event{}, err
	}
	for i, t := range trajs {
		traj, err := constructTrajectory(t, indexPath(trajsPath, i))
		if err != nil {
			return Event{}, err
		}
		event.Trajectories = append(event.Trajectories, traj)
	}
	return event, nil
}

func constructHitGroup(raw any, path string) (HitGroup, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return HitGroup{}, err
	}
	obj, path, err = unwrap(obj, "MH", path)
	if err != nil {
		return HitGroup{}, err
	}

	var group HitGroup
	if group.DetN, err = unsignedField[uint16](obj, "DN", path); err != nil {
		return HitGroup{}, err
	}
	if err = floatsField(obj, "PLs", path, group.Pos[:]); err != nil {
		return HitGroup{}, err
	}
	if group.RawHits, err = rawHitsField(obj, "MRs", path); err != nil {
		return HitGroup{}, err
	}
	return group, nil
}

func constructTrajectory(raw any, path string) (Trajectory, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return Trajectory{}, err
	}
	obj, path, err = unwrap(obj, "TJ", path)
	if err != nil {
		return Trajectory{}, err
	}

	var traj Trajectory
	if traj.TrajN, err = unsignedField[uint64](obj, "TN", path); err != nil {
		return Trajectory{}, err
	}
	hits, hitsPath, err := sequenceField(obj, "THs", path)
	if err != nil {
		return Trajectory{}, err
	}
	for i, h := range hits {
		hit, err := constructTrajHit(h, indexPath(hitsPath, i))
		if err != nil {
			return Trajectory{}, err
		}
		traj.Hits = append(traj.Hits, hit)
	}
	return traj, nil
}

func constructTrajHit(raw any, path string) (TrajHit, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return TrajHit{}, err
	}
	obj, path, err = unwrap(obj, "TH", path)
	if err != nil {
		return TrajHit{}, err
	}

	var hit TrajHit
	if hit.DetN, err = unsignedField[uint16](obj, "DN", path); err != nil {
		return TrajHit{}, err
	}

	fhRaw, fhPath, err := field(obj, "FH", path)
	if err != nil {
		return TrajHit{}, err
	}
	fh, err := asObject(fhRaw, fhPath)
	if err != nil {
		return TrajHit{}, err
	}
	if hit.Fit.DetN, err = unsignedField[uint16](fh, "DN", fhPath); err != nil {
		return TrajHit{}, err
	}
	if err = floatsField(fh, "PLs", fhPath, hit.Fit.Local[:]); err != nil {
		return TrajHit{}, err
	}
	if err = floatsField(fh, "DLs", fhPath, hit.Fit.LocalDir[:]); err != nil {
		return TrajHit{}, err
	}
	if err = floatsField(fh, "PGs", fhPath, hit.Fit.Global[:]); err != nil {
		return TrajHit{}, err
	}
	if err = floatsField(fh, "DGs", fhPath, hit.Fit.GlobalDir[:]); err != nil {
		return TrajHit{}, err
	}

	if hit.Origin, err = matchField(obj, "OM", path); err != nil {
		return TrajHit{}, err
	}
	if hit.Matched, err = matchField(obj, "MM", path); err != nil {
		return TrajHit{}, err
	}
	return hit, nil
}

func matchField(obj map[string]any, key, path string) (HitGroupRef, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return NoHitGroup, nil
	}
	p := joinPath(path, key)
	m, err := asObject(raw, p)
	if err != nil {
		return NoHitGroup, err
	}
	v, ip, err := field(m, "MHi", p)
	if err != nil {
		return NoHitGroup, err
	}
	b, err := bigInteger(v, ip)
	if err != nil {
		return NoHitGroup, err
	}
	if b.Cmp(big.NewInt(-1)) < 0 || b.Cmp(big.NewInt(MaxHitGroupIndex)) > 0 {
		return NoHitGroup, mismatch(ip, "index %s outside [-1, %d]", b, MaxHitGroupIndex)
	}
	return RefHitGroup(int(b.Int64())), nil
}

func rawHitsField(obj map[string]any, key, path string) ([]RawHit, error) {
	items, p, err := sequenceField(obj, key, path)
	if err != nil {
		return nil, err
	}
	var hits []RawHit
	for i, item := range items {
		ip := indexPath(p, i)
		values, err := asTuple(item, ip, 4)
		if err != nil {
			return nil, err
		}
		var fields [4]uint16
		for j, v := range values {
			if fields[j], err = asUnsigned[uint16](v, indexPath(ip, j)); err != nil {
				return nil, err
			}
		}
		hits = append(hits, RawHit{U: fields[0], V: fields[1], DetN: fields[2], ClkN: fields[3]})
	}
	return hits, nil
}

func floatsField(obj map[string]any, key, path string, out []float64) error {
	v, p, err := field(obj, key, path)
	if err != nil {
		return err
	}
	values, err := asTuple(v, p, len(out))
	if err != nil {
		return err
	}
	for i, value := range values {
		if out[i], err = asFloat(value, indexPath(p, i)); err != nil {
			return err
		}
	}
	return nil
}

func unsignedField[T constraints.Unsigned](obj map[string]any, key, path string) (T, error) {
	v, p, err := field(obj, key, path)
	if err != nil {
		return 0, err
	}
	return asUnsigned[T](v, p)
}

// sequenceField reads a required sequence. A null sequence is empty.
func sequenceField(obj map[string]any, key, path string) ([]any, string, error) {
	p := joinPath(path, key)
	v, ok := obj[key]
	if !ok {
		return nil, p, malformed(p, "missing field")
	}
	if v == nil {
		return nil, p, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, p, malformed(p, "want sequence, got %s", kindOf(v))
	}
	return items, p, nil
}

func field(obj map[string]any, key, path string) (any, string, error) {
	p := joinPath(path, key)
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, p, malformed(p, "missing field")
	}
	return v, p, nil
}

func unwrap(obj map[string]any, key, path string) (map[string]any, string, error) {
	inner, ok := obj[key]
	if !ok || len(obj) != 1 {
		return obj, path, nil
	}
	p := joinPath(path, key)
	m, err := asObject(inner, p)
	return m, p, err
}

func asObject(v any, path string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(path, "want object, got %s", kindOf(v))
	}
	return m, nil
}

func asTuple(v any, path string, n int) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, malformed(path, "want %d values, got %s", n, kindOf(v))
	}
	if len(items) != n {
		return nil, malformed(path, "want %d values, got %d", n, len(items))
	}
	return items, nil
}

func asUnsigned[T constraints.Unsigned](v any, path string) (T, error) {
	b, err := bigInteger(v, path)
	if err != nil {
		return 0, err
	}
	max := new(big.Int).SetUint64(uint64(^T(0)))
	if b.Sign() < 0 || b.Cmp(max) > 0 {
		return 0, mismatch(path, "%s outside [0, %s]", b, max)
	}
	return T(b.Uint64()), nil
}

func asFloat(v any, path string) (float64, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, mismatch(path, "want number, got %q", x.String())
		}
		f = parsed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case map[string]any, []any:
		return 0, malformed(path, "want number, got %s", kindOf(v))
	default:
		return 0, mismatch(path, "want number, got %s", kindOf(v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, mismatch(path, "non-finite number %v", f)
	}
	return f, nil
}

// bigInteger reads any integral number without loss.
func bigInteger(v any, path string) (*big.Int, error) {
	switch x := v.(type) {
	case json.Number:
		if b, ok := new(big.Int).SetString(x.String(), 10); ok {
			return b, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, mismatch(path, "want integer, got %q", x.String())
		}
		return floatInteger(f, path)
	case float64:
		return floatInteger(x, path)
	case float32:
		return floatInteger(float64(x), path)
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case map[string]any, []any:
		return nil, malformed(path, "want integer, got %s", kindOf(v))
	default:
		return nil, mismatch(path, "want integer, got %s", kindOf(v))
	}
}

func floatInteger(f float64, path string) (*big.Int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, mismatch(path, "want integer, got %v", f)
	}
	b, _ := big.NewFloat(f).Int(nil)
	return b, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "sequence"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
