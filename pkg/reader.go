package teldata

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Reader gives random access to the events of a file written by Writer.
// All tables are loaded when the file is opened.
type Reader struct {
	File          *hdf5.File
	Filename      string
	Session       string
	FormatVersion int32

	events    []EventHDF5
	rawHits   []RawHitHDF5
	groups    []HitGroupHDF5
	groupRaw  []RawHitHDF5
	trajs     []TrajectoryHDF5
	trajHits  []TrajHitHDF5
	residuals []ResidualHDF5

	// first row of every event in each table
	rawStart      []int
	groupStart    []int
	groupRawStart []int // per hit group
	trajStart     []int
	trajHitStart  []int // per trajectory
}

func OpenReader(filename string) (*Reader, error) {
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Opening file %s", filename), "reader")
	}
	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}

	r := &Reader{File: file, Filename: filename}
	if err := r.load(file); err != nil {
		return nil, errors.Join(fmt.Errorf("error reading %s: %w", filename, err), r.Close())
	}
	if err := r.index(); err != nil {
		return nil, errors.Join(fmt.Errorf("error reading %s: %w", filename, err), r.Close())
	}
	return r, nil
}

// Close releases the file. Events already rebuilt stay valid.
func (r *Reader) Close() error {
	if r.File == nil {
		return nil
	}
	err := r.File.Close()
	r.File = nil
	if err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}

func openGroup(file *hdf5.File, name string) (*hdf5.Group, error) {
	g, err := file.OpenGroup(name)
	if err != nil {
		return nil, &ErrOpenTable{TableName: name, Err: err}
	}
	return g, nil
}

func (r *Reader) load(file *hdf5.File) error {
	run, err := openGroup(file, "Run")
	if err != nil {
		return err
	}
	defer run.Close()
	hits, err := openGroup(file, "Hits")
	if err != nil {
		return err
	}
	defer hits.Close()
	tracks, err := openGroup(file, "Tracks")
	if err != nil {
		return err
	}
	defer tracks.Close()

	info, err := readTable[InfoHDF5](run, "info")
	if err != nil {
		return err
	}
	if len(info) != 1 {
		return malformed("Run/info", "want 1 row, got %d", len(info))
	}
	r.Session = convertFromHdf5String(info[0].session)
	r.FormatVersion = info[0].format_version
	if r.FormatVersion != FormatVersion {
		return malformed("Run/info", "unsupported format version %d", r.FormatVersion)
	}

	if r.events, err = readTable[EventHDF5](run, "events"); err != nil {
		return err
	}
	if r.rawHits, err = readTable[RawHitHDF5](hits, "raw"); err != nil {
		return err
	}
	if r.groups, err = readTable[HitGroupHDF5](hits, "groups"); err != nil {
		return err
	}
	if r.groupRaw, err = readTable[RawHitHDF5](hits, "group_raw"); err != nil {
		return err
	}
	if r.trajs, err = readTable[TrajectoryHDF5](tracks, "trajectories"); err != nil {
		return err
	}
	if r.trajHits, err = readTable[TrajHitHDF5](tracks, "hits"); err != nil {
		return err
	}

	// The analysis group is optional.
	if file.LinkExists("Analysis") {
		analysis, err := openGroup(file, "Analysis")
		if err != nil {
			return err
		}
		defer analysis.Close()
		if r.residuals, err = readTable[ResidualHDF5](analysis, "residuals"); err != nil {
			return err
		}
	}
	return nil
}

// index computes the row offsets of every event and checks that the counts
// stored with the events add up to the table lengths.
func (r *Reader) index() error {
	var nRaw, nGroups, nTrajs int
	for _, e := range r.events {
		r.rawStart = append(r.rawStart, nRaw)
		r.groupStart = append(r.groupStart, nGroups)
		r.trajStart = append(r.trajStart, nTrajs)
		nRaw += int(e.n_raw)
		nGroups += int(e.n_groups)
		nTrajs += int(e.n_trajs)
	}
	if nRaw != len(r.rawHits) {
		return malformed("Hits/raw", "events announce %d rows, table has %d", nRaw, len(r.rawHits))
	}
	if nGroups != len(r.groups) {
		return malformed("Hits/groups", "events announce %d rows, table has %d", nGroups, len(r.groups))
	}
	if nTrajs != len(r.trajs) {
		return malformed("Tracks/trajectories", "events announce %d rows, table has %d", nTrajs, len(r.trajs))
	}

	var nGroupRaw int
	for _, g := range r.groups {
		r.groupRawStart = append(r.groupRawStart, nGroupRaw)
		nGroupRaw += int(g.n_raw)
	}
	if nGroupRaw != len(r.groupRaw) {
		return malformed("Hits/group_raw", "hit groups announce %d rows, table has %d", nGroupRaw, len(r.groupRaw))
	}

	var nTrajHits int
	for _, t := range r.trajs {
		r.trajHitStart = append(r.trajHitStart, nTrajHits)
		nTrajHits += int(t.n_hits)
	}
	if nTrajHits != len(r.trajHits) {
		return malformed("Tracks/hits", "trajectories announce %d rows, table has %d", nTrajHits, len(r.trajHits))
	}
	return nil
}

func (r *Reader) NumEvents() int {
	return len(r.events)
}

// Event rebuilds the n-th event of the file.
func (r *Reader) Event(n int) (Event, error) {
	if n < 0 || n >= len(r.events) {
		return Event{}, fmt.Errorf("event %d out of range [0, %d)", n, len(r.events))
	}
	row := r.events[n]
	event := Event{
		RunN:    row.run_number,
		EventN:  row.evt_number,
		SetupN:  row.setup,
		ClockN:  row.clock,
		RawHits: rawHitsFromRows(r.rawHits[r.rawStart[n] : r.rawStart[n]+int(row.n_raw)]),
	}

	first := r.groupStart[n]
	for g := first; g < first+int(row.n_groups); g++ {
		group := r.groups[g]
		start := r.groupRawStart[g]
		event.HitGroups = append(event.HitGroups, HitGroup{
			DetN:    group.det,
			Pos:     [2]float64{group.u, group.v},
			RawHits: rawHitsFromRows(r.groupRaw[start : start+int(group.n_raw)]),
		})
	}

	first = r.trajStart[n]
	for t := first; t < first+int(row.n_trajs); t++ {
		traj := Trajectory{TrajN: r.trajs[t].traj_number}
		start := r.trajHitStart[t]
		for h, hit := range r.trajHits[start : start+int(r.trajs[t].n_hits)] {
			path := fmt.Sprintf("TJs[%d].THs[%d]", t-first, h)
			origin, err := refFromRow(hit.origin_index, path+".OM.MHi")
			if err != nil {
				return Event{}, err
			}
			matched, err := refFromRow(hit.matched_index, path+".MM.MHi")
			if err != nil {
				return Event{}, err
			}
			traj.Hits = append(traj.Hits, TrajHit{
				DetN: hit.det,
				Fit: FitHit{
					DetN:      hit.fit_det,
					Local:     hit.pos_local,
					LocalDir:  hit.dir_local,
					Global:    hit.pos_global,
					GlobalDir: hit.dir_global,
				},
				Origin:  origin,
				Matched: matched,
			})
		}
		event.Trajectories = append(event.Trajectories, traj)
	}

	if err := Validate(&event); err != nil {
		return Event{}, errors.Join(fmt.Errorf("stored event %d is inconsistent", n), err)
	}
	return event, nil
}

// StoredResidual is a residual row together with the file position of its
// event.
type StoredResidual struct {
	Event int
	DetN  uint16
	U     float64
	V     float64
}

// Residuals returns the stored residual rows, empty when the file was
// written without them.
func (r *Reader) Residuals() []StoredResidual {
	out := make([]StoredResidual, len(r.residuals))
	for i, row := range r.residuals {
		out[i] = StoredResidual{Event: int(row.evt_index), DetN: row.det, U: row.resid_u, V: row.resid_v}
	}
	return out
}

func rawHitsFromRows(rows []RawHitHDF5) []RawHit {
	if len(rows) == 0 {
		return nil
	}
	hits := make([]RawHit, len(rows))
	for i, row := range rows {
		hits[i] = RawHit{U: row.u, V: row.v, DetN: row.det, ClkN: row.clk}
	}
	return hits
}

func refFromRow(index int32, path string) (HitGroupRef, error) {
	if index < -1 {
		return NoHitGroup, mismatch(path, "index %d below -1", index)
	}
	return RefHitGroup(int(index)), nil
}
