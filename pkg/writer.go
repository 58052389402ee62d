package teldata

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Writer appends events to a columnar HDF5 file. It is not safe for
// concurrent use.
type Writer struct {
	File            *hdf5.File
	Filename        string
	Session         string
	RunGroup        *hdf5.Group
	HitsGroup       *hdf5.Group
	TracksGroup     *hdf5.Group
	AnalysisGroup   *hdf5.Group
	InfoTable       *hdf5.Dataset
	EventTable      *hdf5.Dataset
	RawHitTable     *hdf5.Dataset
	HitGroupTable   *hdf5.Dataset
	GroupRawTable   *hdf5.Dataset
	TrajectoryTable *hdf5.Dataset
	TrajHitTable    *hdf5.Dataset
	ResidualTable   *hdf5.Dataset
	EvtCounter      int

	// first failed table write; the tables are no longer aligned after it
	writeErr error
}

// NewWriter creates (or truncates) filename and lays out the event tables.
// Residual tables are only created when config.WriteResiduals is set.
func NewWriter(filename string, config Configuration) (*Writer, error) {
	writer := &Writer{Filename: filename, Session: uuid.NewString()}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file %s, session %s", filename, writer.Session), "writer")
	}

	var err error
	if writer.File, err = createFile(filename); err != nil {
		return nil, err
	}
	if err := writer.layout(config); err != nil {
		return nil, errors.Join(err, writer.Close())
	}

	info := InfoHDF5{session: convertToHdf5String(writer.Session), format_version: FormatVersion}
	if err := writeEntryToTable(writer.InfoTable, info); err != nil {
		return nil, errors.Join(fmt.Errorf("error writing file info: %w", err), writer.Close())
	}
	return writer, nil
}

func (w *Writer) layout(config Configuration) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.HitsGroup, err = createGroup(w.File, "Hits"); err != nil {
		return err
	}
	if w.TracksGroup, err = createGroup(w.File, "Tracks"); err != nil {
		return err
	}
	if w.InfoTable, err = createTable(w.RunGroup, "info", InfoHDF5{}, config); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventHDF5{}, config); err != nil {
		return err
	}
	if w.RawHitTable, err = createTable(w.HitsGroup, "raw", RawHitHDF5{}, config); err != nil {
		return err
	}
	if w.HitGroupTable, err = createTable(w.HitsGroup, "groups", HitGroupHDF5{}, config); err != nil {
		return err
	}
	if w.GroupRawTable, err = createTable(w.HitsGroup, "group_raw", RawHitHDF5{}, config); err != nil {
		return err
	}
	if w.TrajectoryTable, err = createTable(w.TracksGroup, "trajectories", TrajectoryHDF5{}, config); err != nil {
		return err
	}
	if w.TrajHitTable, err = createTable(w.TracksGroup, "hits", TrajHitHDF5{}, config); err != nil {
		return err
	}
	if config.WriteResiduals {
		if w.AnalysisGroup, err = createGroup(w.File, "Analysis"); err != nil {
			return err
		}
		if w.ResidualTable, err = createTable(w.AnalysisGroup, "residuals", ResidualHDF5{}, config); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent appends one event. The event is validated first so that a
// stored file never holds a dangling index.
func (w *Writer) WriteEvent(event *Event) error {
	if w.writeErr != nil {
		return fmt.Errorf("file %s is unusable after a failed write: %w", w.Filename, w.writeErr)
	}
	if err := Validate(event); err != nil {
		return err
	}
	var residuals []Residual
	if w.ResidualTable != nil {
		var err error
		if residuals, err = Residuals(event); err != nil {
			return err
		}
	}

	evtIndex := uint32(w.EvtCounter)
	rawHits := rawHitRows(evtIndex, event.RawHits)

	groups := make([]HitGroupHDF5, len(event.HitGroups))
	var groupRaw []RawHitHDF5
	for i, g := range event.HitGroups {
		groups[i] = HitGroupHDF5{
			evt_index: evtIndex,
			det:       g.DetN,
			u:         g.Pos[0],
			v:         g.Pos[1],
			n_raw:     uint32(len(g.RawHits)),
		}
		groupRaw = append(groupRaw, rawHitRows(evtIndex, g.RawHits)...)
	}

	trajs := make([]TrajectoryHDF5, len(event.Trajectories))
	var trajHits []TrajHitHDF5
	for i, t := range event.Trajectories {
		trajs[i] = TrajectoryHDF5{
			evt_index:   evtIndex,
			traj_number: t.TrajN,
			n_hits:      uint32(len(t.Hits)),
		}
		for _, h := range t.Hits {
			trajHits = append(trajHits, TrajHitHDF5{
				evt_index:     evtIndex,
				det:           h.DetN,
				fit_det:       h.Fit.DetN,
				pos_local:     h.Fit.Local,
				dir_local:     h.Fit.LocalDir,
				pos_global:    h.Fit.Global,
				dir_global:    h.Fit.GlobalDir,
				origin_index:  int32(h.Origin.wireIndex()),
				matched_index: int32(h.Matched.wireIndex()),
			})
		}
	}

	row := EventHDF5{
		run_number: event.RunN,
		evt_number: event.EventN,
		clock:      event.ClockN,
		setup:      event.SetupN,
		n_raw:      uint32(len(event.RawHits)),
		n_groups:   uint32(len(event.HitGroups)),
		n_trajs:    uint32(len(event.Trajectories)),
	}

	// A failure leaves the tables misaligned, so it is kept for later calls.
	fail := func(err error) error {
		w.writeErr = err
		return err
	}

	// The event row goes last: a reader only trusts rows announced by it.
	if err := writeArrayToTable(w.RawHitTable, &rawHits); err != nil {
		return fail(fmt.Errorf("error writing raw hits of event %d: %w", event.EventN, err))
	}
	if err := writeArrayToTable(w.HitGroupTable, &groups); err != nil {
		return fail(fmt.Errorf("error writing hit groups of event %d: %w", event.EventN, err))
	}
	if err := writeArrayToTable(w.GroupRawTable, &groupRaw); err != nil {
		return fail(fmt.Errorf("error writing hit group raw hits of event %d: %w", event.EventN, err))
	}
	if err := writeArrayToTable(w.TrajectoryTable, &trajs); err != nil {
		return fail(fmt.Errorf("error writing trajectories of event %d: %w", event.EventN, err))
	}
	if err := writeArrayToTable(w.TrajHitTable, &trajHits); err != nil {
		return fail(fmt.Errorf("error writing trajectory hits of event %d: %w", event.EventN, err))
	}
	if w.ResidualTable != nil {
		rows := make([]ResidualHDF5, len(residuals))
		for i, r := range residuals {
			rows[i] = ResidualHDF5{evt_index: evtIndex, det: r.DetN, resid_u: r.U, resid_v: r.V}
		}
		if err := writeArrayToTable(w.ResidualTable, &rows); err != nil {
			return fail(fmt.Errorf("error writing residuals of event %d: %w", event.EventN, err))
		}
	}
	if err := writeEntryToTable(w.EventTable, row); err != nil {
		return fail(fmt.Errorf("error writing event %d: %w", event.EventN, err))
	}

	if verbosity > 1 {
		logger.Info(fmt.Sprintf("Written event %d (%d in file)", event.EventN, w.EvtCounter), "writer")
	}
	w.EvtCounter++
	return nil
}

func rawHitRows(evtIndex uint32, hits []RawHit) []RawHitHDF5 {
	rows := make([]RawHitHDF5, len(hits))
	for i, h := range hits {
		rows[i] = RawHitHDF5{evt_index: evtIndex, u: h.U, v: h.V, det: h.DetN, clk: h.ClkN}
	}
	return rows
}

func (w *Writer) Close() error {
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing file %s, %d events", w.Filename, w.EvtCounter), "writer")
	}
	var errs []error

	tables := []struct {
		name string
		dset *hdf5.Dataset
	}{
		{"info table", w.InfoTable},
		{"event table", w.EventTable},
		{"raw hit table", w.RawHitTable},
		{"hit group table", w.HitGroupTable},
		{"hit group raw hit table", w.GroupRawTable},
		{"trajectory table", w.TrajectoryTable},
		{"trajectory hit table", w.TrajHitTable},
		{"residual table", w.ResidualTable},
	}
	for _, t := range tables {
		if t.dset == nil {
			continue
		}
		if err := t.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", t.name, err))
		}
	}

	groups := []struct {
		name  string
		group *hdf5.Group
	}{
		{"run group", w.RunGroup},
		{"hits group", w.HitsGroup},
		{"tracks group", w.TracksGroup},
		{"analysis group", w.AnalysisGroup},
	}
	for _, g := range groups {
		if g.group == nil {
			continue
		}
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", g.name, err))
		}
	}

	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	w.InfoTable, w.EventTable, w.RawHitTable, w.HitGroupTable = nil, nil, nil, nil
	w.GroupRawTable, w.TrajectoryTable, w.TrajHitTable, w.ResidualTable = nil, nil, nil, nil
	w.RunGroup, w.HitsGroup, w.TracksGroup, w.AnalysisGroup, w.File = nil, nil, nil, nil, nil

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
