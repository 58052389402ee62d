package teldata

import (
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

// ConnectToDatabase opens the detector catalog. The mysql driver connects to
// Host:Port; the sqlite driver opens DBName as a file.
func ConnectToDatabase(config Configuration) (*sqlx.DB, error) {
	switch config.DBDriver {
	case "", "mysql":
		port := config.Port
		if port == 0 {
			port = 3306
		}
		dbURI := fmt.Sprintf("%s:%s@(%s:%d)/%s?parseTime=true", config.User, config.Passwd, config.Host, port, config.DBName)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		return sqlx.Connect("sqlite", config.DBName)
	default:
		return nil, fmt.Errorf("unknown database driver %q", config.DBDriver)
	}
}

type DetectorEntry struct {
	DetN  uint16 `db:"DetN"`
	Label string `db:"Label"`
}

// DetectorSetup lists the detector planes mounted for a run range.
type DetectorSetup struct {
	SetupN    uint16
	Detectors map[uint16]string
}

func (s DetectorSetup) Contains(detN uint16) bool {
	_, ok := s.Detectors[detN]
	return ok
}

// Check reports every hit of the event that sits on a detector outside the
// setup.
func (s DetectorSetup) Check(event *Event) []Warning {
	var warnings []Warning
	unknown := func(path string, detN uint16) {
		if !s.Contains(detN) {
			warnings = append(warnings, Warning{
				Path:    path,
				Message: fmt.Sprintf("detector %d is not part of setup %d", detN, s.SetupN),
			})
		}
	}
	for i, r := range event.RawHits {
		unknown(fmt.Sprintf("MRs[%d]", i), r.DetN)
	}
	for g, group := range event.HitGroups {
		unknown(fmt.Sprintf("MHs[%d]", g), group.DetN)
		for r, raw := range group.RawHits {
			unknown(fmt.Sprintf("MHs[%d].MRs[%d]", g, r), raw.DetN)
		}
	}
	for t, traj := range event.Trajectories {
		for h, hit := range traj.Hits {
			unknown(fmt.Sprintf("TJs[%d].THs[%d]", t, h), hit.DetN)
		}
	}
	return warnings
}

type setupKey struct {
	run    uint64
	setupN uint16
}

// Catalog caches detector setups read from the database. It is safe for
// concurrent use.
type Catalog struct {
	db     *sqlx.DB
	mu     sync.Mutex
	setups map[setupKey]DetectorSetup
}

func NewCatalog(db *sqlx.DB) *Catalog {
	return &Catalog{db: db, setups: make(map[setupKey]DetectorSetup)}
}

// Setup returns the detectors of setup setupN valid for the run.
func (c *Catalog) Setup(run uint64, setupN uint16) (DetectorSetup, error) {
	key := setupKey{run: run, setupN: setupN}
	c.mu.Lock()
	defer c.mu.Unlock()
	if setup, ok := c.setups[key]; ok {
		return setup, nil
	}
	setup, err := getSetupFromDB(c.db, run, setupN)
	if err != nil {
		errMessage := fmt.Errorf("error getting detector setup from database: %w", err)
		logger.Error(errMessage.Error())
		return DetectorSetup{}, errMessage
	}
	c.setups[key] = setup
	return setup, nil
}

func getSetupFromDB(db *sqlx.DB, run uint64, setupN uint16) (DetectorSetup, error) {
	query := "SELECT DetN, Label FROM DetectorSetup WHERE SetupN = ? AND MinRun <= ? AND MaxRun >= ? ORDER BY DetN"

	if verbosity > 0 {
		message := fmt.Sprintf("Reading setup %d for run %d from database", setupN, run)
		logger.Info(message, "database")
	}
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, setupN, run, run)
	if err != nil {
		return DetectorSetup{}, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	setup := DetectorSetup{SetupN: setupN, Detectors: make(map[uint16]string)}
	for rows.Next() {
		result := DetectorEntry{}
		if err := rows.StructScan(&result); err != nil {
			return DetectorSetup{}, fmt.Errorf("error scanning DB row: %w", err)
		}
		setup.Detectors[result.DetN] = result.Label
	}
	if err := rows.Err(); err != nil {
		return DetectorSetup{}, fmt.Errorf("error reading DB rows: %w", err)
	}
	if len(setup.Detectors) == 0 {
		return DetectorSetup{}, fmt.Errorf("no detectors for setup %d in run %d", setupN, run)
	}
	return setup, nil
}
