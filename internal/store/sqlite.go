package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/summitline/trailprep/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck,gosec
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	country     TEXT NOT NULL,
	source      TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	total       INTEGER NOT NULL,
	resolved    INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_records (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	position         INTEGER NOT NULL,
	place_name       TEXT NOT NULL,
	starting_point   TEXT NOT NULL,
	area             TEXT NOT NULL DEFAULT '',
	query            TEXT NOT NULL DEFAULT '',
	lat              REAL,
	lon              REAL,
	resolved_address TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_records_status ON run_records(run_id, status);
`

// Migrate applies the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun implements Store.
func (s *SQLiteStore) SaveRun(ctx context.Context, run model.Run, records []model.TrailRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, country, source, started_at, finished_at, total, resolved, failed, skipped, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Country, run.Source,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Summary.Total, run.Summary.Resolved, run.Summary.Failed, run.Summary.Skipped,
		run.Error,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_records (run_id, position, place_name, starting_point, area, query, lat, lon, resolved_address, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range records {
		var lat, lon any
		if r.HasCoordinates() {
			lat, lon = *r.Lat, *r.Lon
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, r.PlaceName, r.StartingPoint, r.Area, r.Query,
			lat, lon, r.ResolvedAddress, string(r.Status),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d of run %s", i, run.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, country, source, started_at, finished_at, total, resolved, failed, skipped, error
		 FROM runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

// ListRuns implements Store.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, country, source, started_at, finished_at, total, resolved, failed, skipped, error
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// RunRecords implements Store.
func (s *SQLiteStore) RunRecords(ctx context.Context, runID string) ([]model.TrailRecord, error) {
	return s.queryRecords(ctx,
		`SELECT place_name, starting_point, area, query, lat, lon, resolved_address, status
		 FROM run_records WHERE run_id = ? ORDER BY position`, runID)
}

// FailedRecords implements Store.
func (s *SQLiteStore) FailedRecords(ctx context.Context, runID string) ([]model.TrailRecord, error) {
	records, err := s.queryRecords(ctx,
		`SELECT place_name, starting_point, area, query, lat, lon, resolved_address, status
		 FROM run_records WHERE run_id = ? AND status = ? ORDER BY position`,
		runID, string(model.StatusFailed))
	if err != nil {
		return nil, err
	}
	// Reset for the retry run.
	for i := range records {
		records[i].Status = model.StatusPending
		records[i].Query = ""
		records[i].ClearCoordinates()
	}
	return records, nil
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]model.TrailRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.TrailRecord
	for rows.Next() {
		var r model.TrailRecord
		var lat, lon sql.NullFloat64
		var status string
		if err := rows.Scan(&r.PlaceName, &r.StartingPoint, &r.Area, &r.Query,
			&lat, &lon, &r.ResolvedAddress, &status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		r.Status = model.GeocodeStatus(status)
		if lat.Valid && lon.Valid {
			latV, lonV := lat.Float64, lon.Float64
			r.Lat, r.Lon = &latV, &lonV
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var startedAt, finishedAt time.Time
	if err := row.Scan(&run.ID, &run.Country, &run.Source, &startedAt, &finishedAt,
		&run.Summary.Total, &run.Summary.Resolved, &run.Summary.Failed, &run.Summary.Skipped,
		&run.Error); err != nil {
		return nil, err
	}
	run.StartedAt = startedAt
	run.FinishedAt = finishedAt
	return &run, nil
}
