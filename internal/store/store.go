// Package store persists finished runs to SQLite: one summary row per run,
// mirroring the columns of the original spreadsheet export, plus one row per
// counted repetition.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/smartinertia/flywheel/internal/engine"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			name TEXT NOT NULL,
			weight REAL NOT NULL,
			load REAL NOT NULL,
			pulley INTEGER NOT NULL,
			partial INTEGER NOT NULL,
			v_con_max REAL NOT NULL, v_ecc_max REAL NOT NULL,
			v_con_mean REAL NOT NULL, v_ecc_mean REAL NOT NULL,
			f_con_max REAL NOT NULL, f_ecc_max REAL NOT NULL,
			f_con_mean REAL NOT NULL, f_ecc_mean REAL NOT NULL,
			p_con_max REAL NOT NULL, p_ecc_max REAL NOT NULL,
			p_con_mean REAL NOT NULL, p_ecc_mean REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_reps (
			run_id INTEGER NOT NULL,
			rep INTEGER NOT NULL,
			v_con_max REAL NOT NULL, v_ecc_max REAL NOT NULL,
			v_con_mean REAL NOT NULL, v_ecc_mean REAL NOT NULL,
			f_con_max REAL NOT NULL, f_ecc_max REAL NOT NULL,
			f_con_mean REAL NOT NULL, f_ecc_mean REAL NOT NULL,
			p_con_max REAL NOT NULL, p_ecc_max REAL NOT NULL,
			p_con_mean REAL NOT NULL, p_ecc_mean REAL NOT NULL,
			PRIMARY KEY (run_id, rep)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a run summary and its per-repetition rows in one
// transaction, returning the new run id.
func (s *Store) InsertRun(ctx context.Context, rep *engine.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m := rep.Summary
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (
			started_at, name, weight, load, pulley, partial,
			v_con_max, v_ecc_max, v_con_mean, v_ecc_mean,
			f_con_max, f_ecc_max, f_con_mean, f_ecc_mean,
			p_con_max, p_ecc_max, p_con_mean, p_ecc_mean
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.StartedAt.UTC().Format(time.RFC3339),
		rep.Run.Name, rep.Run.Weight, rep.Run.Load,
		boolInt(rep.Run.Pulley), boolInt(rep.Partial),
		m.VConMax, m.VEccMax, m.VConMean, m.VEccMean,
		m.FConMax, m.FEccMax, m.FConMean, m.FEccMean,
		m.PConMax, m.PEccMax, m.PConMean, m.PEccMean,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, r := range rep.Reps {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_reps (
				run_id, rep,
				v_con_max, v_ecc_max, v_con_mean, v_ecc_mean,
				f_con_max, f_ecc_max, f_con_mean, f_ecc_mean,
				p_con_max, p_ecc_max, p_con_mean, p_ecc_mean
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i+1,
			r.VConMax, r.VEccMax, r.VConMean, r.VEccMean,
			r.FConMax, r.FEccMax, r.FConMean, r.FEccMean,
			r.PConMax, r.PEccMax, r.PConMean, r.PEccMean,
		)
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID        int64
	StartedAt time.Time
	Name      string
	Weight    float64
	Load      float64
	Pulley    bool
	Partial   bool
	Summary   engine.Metrics
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, name, weight, load, pulley, partial,
			v_con_max, v_ecc_max, v_con_mean, v_ecc_mean,
			f_con_max, f_ecc_max, f_con_mean, f_ecc_mean,
			p_con_max, p_ecc_max, p_con_mean, p_ecc_mean
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedAt string
		var pulley, partial int
		m := &r.Summary
		if err := rows.Scan(&r.ID, &startedAt, &r.Name, &r.Weight, &r.Load, &pulley, &partial,
			&m.VConMax, &m.VEccMax, &m.VConMean, &m.VEccMean,
			&m.FConMax, &m.FEccMax, &m.FConMean, &m.FEccMean,
			&m.PConMax, &m.PEccMax, &m.PConMean, &m.PEccMean,
		); err != nil {
			return nil, err
		}
		r.Pulley = pulley != 0
		r.Partial = partial != 0
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
