// Package store persists run results to SQLite so runs can be compared
// after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/pipeline"
	"github.com/user/carbon_recovery_go/internal/table"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	config_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pipeline_steps (
	run_id   TEXT NOT NULL REFERENCES runs(run_id),
	seq      INTEGER NOT NULL,
	name     TEXT NOT NULL,
	rows_in  INTEGER NOT NULL,
	rows_out INTEGER NOT NULL,
	columns  INTEGER NOT NULL,
	note     TEXT,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS observations (
	run_id           TEXT NOT NULL REFERENCES runs(run_id),
	pixel            INTEGER NOT NULL,
	agb_1990         REAL,
	agb_2000         REAL,
	agb_2010         REAL,
	forest_code      INTEGER,
	forest_type      TEXT,
	nep_1990         REAL,
	nep_2000         REAL,
	nep_2010         REAL,
	burn_year        REAL,
	minus_9000       REAL,
	minus_0010       REAL,
	date             REAL,
	burn_scar_age    REAL,
	burn_severity    REAL,
	severity_label   TEXT,
	PRIMARY KEY (run_id, pixel)
);
CREATE TABLE IF NOT EXISTS fits (
	run_id            TEXT NOT NULL REFERENCES runs(run_id),
	severity          TEXT NOT NULL,
	predictor         TEXT NOT NULL,
	response          TEXT NOT NULL,
	model             TEXT NOT NULL,
	coefficients_json TEXT NOT NULL,
	rmse              REAL,
	r_squared         REAL,
	n_train           INTEGER NOT NULL,
	n_test            INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ftests (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	severity  TEXT NOT NULL,
	predictor TEXT NOT NULL,
	response  TEXT NOT NULL,
	f         REAL,
	p         REAL,
	n         INTEGER NOT NULL
);
`

// Store wraps a SQLite database holding run results.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Path is the database file the store was opened on.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun registers a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, configJSON string) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, config_json) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), configJSON)
	if err != nil {
		return "", fmt.Errorf("failed to insert run into %s: %w", s.dbPath, err)
	}
	return runID, nil
}

// SaveSteps records the pipeline step report of a run.
func (s *Store) SaveSteps(ctx context.Context, runID string, rep *pipeline.Report) error {
	if rep == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, st := range rep.Steps {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pipeline_steps (run_id, seq, name, rows_in, rows_out, columns, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i+1, st.Name, st.RowsIn, st.RowsOut, st.Columns, st.Note)
		if err != nil {
			return fmt.Errorf("failed to insert step %s: %w", st.Name, err)
		}
	}
	return tx.Commit()
}

// SaveObservations writes every row of t in one transaction.
func (s *Store) SaveObservations(ctx context.Context, runID string, t *table.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on %s: %w", s.dbPath, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (
			run_id, pixel, agb_1990, agb_2000, agb_2010, forest_code, forest_type,
			nep_1990, nep_2000, nep_2010, burn_year, minus_9000, minus_0010,
			date, burn_scar_age, burn_severity, severity_label
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for i := range t.Rows {
		o := &t.Rows[i]
		var forestCode, forestName any
		switch {
		case o.ForestType.Invalid:
			forestCode = o.ForestType.Raw
			forestName = o.ForestType.String()
		case !o.ForestType.Missing:
			forestCode = o.ForestType.Code
			forestName = o.ForestType.String()
		}
		var label any
		if !o.IsMissing(table.SeverityLabel) {
			label = o.SeverityLabel.String()
		}
		_, err := stmt.ExecContext(ctx,
			runID, o.Pixel,
			nullFloat(o.AGB1990), nullFloat(o.AGB2000), nullFloat(o.AGB2010),
			forestCode, forestName,
			nullFloat(o.NEP1990), nullFloat(o.NEP2000), nullFloat(o.NEP2010),
			nullFloat(o.BurnYear), nullFloat(o.Minus9000), nullFloat(o.Minus0010),
			nullFloat(o.Date), nullFloat(o.BurnScarAge), nullFloat(o.BurnSeverity),
			label,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pixel %d: %w", o.Pixel, err)
		}
	}
	return tx.Commit()
}

// SaveResults writes the fits and F-tests of a run.
func (s *Store) SaveResults(ctx context.Context, runID string, res *analysis.Results) error {
	if res == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range res.Fits {
		coeffs, err := json.Marshal(f.Coefficients)
		if err != nil {
			return fmt.Errorf("failed to encode coefficients: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fits (run_id, severity, predictor, response, model, coefficients_json,
			                   rmse, r_squared, n_train, n_test)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, f.Severity.String(), string(f.Pair.Predictor), string(f.Pair.Response),
			string(f.Model), string(coeffs), nullFloat(f.RMSE), nullFloat(f.RSquared),
			f.NTrain, f.NTest)
		if err != nil {
			return fmt.Errorf("failed to insert fit: %w", err)
		}
	}

	for _, ft := range res.FTests {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ftests (run_id, severity, predictor, response, f, p, n)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, ft.Severity.String(), string(ft.Pair.Predictor), string(ft.Pair.Response),
			nullFloat(ft.F), nullFloat(ft.P), ft.N)
		if err != nil {
			return fmt.Errorf("failed to insert F-test: %w", err)
		}
	}
	return tx.Commit()
}

// CountObservations returns the number of stored rows for a run.
func (s *Store) CountObservations(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM observations WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return n, nil
}

// FitSummary is a stored fit as read back for comparison across runs.
type FitSummary struct {
	Severity     string
	Response     string
	Model        string
	Coefficients []float64
	RMSE         sql.NullFloat64
	RSquared     sql.NullFloat64
}

// LoadFits returns the fits recorded for a run.
func (s *Store) LoadFits(ctx context.Context, runID string) ([]FitSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, response, model, coefficients_json, rmse, r_squared
		FROM fits WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fits: %w", err)
	}
	defer rows.Close()

	var fits []FitSummary
	for rows.Next() {
		var f FitSummary
		var coeffs string
		if err := rows.Scan(&f.Severity, &f.Response, &f.Model, &coeffs, &f.RMSE, &f.RSquared); err != nil {
			return nil, fmt.Errorf("failed to scan fit row: %w", err)
		}
		if err := json.Unmarshal([]byte(coeffs), &f.Coefficients); err != nil {
			return nil, fmt.Errorf("failed to decode coefficients: %w", err)
		}
		fits = append(fits, f)
	}
	return fits, rows.Err()
}

// nullFloat maps NaN and infinities to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
