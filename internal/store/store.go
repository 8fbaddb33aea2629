package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// Database drivers
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const DefaultDriver = "sqlite"

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = errors.New("run not found")

var supportedDrivers = []string{"sqlite", "mysql", "postgres", "pgx", "sqlserver"}

// Store persists run history.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	if !isSupported(driver) {
		return nil, fmt.Errorf("unsupported driver %q (supported: %s)", driver, strings.Join(supportedDrivers, ", "))
	}
	if dsn == "" {
		return nil, errors.New("dsn is required")
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func isSupported(driver string) bool {
	for _, d := range supportedDrivers {
		if d == driver {
			return true
		}
	}
	return false
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveRun records a run and its iterations in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, iterations []Iteration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO runs (id, workflow, mode, started_at, finished_at, total, passed, failed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.Workflow, run.Mode, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Total, run.Passed, run.Failed)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	insertIteration := tx.Rebind(`INSERT INTO iterations (run_id, idx, success, data, error_message, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`)
	for _, it := range iterations {
		success := 0
		if it.Success {
			success = 1
		}
		if _, err := tx.ExecContext(ctx, insertIteration, run.ID, it.Index, success, it.Data, it.Error, it.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to insert iteration %d of run %s: %w", it.Index, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, workflow, mode, started_at, finished_at, total, passed, failed FROM runs ORDER BY started_at DESC LIMIT ?`
	if s.driver == "sqlserver" {
		query = `SELECT TOP (?) id, workflow, mode, started_at, finished_at, total, passed, failed FROM runs ORDER BY started_at DESC`
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, r.toRun())
	}
	return runs, nil
}

// GetRun loads one run and its iterations in order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, []Iteration, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, workflow, mode, started_at, finished_at, total, passed, failed FROM runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	var rows []iterationRow
	err = s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT run_id, idx, success, data, error_message, duration_ms FROM iterations WHERE run_id = ? ORDER BY idx`), id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to load iterations of run %s: %w", id, err)
	}

	iterations := make([]Iteration, 0, len(rows))
	for _, r := range rows {
		iterations = append(iterations, Iteration{
			Index:    r.Index,
			Success:  r.Success == 1,
			Data:     r.Data,
			Error:    r.Error,
			Duration: time.Duration(r.DurationMS) * time.Millisecond,
		})
	}
	return row.toRun(), iterations, nil
}

func (r runRow) toRun() Run {
	return Run{
		ID:         r.ID,
		Workflow:   r.Workflow,
		Mode:       r.Mode,
		StartedAt:  parseTime(r.StartedAt),
		FinishedAt: parseTime(r.FinishedAt),
		Total:      r.Total,
		Passed:     r.Passed,
		Failed:     r.Failed,
	}
}

// timeLayout is fixed width so stored times sort as text on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
