// Package db provides SQLite storage for permmatch run history.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/daviddao/permmatch/internal/types"
)

// Dir and File locate the history database under a project root.
const (
	Dir  = ".permmatch"
	File = "history.db"
)

// ErrRunNotFound is returned when no run matches an ID or ID prefix.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) a history database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// DiscoverDB finds the history database by walking up from cwd.
// Returns the path to .permmatch/history.db or empty string if not found.
func DiscoverDB() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, Dir, File)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// FindProjectRoot walks up from cwd looking for a .git directory.
func FindProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// --- Run operations ---

// RecordRun stores a run and its per-employee results in one transaction.
func (d *DB) RecordRun(run *types.Run, results []types.MatchResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs
			(id, started_at, roster, source, output, messages, employees, matched, unresolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Roster, run.Source, run.Output,
		run.Messages, run.Employees, run.Matched, run.Unresolved,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results
			(run_id, row, name, employee_id, raw, matched, message_ref, message_date, scenario, source, snippet)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		var date string
		if !r.MessageDate.IsZero() {
			date = r.MessageDate.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(
			run.ID, r.Employee.Row, r.Employee.Name, r.Employee.ID, r.Employee.Raw, r.Matched,
			r.MessageRef, date, string(r.Scenario), string(r.Source), r.Snippet,
		); err != nil {
			return fmt.Errorf("insert result row %d: %w", r.Employee.Row, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, started_at, roster, source, output, messages, employees, matched, unresolved`

func scanRun(s interface{ Scan(...any) error }) (*types.Run, error) {
	r := &types.Run{}
	var output sql.NullString
	if err := s.Scan(&r.ID, &r.StartedAt, &r.Roster, &r.Source, &output,
		&r.Messages, &r.Employees, &r.Matched, &r.Unresolved); err != nil {
		return nil, err
	}
	r.Output = output.String
	return r, nil
}

// ListRuns returns recorded runs, newest first. limit <= 0 means all.
func (d *DB) ListRuns(limit int) ([]*types.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a run by its ID (supports partial match).
func (d *DB) GetRun(id string) (*types.Run, error) {
	r, err := scanRun(d.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := d.conn.Query(`SELECT `+runColumns+` FROM runs WHERE id LIKE ?`, id+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*types.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return nil, fmt.Errorf("ambiguous ID %q, matches: %s", id, strings.Join(ids, ", "))
	}
}

// RunResults returns the stored results of a run in roster order.
func (d *DB) RunResults(runID string) ([]types.MatchResult, error) {
	rows, err := d.conn.Query(`
		SELECT row, name, employee_id, raw, matched, message_ref, message_date, scenario, source, snippet
		FROM results
		WHERE run_id = ?
		ORDER BY row ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.MatchResult
	for rows.Next() {
		var r types.MatchResult
		var name, empID, raw, ref, date, scenario, src, snippet sql.NullString
		if err := rows.Scan(&r.Employee.Row, &name, &empID, &raw, &r.Matched,
			&ref, &date, &scenario, &src, &snippet); err != nil {
			return nil, err
		}
		r.Employee.Name = name.String
		r.Employee.ID = empID.String
		r.Employee.Raw = raw.String
		r.MessageRef = ref.String
		if date.String != "" {
			if t, err := time.Parse(time.RFC3339, date.String); err == nil {
				r.MessageDate = t
			}
		}
		r.Scenario = types.Scenario(scenario.String)
		r.Source = types.SourceKind(src.String)
		r.Snippet = snippet.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Unresolved returns the needs-decision results of a run.
func (d *DB) Unresolved(runID string) ([]types.MatchResult, error) {
	all, err := d.RunResults(runID)
	if err != nil {
		return nil, err
	}
	var out []types.MatchResult
	for _, r := range all {
		if !r.Matched {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- Escalation operations ---

// InsertEscalation records the beads issue filed for a result row.
func (d *DB) InsertEscalation(e *types.Escalation) error {
	if e.CreatedAt == "" {
		e.CreatedAt = Now()
	}
	_, err := d.conn.Exec(`
		INSERT INTO escalations (run_id, row, bead_id, created_at)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Row, e.BeadID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert escalation: %w", err)
	}
	return nil
}

// Escalations returns the escalations of a run keyed by roster row.
func (d *DB) Escalations(runID string) (map[int]types.Escalation, error) {
	rows, err := d.conn.Query(`
		SELECT run_id, row, bead_id, created_at FROM escalations WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]types.Escalation)
	for rows.Next() {
		var e types.Escalation
		if err := rows.Scan(&e.RunID, &e.Row, &e.BeadID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out[e.Row] = e
	}
	return out, rows.Err()
}
