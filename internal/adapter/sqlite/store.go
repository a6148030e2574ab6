// Package sqlite persists records to a local SQLite file. Spatial columns
// hold their EWKT literals as text.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/couchcryptid/xco2-etl/internal/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

const schema = `CREATE TABLE IF NOT EXISTS t_co2 (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	xco2        REAL,
	timestamp   TEXT,
	coordinates TEXT,
	pixels      TEXT,
	CONSTRAINT uix_time_coords UNIQUE (timestamp, coordinates)
)`

// Store is a SQLite database holding the t_co2 table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the table exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "xco2.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// EnsureSchema creates the t_co2 table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create t_co2 table: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// NewSession returns a session writing to the store.
func (s *Store) NewSession() *Session {
	return &Session{db: s.db}
}

// Records returns up to limit stored records in insertion order.
func (s *Store) Records(ctx context.Context, limit int) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, xco2, timestamp, coordinates, pixels FROM t_co2 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Record
	for rows.Next() {
		var (
			id                 int64
			xco2               float64
			ts, coords, pixels string
		)
		if err := rows.Scan(&id, &xco2, &ts, &coords, &pixels); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		t, err := time.Parse(timestampLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("record %d: timestamp: %w", id, err)
		}
		rec, err := domain.RecordFromColumns(id, xco2, t, coords, pixels)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Session stages records and writes them in one transaction per Commit.
type Session struct {
	db     *sql.DB
	staged []domain.Record
}

// Add stages r for the next Commit.
func (s *Session) Add(_ context.Context, r domain.Record) error {
	s.staged = append(s.staged, r)
	return nil
}

// Commit inserts every staged record in a single transaction and clears the
// staging area. A unique violation is reported as domain.ErrDuplicateRecord.
func (s *Session) Commit(ctx context.Context) (retErr error) {
	staged := s.staged
	s.staged = nil
	if len(staged) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range staged {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO t_co2 (xco2, timestamp, coordinates, pixels) VALUES (?, ?, ?, ?)`,
			r.XCO2, r.Timestamp.UTC().Format(timestampLayout), r.Coordinates, r.Pixels); err != nil {
			return wrapInsertError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapInsertError(err)
	}
	return nil
}

// IsUniqueViolation reports whether err carries a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Primary result code when extended codes are off.
		return strings.Contains(sqErr.Error(), "UNIQUE")
	}
	return false
}

func wrapInsertError(err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", domain.ErrDuplicateRecord, err)
	}
	return fmt.Errorf("insert record: %w", err)
}
