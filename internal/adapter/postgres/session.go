package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/xco2-etl/internal/domain"
)

const insertRecord = `INSERT INTO t_co2 (xco2, timestamp, coordinates, pixels)
VALUES ($1, $2, ST_GeogFromText($3), ST_GeomFromEWKT($4))
RETURNING id`

const selectRecords = `SELECT id, xco2, timestamp, ST_AsEWKT(coordinates), ST_AsEWKT(pixels)
FROM t_co2
ORDER BY id
LIMIT $1`

// Session stages records and writes them to t_co2 in one transaction per Commit.
type Session struct {
	pool   *pgxpool.Pool
	staged []domain.Record
}

// NewSession returns a session writing through pool.
func NewSession(pool *pgxpool.Pool) *Session {
	return &Session{pool: pool}
}

// Add stages r for the next Commit.
func (s *Session) Add(_ context.Context, r domain.Record) error {
	s.staged = append(s.staged, r)
	return nil
}

// Commit inserts every staged record in a single transaction. The staging
// area is cleared whether or not the transaction commits. A unique
// violation is reported as domain.ErrDuplicateRecord.
func (s *Session) Commit(ctx context.Context) (err error) {
	staged := s.staged
	s.staged = nil
	if len(staged) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, r := range staged {
		var id int64
		// timestamp is "without time zone"; the UTC wall clock is stored.
		if err := tx.QueryRow(ctx, insertRecord, r.XCO2, r.Timestamp.UTC(), r.Coordinates, r.Pixels).Scan(&id); err != nil {
			return wrapInsertError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapInsertError(err)
	}
	return nil
}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Records returns up to limit stored records in insertion order.
func Records(ctx context.Context, db Querier, limit int) ([]domain.Record, error) {
	rows, err := db.Query(ctx, selectRecords, limit)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			id           int64
			xco2         float64
			ts           time.Time
			coords, pxls string
		)
		if err := rows.Scan(&id, &xco2, &ts, &coords, &pxls); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := domain.RecordFromColumns(id, xco2, ts, coords, pxls)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", id, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	return out, nil
}

func wrapInsertError(err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", domain.ErrDuplicateRecord, err)
	}
	return fmt.Errorf("insert record: %w", err)
}
