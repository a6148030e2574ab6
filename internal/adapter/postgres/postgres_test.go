package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	stmts  []string
	failAt int
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	if r.failAt > 0 && len(r.stmts) == r.failAt {
		return pgconn.CommandTag{}, errors.New("permission denied to create extension")
	}
	return pgconn.NewCommandTag("CREATE"), nil
}

func TestEnsureSchema(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, EnsureSchema(context.Background(), db))
	require.Len(t, db.stmts, 4)

	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS postgis", db.stmts[0])
	table := db.stmts[1]
	assert.Contains(t, table, "CREATE TABLE IF NOT EXISTS t_co2")
	assert.Contains(t, table, "coordinates geography(POINT, 4326)")
	assert.Contains(t, table, "pixels      geometry(POINT, 3857)")
	assert.Contains(t, table, "CONSTRAINT uix_time_coords UNIQUE (timestamp, coordinates)")
	assert.Contains(t, db.stmts[2], "USING gist (coordinates)")
	assert.Contains(t, db.stmts[3], "USING gist (pixels)")
}

func TestEnsureSchema_StopsAtFirstError(t *testing.T) {
	db := &recordingExecer{failAt: 1}
	err := EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure schema")
	assert.Len(t, db.stmts, 1)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uix_time_coords"}
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("commit: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestConfigurePool(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://etl@localhost:5432/gis?sslmode=disable")
	require.NoError(t, err)

	configurePool(cfg, slog.Default())
	assert.Equal(t, int32(DefaultMaxConns), cfg.MaxConns)
	assert.Equal(t, int32(DefaultMinConns), cfg.MinConns)
	assert.Equal(t, DefaultMaxConnIdleTime, cfg.MaxConnIdleTime)
	assert.NotNil(t, cfg.ConnConfig.OnNotice)
}

func TestConnect_InvalidDSN(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse connection config")
}

func TestSession_CommitWithNothingStaged(t *testing.T) {
	s := NewSession(nil)
	assert.NoError(t, s.Commit(context.Background()))
}
