package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// TableName is the table records are written to.
const TableName = "t_co2"

// schemaStatements create the PostGIS extension, the records table and its
// indexes. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS t_co2 (
		id          serial PRIMARY KEY,
		xco2        double precision,
		timestamp   timestamp,
		coordinates geography(POINT, 4326),
		pixels      geometry(POINT, 3857),
		CONSTRAINT uix_time_coords UNIQUE (timestamp, coordinates)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_t_co2_coordinates ON t_co2 USING gist (coordinates)`,
	`CREATE INDEX IF NOT EXISTS idx_t_co2_pixels ON t_co2 USING gist (pixels)`,
}

// execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the records table and its indexes if missing.
func EnsureSchema(ctx context.Context, db execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
