package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateRecord is wrapped by sessions when a commit would repeat the
// (timestamp, coordinates) pair of a stored record.
var ErrDuplicateRecord = errors.New("duplicate record")

// Point is a normalized sounding produced by the extractor.
type Point struct {
	Timestamp time.Time
	XCO2      float64
	Latitude  float64
	Longitude float64
}

// Record is the persisted form of a Point: a row of the t_co2 table.
// Latitude and Longitude are kept alongside the spatial literals so a record
// read back from a store is as usable as a freshly built one.
type Record struct {
	ID          int64     `json:"id,omitempty"`
	XCO2        float64   `json:"xco2"`
	Timestamp   time.Time `json:"timestamp"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Coordinates string    `json:"coordinates"` // EWKT, SRID 4326
	Pixels      string    `json:"pixels"`      // EWKT, SRID 3857
}

// NewRecord builds the persisted entity for a point, deriving both spatial
// literals from its coordinates.
func NewRecord(p Point) Record {
	return Record{
		XCO2:        p.XCO2,
		Timestamp:   p.Timestamp,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Coordinates: GeodeticLiteral(p.Latitude, p.Longitude),
		Pixels:      ProjectedLiteral(p.Latitude, p.Longitude),
	}
}

// LatLong returns the record's coordinate pair.
func (r Record) LatLong() (float64, float64) {
	return r.Latitude, r.Longitude
}

func (r Record) String() string {
	lat, lon := r.LatLong()
	return fmt.Sprintf("Point (%s, %s) has Xco2 level at %s",
		formatCoord(lat), formatCoord(lon), formatCoord(r.XCO2))
}

// Session accepts records and makes them durable on Commit. Implementations
// stage added records and write everything staged since the last Commit in
// one unit.
type Session interface {
	Add(ctx context.Context, r Record) error
	Commit(ctx context.Context) error
}

// RecordFromColumns rebuilds a record read back from a store. Latitude and
// Longitude are decoded from the geodetic literal.
func RecordFromColumns(id int64, xco2 float64, ts time.Time, coordinates, pixels string) (Record, error) {
	srid, lat, lon, err := ParsePointLiteral(coordinates)
	if err != nil {
		return Record{}, err
	}
	if srid != SRIDGeodetic {
		return Record{}, fmt.Errorf("coordinates %q: want SRID %d, got %d", coordinates, SRIDGeodetic, srid)
	}
	return Record{
		ID:          id,
		XCO2:        xco2,
		Timestamp:   ts.UTC(),
		Latitude:    lat,
		Longitude:   lon,
		Coordinates: coordinates,
		Pixels:      pixels,
	}, nil
}
