package main

import (
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/xco2-etl/internal/adapter/netcdf"
)

func TestGroundTrack(t *testing.T) {
	t0 := time.Date(2015, 3, 1, 18, 0, 0, 0, time.UTC)
	rows := groundTrack(7, t0, rand.New(rand.NewPCG(1, 1)))
	require.Len(t, rows, 7)

	assert.InDelta(t, -60, rows[0].Latitude, 1e-4)
	assert.InDelta(t, 60, rows[6].Latitude, 1e-4)
	assert.Equal(t, [7]int16{2015, 3, 1, 18, 0, 0, 0}, rows[0].Date)
	assert.Equal(t, [7]int16{2015, 3, 1, 18, 0, 1, 0}, rows[3].Date)
	assert.Equal(t, [7]int16{2015, 3, 1, 18, 0, 1, 333}, rows[4].Date)
	for _, r := range rows {
		assert.InDelta(t, 398, r.XCO2, 10)
	}
}

func TestExpectedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.nc4")
	rows := groundTrack(5, time.Date(2015, 3, 1, 18, 0, 0, 0, time.UTC), rand.New(rand.NewPCG(2, 2)))
	require.NoError(t, netcdf.WriteFixture(path, rows, nil))

	records, err := expectedRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "SRID=4326;POINT(-60 -40)", records[0].Coordinates)
	assert.Equal(t, "SRID=3857;POINT(60 -65)", records[4].Pixels)
}
