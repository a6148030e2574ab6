// Command genmock writes a synthetic OCO-2 Lite style netCDF file for local
// runs, and optionally the records the ETL derives from it. The expected
// records are produced by reading the written file back through the real
// extractor, so they match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/oco2_LtCO2_150301_mock.nc4 \
//	  -n 500 \
//	  -records-out data/mock/oco2_LtCO2_150301_mock.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/xco2-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/xco2-etl/internal/domain"
)

// OCO-2 records roughly three soundings per second along its ground track.
const soundingsPerSecond = 3

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the netCDF file")
	n := flag.Int("n", 100, "number of soundings")
	start := flag.String("start", "2015-03-01T18:00:00Z", "timestamp of the first sounding (RFC 3339)")
	seed := flag.Uint64("seed", 1, "random seed for xco2 noise")
	recordsOut := flag.String("records-out", "", "optional output path for the expected records as JSON")
	flag.Parse()

	if *out == "" || *n <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out and a positive -n")
	}
	t0, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	rows := groundTrack(*n, t0.UTC(), rand.New(rand.NewPCG(*seed, *seed)))
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := netcdf.WriteFixture(*out, rows, map[string]string{
		"title":   "Synthetic OCO-2 Lite XCO2 file",
		"source":  "genmock",
		"created": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	log.Printf("wrote %d soundings to %s", len(rows), *out)

	if *recordsOut == "" {
		return nil
	}
	records, err := expectedRecords(*out)
	if err != nil {
		return err
	}
	if err := writeJSON(*recordsOut, records); err != nil {
		return err
	}
	log.Printf("wrote %d expected records to %s", len(records), *recordsOut)
	return nil
}

// groundTrack lays soundings along a descending-node pass: latitude sweeps
// south to north while longitude drifts west, xco2 around 400 ppm.
func groundTrack(n int, t0 time.Time, rng *rand.Rand) []netcdf.FixtureRow {
	rows := make([]netcdf.FixtureRow, n)
	for i := range rows {
		frac := float64(i) / float64(max(n-1, 1))
		lat := -60 + 120*frac
		lon := -40 - 25*frac
		xco2 := 398 + 2*math.Sin(lat*math.Pi/180) + rng.NormFloat64()*0.8

		offset := time.Duration(i) * time.Second / soundingsPerSecond
		ts := t0.Add(offset)
		rows[i] = netcdf.FixtureRow{
			Latitude:  float32(lat),
			Longitude: float32(lon),
			XCO2:      float32(xco2),
			Date: [7]int16{
				int16(ts.Year()), int16(ts.Month()), int16(ts.Day()),
				int16(ts.Hour()), int16(ts.Minute()), int16(ts.Second()),
				int16(ts.Nanosecond() / int(time.Millisecond)),
			},
		}
	}
	return rows
}

func expectedRecords(path string) (records []domain.Record, err error) {
	ds, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	pts, err := domain.Extract(ds, domain.NoLimit)
	if err != nil {
		return nil, err
	}
	for pts.Next() {
		records = append(records, domain.NewRecord(pts.Point()))
	}
	return records, pts.Err()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
