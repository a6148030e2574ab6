package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Variable names read from a dataset.
const (
	VarLatitude  = "latitude"
	VarLongitude = "longitude"
	VarXCO2      = "xco2"
	VarDate      = "date"
)

// NoLimit asks Extract for every record in the dataset.
const NoLimit = -1

// coordDecimals bounds coordinate precision.
const coordDecimals = 6

// ErrMalformedRecord marks a sounding whose fields cannot be coerced into a Point.
var ErrMalformedRecord = errors.New("malformed record")

// Dataset gives indexed access to the named arrays of an opened dataset.
// Value returns a scalar for one-dimensional arrays and a slice for the row
// of a two-dimensional array.
type Dataset interface {
	Len(variable string) (int, error)
	Value(variable string, index int) (any, error)
}

// Points is a lazy, single-pass sequence of normalized points. Iterate with
// Next and Point, then check Err:
//
//	for pts.Next() {
//		p := pts.Point()
//	}
//	if err := pts.Err(); err != nil { ... }
type Points struct {
	ds  Dataset
	n   int
	pos int
	cur Point
	err error
}

// Extract returns a sequence over the first limit records of ds. With
// limit == NoLimit (or any negative value) the sequence covers every entry of
// the latitude array. A limit beyond the record count is rejected up front:
// no point is produced, rather than yielding every record and failing at the
// first missing index.
func Extract(ds Dataset, limit int) (*Points, error) {
	total, err := ds.Len(VarLatitude)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	n := total
	if limit >= 0 {
		if limit > total {
			return nil, fmt.Errorf("extract: limit %d exceeds %d records", limit, total)
		}
		n = limit
	}
	return &Points{ds: ds, n: n}, nil
}

// Len returns the number of points the sequence will yield if no record fails.
func (p *Points) Len() int { return p.n }

// Next reads the next record. It returns false when the sequence is exhausted
// or a record could not be read; the two cases are told apart by Err.
func (p *Points) Next() bool {
	if p.err != nil || p.pos >= p.n {
		return false
	}
	pt, err := p.read(p.pos)
	if err != nil {
		p.err = err
		p.cur = Point{}
		return false
	}
	p.cur = pt
	p.pos++
	return true
}

// Point returns the point read by the last successful Next.
func (p *Points) Point() Point { return p.cur }

// Err returns the error that stopped the sequence, if any.
func (p *Points) Err() error { return p.err }

func (p *Points) read(i int) (Point, error) {
	lat, err := p.float(VarLatitude, i)
	if err != nil {
		return Point{}, err
	}
	lon, err := p.float(VarLongitude, i)
	if err != nil {
		return Point{}, err
	}
	xco2, err := p.float(VarXCO2, i)
	if err != nil {
		return Point{}, err
	}
	raw, err := p.ds.Value(VarDate, i)
	if err != nil {
		return Point{}, fmt.Errorf("record %d: read %s: %w", i, VarDate, err)
	}
	ts, err := toTimestamp(raw)
	if err != nil {
		return Point{}, fmt.Errorf("%w: record %d: %s: %w", ErrMalformedRecord, i, VarDate, err)
	}
	return Point{
		Timestamp: ts,
		XCO2:      xco2,
		Latitude:  roundCoord(lat),
		Longitude: roundCoord(lon),
	}, nil
}

func (p *Points) float(variable string, i int) (float64, error) {
	raw, err := p.ds.Value(variable, i)
	if err != nil {
		return 0, fmt.Errorf("record %d: read %s: %w", i, variable, err)
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: record %d: %s: %w", ErrMalformedRecord, i, variable, err)
	}
	return v, nil
}

// roundCoord rounds the exact binary value of v half to even at 6 decimal
// places.
func roundCoord(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', coordDecimals, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", v)
	}
}

// toInts truncates every component of a numeric row to int.
func toInts(v any) ([]int, error) {
	switch row := v.(type) {
	case []int8:
		return convertRow(row), nil
	case []int16:
		return convertRow(row), nil
	case []int32:
		return convertRow(row), nil
	case []int64:
		return convertRow(row), nil
	case []int:
		return convertRow(row), nil
	case []uint8:
		return convertRow(row), nil
	case []uint16:
		return convertRow(row), nil
	case []uint32:
		return convertRow(row), nil
	case []uint64:
		return convertRow(row), nil
	case []float32:
		out := make([]int, len(row))
		for i, c := range row {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
				return nil, fmt.Errorf("component %d is %v", i, c)
			}
			out[i] = int(c)
		}
		return out, nil
	case []float64:
		out := make([]int, len(row))
		for i, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("component %d is %v", i, c)
			}
			out[i] = int(c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to integer components", v)
	}
}

func convertRow[T ~int8 | ~int16 | ~int32 | ~int64 | ~int | ~uint8 | ~uint16 | ~uint32 | ~uint64](row []T) []int {
	out := make([]int, len(row))
	for i, c := range row {
		out[i] = int(c)
	}
	return out
}

// toTimestamp builds a UTC timestamp from year, month, day, hour, minute and
// second. Extra trailing components are ignored.
func toTimestamp(v any) (time.Time, error) {
	c, err := toInts(v)
	if err != nil {
		return time.Time{}, err
	}
	if len(c) < 6 {
		return time.Time{}, fmt.Errorf("want 6 date components, got %d", len(c))
	}
	year, month, day, hour, minute, second := c[0], c[1], c[2], c[3], c[4], c[5]
	switch {
	case year < 1 || year > 9999:
		return time.Time{}, fmt.Errorf("year %d out of range", year)
	case month < 1 || month > 12:
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	case day < 1 || day > daysIn(time.Month(month), year):
		return time.Time{}, fmt.Errorf("day %d out of range for %d-%02d", day, year, month)
	case hour < 0 || hour > 23:
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	case minute < 0 || minute > 59:
		return time.Time{}, fmt.Errorf("minute %d out of range", minute)
	case second < 0 || second > 59:
		return time.Time{}, fmt.Errorf("second %d out of range", second)
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
