package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake dataset ---

type memDataset struct {
	vars    map[string][]any
	readErr error
	reads   int
}

func (m *memDataset) Len(variable string) (int, error) {
	col, ok := m.vars[variable]
	if !ok {
		return 0, fmt.Errorf("variable %q not found", variable)
	}
	return len(col), nil
}

func (m *memDataset) Value(variable string, index int) (any, error) {
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	col, ok := m.vars[variable]
	if !ok {
		return nil, fmt.Errorf("variable %q not found", variable)
	}
	if index >= len(col) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	return col[index], nil
}

func newMemDataset(rows int) *memDataset {
	ds := &memDataset{vars: map[string][]any{}}
	for i := 0; i < rows; i++ {
		ds.vars[VarLatitude] = append(ds.vars[VarLatitude], float32(10+i))
		ds.vars[VarLongitude] = append(ds.vars[VarLongitude], float32(-100-i))
		ds.vars[VarXCO2] = append(ds.vars[VarXCO2], float32(400+i))
		ds.vars[VarDate] = append(ds.vars[VarDate], []int16{2015, 3, 1, 12, 30, int16(i), 250})
	}
	return ds
}

func collect(t *testing.T, pts *Points) []Point {
	t.Helper()
	var out []Point
	for pts.Next() {
		out = append(out, pts.Point())
	}
	return out
}

// --- tests ---

func TestExtract_AllRecords(t *testing.T) {
	pts, err := Extract(newMemDataset(3), NoLimit)
	require.NoError(t, err)
	assert.Equal(t, 3, pts.Len())

	got := collect(t, pts)
	require.NoError(t, pts.Err())
	require.Len(t, got, 3)

	assert.Equal(t, Point{
		Timestamp: time.Date(2015, time.March, 1, 12, 30, 2, 0, time.UTC),
		XCO2:      402,
		Latitude:  12,
		Longitude: -102,
	}, got[2])
}

func TestExtract_Limit(t *testing.T) {
	for _, k := range []int{0, 1, 2, 3} {
		pts, err := Extract(newMemDataset(3), k)
		require.NoError(t, err)
		got := collect(t, pts)
		require.NoError(t, pts.Err())
		assert.Len(t, got, k, "limit %d", k)
	}
}

func TestExtract_LimitBeyondTotal(t *testing.T) {
	_, err := Extract(newMemDataset(2), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestExtract_MissingLatitude(t *testing.T) {
	_, err := Extract(&memDataset{vars: map[string][]any{}}, NoLimit)
	require.Error(t, err)
}

func TestExtract_IsLazy(t *testing.T) {
	ds := newMemDataset(5)
	pts, err := Extract(ds, NoLimit)
	require.NoError(t, err)
	assert.Zero(t, ds.reads)

	require.True(t, pts.Next())
	assert.Equal(t, 4, ds.reads)
}

func TestExtract_RoundsCoordinates(t *testing.T) {
	ds := newMemDataset(1)
	ds.vars[VarLatitude][0] = 12.34567891
	ds.vars[VarLongitude][0] = -45.0000004

	pts, err := Extract(ds, NoLimit)
	require.NoError(t, err)
	require.True(t, pts.Next())
	assert.Equal(t, 12.345679, pts.Point().Latitude)
	assert.Equal(t, -45.0, pts.Point().Longitude)
}

func TestRoundCoord(t *testing.T) {
	assert.Equal(t, 0.0, roundCoord(0.0000004))
	assert.Equal(t, 12.345679, roundCoord(12.34567891))
	assert.Equal(t, -98.000001, roundCoord(-98.0000012))
	assert.Equal(t, 151.2099, roundCoord(151.2099))
}

func TestRoundCoord_NearHalfway(t *testing.T) {
	// The binary values sit just below (or above) the decimal halfway point.
	assert.Equal(t, 35.142919, roundCoord(35.1429195))
	assert.Equal(t, -96.258165, roundCoord(-96.2581645))
}

func TestExtract_RoundsFloat64Columns(t *testing.T) {
	ds := newMemDataset(1)
	ds.vars[VarLatitude][0] = 35.1429195
	ds.vars[VarLongitude][0] = -96.2581645

	pts, err := Extract(ds, NoLimit)
	require.NoError(t, err)
	require.True(t, pts.Next())
	assert.Equal(t, 35.142919, pts.Point().Latitude)
	assert.Equal(t, -96.258165, pts.Point().Longitude)
}

func TestExtract_DateComponents(t *testing.T) {
	cases := []struct {
		name string
		date any
		want time.Time
	}{
		{"int16 with millis", []int16{2014, 9, 6, 23, 59, 58, 999}, time.Date(2014, 9, 6, 23, 59, 58, 0, time.UTC)},
		{"int32 six", []int32{2016, 2, 29, 0, 0, 0}, time.Date(2016, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"uint64", []uint64{2015, 3, 1, 18, 2, 11, 400}, time.Date(2015, 3, 1, 18, 2, 11, 0, time.UTC)},
		{"float64 truncated", []float64{2020, 1, 2, 3, 4, 5.9}, time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds := newMemDataset(1)
			ds.vars[VarDate][0] = tc.date
			pts, err := Extract(ds, NoLimit)
			require.NoError(t, err)
			require.True(t, pts.Next())
			assert.Equal(t, tc.want, pts.Point().Timestamp)
		})
	}
}

func TestExtract_MalformedRecordStopsSequence(t *testing.T) {
	cases := []struct {
		name     string
		variable string
		value    any
	}{
		{"string latitude", VarLatitude, "north"},
		{"nil xco2", VarXCO2, nil},
		{"short date", VarDate, []int16{2015, 3, 1}},
		{"month 13", VarDate, []int16{2015, 13, 1, 0, 0, 0}},
		{"feb 30", VarDate, []int16{2015, 2, 30, 0, 0, 0}},
		{"hour 24", VarDate, []int16{2015, 2, 1, 24, 0, 0}},
		{"date scalar", VarDate, int16(2015)},
		{"nan component", VarDate, []float32{2015, 1, 1, 0, 0, float32nan()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds := newMemDataset(3)
			ds.vars[tc.variable][1] = tc.value

			pts, err := Extract(ds, NoLimit)
			require.NoError(t, err)

			got := collect(t, pts)
			assert.Len(t, got, 1, "records before the bad one are yielded")
			require.Error(t, pts.Err())
			assert.True(t, errors.Is(pts.Err(), ErrMalformedRecord))
			assert.Contains(t, pts.Err().Error(), "record 1")

			// Exhausted for good.
			assert.False(t, pts.Next())
			assert.Equal(t, Point{}, pts.Point())
		})
	}
}

func TestExtract_ReadErrorPropagates(t *testing.T) {
	ioErr := errors.New("hdf5: short read")
	ds := newMemDataset(2)
	ds.readErr = ioErr

	pts, err := Extract(ds, NoLimit)
	require.NoError(t, err)
	assert.False(t, pts.Next())
	assert.ErrorIs(t, pts.Err(), ioErr)
	assert.False(t, errors.Is(pts.Err(), ErrMalformedRecord))
}

func float32nan() float32 {
	var zero float32
	return zero / zero
}
