package netcdf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/couchcryptid/xco2-etl/internal/domain"
)

// Dimension names used by OCO-2 Lite files.
const (
	soundingDim = "sounding_id"
	epochDim    = "epoch_dimension"
)

// FixtureRow is one sounding written by WriteFixture. Date holds year, month,
// day, hour, minute, second and millisecond.
type FixtureRow struct {
	Latitude  float32
	Longitude float32
	XCO2      float32
	Date      [7]int16
}

// WriteFixture writes rows as a classic netCDF file laid out like an OCO-2
// Lite file, with the given global attributes.
func WriteFixture(path string, rows []FixtureRow, globals map[string]string) (err error) {
	if len(rows) == 0 {
		return errors.New("write fixture: no rows")
	}
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	defer func() {
		if cerr := cw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write fixture: %w", cerr)
		}
	}()

	lat := make([]float32, len(rows))
	lon := make([]float32, len(rows))
	xco2 := make([]float32, len(rows))
	date := make([][]int16, len(rows))
	for i, r := range rows {
		lat[i], lon[i], xco2[i] = r.Latitude, r.Longitude, r.XCO2
		date[i] = append([]int16(nil), r.Date[:]...)
	}

	vars := []struct {
		name   string
		values any
		dims   []string
		attrs  map[string]any
	}{
		{domain.VarLatitude, lat, []string{soundingDim}, map[string]any{"units": "degrees_north", "long_name": "latitude"}},
		{domain.VarLongitude, lon, []string{soundingDim}, map[string]any{"units": "degrees_east", "long_name": "longitude"}},
		{domain.VarXCO2, xco2, []string{soundingDim}, map[string]any{"units": "ppm", "long_name": "Column-averaged dry-air mole fraction of CO2"}},
		{domain.VarDate, date, []string{soundingDim, epochDim}, map[string]any{"units": "year, month, day, hour, minute, second, millisecond"}},
	}
	for _, v := range vars {
		attrs, err := orderedMap(v.attrs)
		if err != nil {
			return fmt.Errorf("write fixture: %s attributes: %w", v.name, err)
		}
		if err := cw.AddVar(v.name, api.Variable{
			Values:     v.values,
			Dimensions: v.dims,
			Attributes: attrs,
		}); err != nil {
			return fmt.Errorf("write fixture: %s: %w", v.name, err)
		}
	}

	if len(globals) > 0 {
		g := make(map[string]any, len(globals))
		for k, v := range globals {
			g[k] = v
		}
		attrs, err := orderedMap(g)
		if err != nil {
			return fmt.Errorf("write fixture: global attributes: %w", err)
		}
		if err := cw.AddGlobalAttrs(attrs); err != nil {
			return fmt.Errorf("write fixture: global attributes: %w", err)
		}
	}
	return nil
}

func orderedMap(m map[string]any) (*util.OrderedMap, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return util.NewOrderedMap(keys, m)
}
