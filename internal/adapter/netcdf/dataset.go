// Package netcdf reads soundings and metadata from netCDF3 and netCDF4 (HDF5)
// files using a pure-Go reader.
package netcdf

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Dataset is an open netCDF file. It implements domain.Dataset.
// Arrays are read whole on first access and served from memory afterwards.
type Dataset struct {
	path    string
	nc      api.Group
	getters map[string]api.VarGetter
	columns map[string]reflect.Value
	closed  bool
}

// Open opens the file at path. The caller must Close the dataset.
func Open(path string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	return &Dataset{
		path:    path,
		nc:      nc,
		getters: make(map[string]api.VarGetter),
		columns: make(map[string]reflect.Value),
	}, nil
}

// Path returns the file the dataset was opened from.
func (d *Dataset) Path() string { return d.path }

// Close releases the underlying file. Closing twice is a no-op.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.nc.Close()
	d.getters = nil
	d.columns = nil
	return nil
}

// Len returns the length of the first dimension of the named variable.
func (d *Dataset) Len(variable string) (int, error) {
	vg, err := d.getter(variable)
	if err != nil {
		return 0, err
	}
	return int(vg.Len()), nil
}

// Value returns element index of the named variable: a scalar for
// one-dimensional arrays, the row slice for two-dimensional ones.
func (d *Dataset) Value(variable string, index int) (any, error) {
	col, err := d.column(variable)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= col.Len() {
		return nil, fmt.Errorf("variable %q: index %d out of range [0,%d)", variable, index, col.Len())
	}
	return col.Index(index).Interface(), nil
}

func (d *Dataset) getter(variable string) (api.VarGetter, error) {
	if d.closed {
		return nil, errors.New("dataset is closed")
	}
	if vg, ok := d.getters[variable]; ok {
		return vg, nil
	}
	vg, err := d.nc.GetVarGetter(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", variable, err)
	}
	d.getters[variable] = vg
	return vg, nil
}

func (d *Dataset) column(variable string) (reflect.Value, error) {
	if col, ok := d.columns[variable]; ok {
		return col, nil
	}
	vg, err := d.getter(variable)
	if err != nil {
		return reflect.Value{}, err
	}
	vals, err := vg.Values()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("read variable %q: %w", variable, err)
	}
	col := reflect.ValueOf(vals)
	if col.Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("variable %q is a %T scalar, not an array", variable, vals)
	}
	d.columns[variable] = col
	return col, nil
}
