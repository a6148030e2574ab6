package netcdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Data model names, as reported by the reference netCDF library.
const (
	FormatClassic      = "NETCDF3_CLASSIC"
	Format64BitOffset  = "NETCDF3_64BIT_OFFSET"
	Format64BitData    = "NETCDF3_64BIT_DATA"
	FormatNetCDF4      = "NETCDF4"
	FormatUnrecognized = "UNKNOWN"
)

var hdf5Magic = []byte("\x89HDF\r\n\x1a\n")

// Attribute is a named attribute value.
type Attribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Dimension is a named dimension and its length.
type Dimension struct {
	Name string `json:"name"`
	Len  uint64 `json:"len"`
}

// Variable describes a variable without reading its values.
type Variable struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Dimensions []string    `json:"dimensions"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Format reports the file's data model from its magic bytes.
func (d *Dataset) Format() (string, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return "", fmt.Errorf("read format: %w", err)
	}
	defer f.Close()
	return detectFormat(f)
}

func detectFormat(r io.Reader) (string, error) {
	head := make([]byte, len(hdf5Magic))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return FormatUnrecognized, nil
		}
		return "", fmt.Errorf("read format: %w", err)
	}
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, hdf5Magic):
		return FormatNetCDF4, nil
	case len(head) >= 4 && bytes.HasPrefix(head, []byte("CDF")):
		switch head[3] {
		case 1:
			return FormatClassic, nil
		case 2:
			return Format64BitOffset, nil
		case 5:
			return Format64BitData, nil
		}
	}
	return FormatUnrecognized, nil
}

// Groups returns the paths of all nested groups. Children of a group are
// listed together before any of their own descendants.
func (d *Dataset) Groups() ([]string, error) {
	var out []string
	if err := walkGroups(d.nc, "/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkGroups(g api.Group, prefix string, out *[]string) error {
	names := g.ListSubgroups()
	for _, name := range names {
		*out = append(*out, path.Join(prefix, name))
	}
	for _, name := range names {
		child, err := g.GetGroup(name)
		if err != nil {
			return fmt.Errorf("open group %s: %w", path.Join(prefix, name), err)
		}
		if err := walkGroups(child, path.Join(prefix, name), out); err != nil {
			return err
		}
	}
	return nil
}

// Dimensions returns the root group's dimensions in declaration order.
func (d *Dataset) Dimensions() []Dimension {
	names := d.nc.ListDimensions()
	out := make([]Dimension, 0, len(names))
	for _, name := range names {
		n, _ := d.nc.GetDimension(name)
		out = append(out, Dimension{Name: name, Len: n})
	}
	return out
}

// Variables describes every variable in the root group.
func (d *Dataset) Variables() ([]Variable, error) {
	names := d.nc.ListVariables()
	out := make([]Variable, 0, len(names))
	for _, name := range names {
		vg, err := d.getter(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Variable{
			Name:       name,
			Type:       vg.Type(),
			Dimensions: vg.Dimensions(),
			Attributes: attributeList(vg.Attributes()),
		})
	}
	return out, nil
}

// Attributes returns the global attributes in file order.
func (d *Dataset) Attributes() []Attribute {
	return attributeList(d.nc.Attributes())
}

// VariableDoc returns the attributes documenting one variable (long_name,
// units, comment and so on).
func (d *Dataset) VariableDoc(variable string) (map[string]any, error) {
	vg, err := d.getter(variable)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]any)
	for _, a := range attributeList(vg.Attributes()) {
		doc[a.Name] = a.Value
	}
	return doc, nil
}

func attributeList(m api.AttributeMap) []Attribute {
	if m == nil {
		return nil
	}
	keys := m.Keys()
	out := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		v, _ := m.Get(k)
		out = append(out, Attribute{Name: k, Value: v})
	}
	return out
}
