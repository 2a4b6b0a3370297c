package nc

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Dataset wraps an open netCDF file.
type Dataset struct {
	path  string
	group api.Group
}

// Open opens a netCDF file for reading.
func Open(path string) (*Dataset, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Dataset{path: path, group: g}, nil
}

func (d *Dataset) Close()       { d.group.Close() }
func (d *Dataset) Path() string { return d.path }

// Variables lists the variables in the file.
func (d *Dataset) Variables() []string {
	return d.group.ListVariables()
}

// Getter returns the lazy accessor for a variable.
func (d *Dataset) Getter(name string) (api.VarGetter, error) {
	vg, err := d.group.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %s: %w", d.path, name, err)
	}
	return vg, nil
}

// Attributes returns the file's global attribute map.
func (d *Dataset) Attributes() api.AttributeMap {
	return d.group.Attributes()
}

// Attr returns a global attribute as a string.
func (d *Dataset) Attr(name string) (string, bool) {
	return attrString(d.group.Attributes(), name)
}

// VarAttr returns an attribute of a variable as a string.
func (d *Dataset) VarAttr(variable, name string) (string, bool) {
	vg, err := d.group.GetVarGetter(variable)
	if err != nil {
		return "", false
	}
	return attrString(vg.Attributes(), name)
}

// VarHasAttr reports whether a variable carries an attribute.
func (d *Dataset) VarHasAttr(variable, name string) bool {
	vg, err := d.group.GetVarGetter(variable)
	if err != nil {
		return false
	}
	_, ok := vg.Attributes().Get(name)
	return ok
}

// DependentVariables returns the data variables of the file: everything
// that is not a coordinate variable, a dimension, or a bounds variable
// referenced by another variable's bounds or climatology attribute.
func (d *Dataset) DependentVariables() ([]string, error) {
	names := d.group.ListVariables()

	auxiliary := map[string]bool{}
	for _, name := range names {
		vg, err := d.group.GetVarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("%s: variable %s: %w", d.path, name, err)
		}
		for _, dim := range vg.Dimensions() {
			auxiliary[dim] = true
		}
		for _, ref := range []string{"bounds", "climatology", "coordinates"} {
			if v, ok := attrString(vg.Attributes(), ref); ok {
				for _, r := range strings.Fields(v) {
					auxiliary[r] = true
				}
			}
		}
	}

	var out []string
	for _, name := range names {
		if !auxiliary[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// attrString renders an attribute value as a string. Attribute values come
// back as strings or as numeric scalars and slices depending on how the
// file was written.
func attrString(attrs api.AttributeMap, name string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(name)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []string:
		return strings.Join(t, " "), true
	default:
		return fmt.Sprint(t), true
	}
}

// attrFloat reads a numeric attribute, accepting any of the numeric types
// a writer may have chosen, including single-element slices.
func attrFloat(attrs api.AttributeMap, name string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(name)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int16:
		return float64(t), true
	case int8:
		return float64(t), true
	case []float64:
		if len(t) == 1 {
			return t[0], true
		}
	case []float32:
		if len(t) == 1 {
			return float64(t[0]), true
		}
	case []int32:
		if len(t) == 1 {
			return float64(t[0]), true
		}
	}
	return 0, false
}

// Float64s coerces a one-dimensional variable's values to float64, whatever
// numeric type the file stores.
func Float64s(v any) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []float32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("values are %T, not a numeric vector", v)
	}
}
