package nc

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// AttrList is an ordered set of attributes for WriteFile.
type AttrList struct {
	Keys   []string
	Values map[string]any
}

// Add appends an attribute, keeping insertion order.
func (a *AttrList) Add(key string, value any) *AttrList {
	if a.Values == nil {
		a.Values = map[string]any{}
	}
	a.Keys = append(a.Keys, key)
	a.Values[key] = value
	return a
}

func (a AttrList) toMap() (api.AttributeMap, error) {
	values := a.Values
	if values == nil {
		values = map[string]any{}
	}
	om, err := util.NewOrderedMap(a.Keys, values)
	if err != nil {
		return nil, fmt.Errorf("build attributes: %w", err)
	}
	return om, nil
}

// WriteVar is one variable for WriteFile.
type WriteVar struct {
	Name   string
	Values any
	Dims   []string
	Attrs  AttrList
}

// WriteFile writes a classic-format netCDF file from scratch. It exists for
// building small test and demonstration files; production outputs come from
// the statistics tool and are only rewritten, not created.
func WriteFile(path string, vars []WriteVar, globals AttrList) error {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	for _, v := range vars {
		attrs, err := v.Attrs.toMap()
		if err != nil {
			return err
		}
		err = cw.AddVar(v.Name, api.Variable{
			Values:     v.Values,
			Dimensions: v.Dims,
			Attributes: attrs,
		})
		if err != nil {
			return fmt.Errorf("write %s: variable %s: %w", path, v.Name, err)
		}
	}

	gattrs, err := globals.toMap()
	if err != nil {
		return err
	}
	if err := cw.AddAttributes(gattrs); err != nil {
		return fmt.Errorf("write %s: global attributes: %w", path, err)
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
