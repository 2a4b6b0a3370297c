package climo

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table maps variable names to their categories. The built-in table covers
// the variables we have encountered in GCM output, downscaled products,
// hydrological model output, degree-day datasets, and Climdex (ETCCDI) index
// files. Unknown variables are rejected rather than guessed at.
type Table map[string]Category

// defaultTable is the authoritative classification. Keep it sorted by
// category, then alphabetically, so additions are easy to review.
var defaultTable = Table{
	// Standard climate variables.
	"pr":     Point,
	"prsn":   Point,
	"psl":    Point,
	"tas":    Point,
	"tasmax": Point,
	"tasmin": Point,

	// Hydrological modelling variables.
	"BASEFLOW":       Point,
	"EVAP":           Point,
	"GLAC_AREA_BAND": Point,
	"GLAC_MBAL_BAND": Point,
	"GLAC_OUTFLOW":   Point,
	"PET_NATVEG":     Point,
	"PREC":           Point,
	"RAINF":          Point,
	"RUNOFF":         Point,
	"SNOW_MELT":      Point,
	"SOIL_MOIST_TOT": Point,
	"SWE":            Point,
	"SWE_BAND":       Point,
	"TRANSP_VEG":     Point,

	// Climdex indices that behave as ordinary averaged quantities:
	// intensities, ranges, and percent-of-days indices.
	"dtrETCCDI":    Point,
	"rx1dayETCCDI": Maximum,
	"rx5dayETCCDI": Maximum,
	"sdiiETCCDI":   Point,
	"tn10pETCCDI":  Point,
	"tn90pETCCDI":  Point,
	"tnnETCCDI":    Minimum,
	"tnxETCCDI":    Maximum,
	"tx10pETCCDI":  Point,
	"tx90pETCCDI":  Point,
	"txnETCCDI":    Minimum,
	"txxETCCDI":    Maximum,

	// Climdex indices that count events or total amounts within a period.
	"fdETCCDI":      Count,
	"idETCCDI":      Count,
	"prcptotETCCDI": Count,
	"r10mmETCCDI":   Count,
	"r1mmETCCDI":    Count,
	"r20mmETCCDI":   Count,
	"r95pETCCDI":    Count,
	"r99pETCCDI":    Count,
	"suETCCDI":      Count,
	"trETCCDI":      Count,

	// Degree-day variables.
	"cdd": Count,
	"fdd": Count,
	"gdd": Count,
	"hdd": Count,

	// Climdex spell/duration indices: lengths of qualifying runs of days.
	"cddETCCDI":  Duration,
	"csdiETCCDI": Duration,
	"cwdETCCDI":  Duration,
	"gslETCCDI":  Duration,
	"wsdiETCCDI": Duration,
}

// DefaultTable returns a copy of the built-in classification table.
func DefaultTable() Table {
	t := make(Table, len(defaultTable))
	for name, cat := range defaultTable {
		t[name] = cat
	}
	return t
}

// Classify returns the category of the named variable, or an
// UnsupportedVariableError if the table does not know it.
func (t Table) Classify(name string) (Category, error) {
	if cat, ok := t[name]; ok {
		return cat, nil
	}
	return CategoryUnknown, UnsupportedVariableError{Variable: name}
}

// ResolveCategory classifies every name and requires the results to agree.
// A dataset may contain variables of only one category at a time; mixing
// categories in one file (or an empty name set) is a MixedCategoriesError.
func (t Table) ResolveCategory(names []string) (Category, error) {
	seen := make(map[Category]bool)
	var found []Category
	for _, name := range names {
		cat, err := t.Classify(name)
		if err != nil {
			return CategoryUnknown, err
		}
		if !seen[cat] {
			seen[cat] = true
			found = append(found, cat)
		}
	}
	if len(found) != 1 {
		sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
		return CategoryUnknown, MixedCategoriesError{Categories: found}
	}
	return found[0], nil
}

// Classify looks the variable up in the built-in table.
func Classify(name string) (Category, error) {
	return defaultTable.Classify(name)
}

// ResolveCategory resolves the single category of a variable-name set
// against the built-in table.
func ResolveCategory(names []string) (Category, error) {
	return defaultTable.ResolveCategory(names)
}

// tableFile is the on-disk YAML form of a category table extension:
//
//	variables:
//	  myvar: point
//	  spell_len: duration
type tableFile struct {
	Variables map[string]string `yaml:"variables"`
}

// LoadTable reads a YAML table file and merges it over the built-in table.
// Entries in the file override built-in classifications of the same name.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variable table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse variable table %s: %w", path, err)
	}

	t := DefaultTable()
	for name, catName := range tf.Variables {
		cat, err := parseCategory(catName)
		if err != nil {
			return nil, fmt.Errorf("variable table %s: variable %q: %w", path, name, err)
		}
		t[name] = cat
	}
	return t, nil
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "point":
		return Point, nil
	case "count":
		return Count, nil
	case "maximum":
		return Maximum, nil
	case "minimum":
		return Minimum, nil
	case "duration":
		return Duration, nil
	default:
		return CategoryUnknown, fmt.Errorf("unknown category %q", s)
	}
}
