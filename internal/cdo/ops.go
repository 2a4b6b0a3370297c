package cdo

import (
	"fmt"

	"github.com/climtools/dataprep/internal/climo"
)

// ClimatologicalOperator maps a plan entry's target resolution and
// climatological statistic to the CDO operator that computes the multi-year
// statistic: ymon* groups by month of year, yseas* by season, tim* over the
// whole (yearly-resolution) axis.
func ClimatologicalOperator(target climo.Resolution, stat climo.Statistic) (string, error) {
	var prefix string
	switch target {
	case climo.Monthly:
		prefix = "ymon"
	case climo.Seasonal:
		prefix = "yseas"
	case climo.Yearly:
		prefix = "tim"
	default:
		return "", fmt.Errorf("no climatological operator for resolution %s", target)
	}
	switch stat {
	case climo.StatMean, climo.StatStdDev:
		return prefix + stat.String(), nil
	default:
		return "", fmt.Errorf("no climatological operator for statistic %s", stat)
	}
}

// CombiningOperator maps a plan entry's materialization step to the CDO
// operator that combines fine-resolution values into one value per target
// interval, e.g. monsum, yearmax. Entries that aggregate directly have no
// combining step.
func CombiningOperator(entry climo.Entry) (string, bool, error) {
	if entry.Combining == climo.StatNone {
		return "", false, nil
	}
	var prefix string
	switch entry.Target {
	case climo.Monthly:
		prefix = "mon"
	case climo.Seasonal:
		prefix = "seas"
	case climo.Yearly:
		prefix = "year"
	default:
		return "", false, fmt.Errorf("no combining operator for resolution %s", entry.Target)
	}
	switch entry.Combining {
	case climo.StatSum, climo.StatMax, climo.StatMin:
		return prefix + entry.Combining.String(), true, nil
	default:
		return "", false, fmt.Errorf("no combining operator for statistic %s", entry.Combining)
	}
}
