package climo

import "fmt"

// Statistic identifies an aggregation operator. Mean and StatStdDev are the
// climatological statistics callers may request; Sum, Max and Min only occur
// as combining statistics inside plan entries.
type Statistic int

const (
	StatNone Statistic = iota
	StatMean
	StatStdDev
	StatSum
	StatMax
	StatMin
)

func (s Statistic) String() string {
	switch s {
	case StatMean:
		return "mean"
	case StatStdDev:
		return "std"
	case StatSum:
		return "sum"
	case StatMax:
		return "max"
	case StatMin:
		return "min"
	default:
		return "none"
	}
}

// ParseClimatologicalStatistic parses the user-facing operation name. Only
// the two multi-year reduction statistics are valid here.
func ParseClimatologicalStatistic(s string) (Statistic, error) {
	switch s {
	case "mean":
		return StatMean, nil
	case "std", "stddev", "standard_deviation":
		return StatStdDev, nil
	default:
		return StatNone, fmt.Errorf("unsupported operation %q: expected mean or std", s)
	}
}
