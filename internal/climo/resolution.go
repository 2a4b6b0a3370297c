package climo

import (
	"fmt"
	"sort"
	"strings"
)

// Resolution is the sampling interval of a dataset's time axis, ordered from
// finest to coarsest.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	Daily
	Monthly
	Seasonal
	Yearly
)

// OutputResolutions lists the resolutions climatological statistics can be
// produced at. Daily is never an aggregation target.
var OutputResolutions = []Resolution{Monthly, Seasonal, Yearly}

func (r Resolution) String() string {
	switch r {
	case Daily:
		return "daily"
	case Monthly:
		return "monthly"
	case Seasonal:
		return "seasonal"
	case Yearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// ParseResolution maps a time-resolution label to a Resolution. It accepts
// the labels used in CF frequency attributes as well as the plain names.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "1day", "1-day":
		return Daily, nil
	case "monthly", "mon", "month":
		return Monthly, nil
	case "seasonal", "sem", "season":
		return Seasonal, nil
	case "yearly", "yr", "year", "annual":
		return Yearly, nil
	default:
		return ResolutionUnknown, fmt.Errorf("unrecognized time resolution %q", s)
	}
}

// ParseResolutions parses a comma-separated list of resolution names,
// returning them deduplicated in fine-to-coarse order.
func ParseResolutions(s string) ([]Resolution, error) {
	var out []Resolution
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseResolution(part)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return normalizeResolutions(out), nil
}

// normalizeResolutions sorts fine-to-coarse and removes duplicates.
func normalizeResolutions(rs []Resolution) []Resolution {
	seen := make(map[Resolution]bool, len(rs))
	out := make([]Resolution, 0, len(rs))
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func resolutionNames(rs []Resolution) string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
