package meta

import (
	"fmt"
	"strings"

	"github.com/climtools/dataprep/internal/climo"
)

// FrequencyCode returns the frequency attribute value for a climatology
// covering the given output resolutions: an m/s/a interval prefix, "Clim",
// and a Mean or SD suffix, e.g. msaClimMean, sClimSD.
func FrequencyCode(resolutions []climo.Resolution, stat climo.Statistic) string {
	present := make(map[climo.Resolution]bool, len(resolutions))
	for _, r := range resolutions {
		present[r] = true
	}
	var prefix strings.Builder
	if present[climo.Monthly] {
		prefix.WriteString("m")
	}
	if present[climo.Seasonal] {
		prefix.WriteString("s")
	}
	if present[climo.Yearly] {
		prefix.WriteString("a")
	}

	suffix := "Mean"
	if stat == climo.StatStdDev {
		suffix = "SD"
	}
	return prefix.String() + "Clim" + suffix
}

// IsClimatology reports whether a frequency attribute value denotes a
// multi-year climatology file.
func IsClimatology(frequency string) bool {
	return strings.Contains(frequency, "Clim")
}

// Segment describes one averaging interval inside a concatenated
// climatology file: which time steps belong to it and the frequency code of
// the file it splits into.
type Segment struct {
	Resolution climo.Resolution
	FirstStep  int // 1-based, as the statistics tool counts time steps
	Steps      int
	Frequency  string
}

var stepsPerInterval = map[climo.Resolution]int{
	climo.Monthly:  12,
	climo.Seasonal: 4,
	climo.Yearly:   1,
}

var intervalLetter = map[climo.Resolution]string{
	climo.Monthly:  "m",
	climo.Seasonal: "s",
	climo.Yearly:   "a",
}

// SplitSegments parses a concatenated climatology's frequency code and
// returns the segments it contains, in time-step order. Single-interval
// codes yield one segment covering the whole file.
func SplitSegments(frequency string) ([]Segment, error) {
	prefix, suffix, ok := cutClim(frequency)
	if !ok {
		return nil, fmt.Errorf("frequency %q is not a climatology code", frequency)
	}

	var segments []Segment
	step := 1
	for _, letter := range prefix {
		var r climo.Resolution
		switch letter {
		case 'm':
			r = climo.Monthly
		case 's':
			r = climo.Seasonal
		case 'a':
			r = climo.Yearly
		default:
			return nil, fmt.Errorf("frequency %q: unknown interval letter %q", frequency, string(letter))
		}
		n := stepsPerInterval[r]
		segments = append(segments, Segment{
			Resolution: r,
			FirstStep:  step,
			Steps:      n,
			Frequency:  intervalLetter[r] + "Clim" + suffix,
		})
		step += n
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("frequency %q names no averaging intervals", frequency)
	}
	return segments, nil
}

// cutClim splits a frequency code around "Clim", returning the interval
// prefix and the statistic suffix.
func cutClim(frequency string) (prefix, suffix string, ok bool) {
	i := strings.Index(frequency, "Clim")
	if i < 0 {
		return "", "", false
	}
	return frequency[:i], frequency[i+len("Clim"):], true
}
