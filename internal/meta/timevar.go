package meta

import (
	"time"

	"github.com/climtools/dataprep/internal/climo"
)

// ClimatologyTimes returns the climatological time centers and period bounds
// for a multi-year statistic over [start, end], for the given output
// resolutions. Values are ordered monthly, then seasonal, then annual,
// matching the time-step order of a concatenated climatology file.
//
// Following the examples in CF conventions section 7.4, monthly values sit
// on the 15th of each month, seasonal values on the 16th of the mid-season
// months (Jan, Apr, Jul, Oct), and the annual value on July 2, all in the
// middle year of the period.
func ClimatologyTimes(start, end time.Time, resolutions []climo.Resolution) (times []time.Time, bounds [][2]time.Time) {
	present := make(map[climo.Resolution]bool, len(resolutions))
	for _, r := range resolutions {
		present[r] = true
	}

	midYear := (start.Year() + end.Year() + 1) / 2

	if present[climo.Monthly] {
		for month := 1; month <= 12; month++ {
			times = append(times, date(midYear, month, 15))
			bounds = append(bounds, [2]time.Time{
				date(start.Year(), month, 1),
				date(end.Year(), month, 1).AddDate(0, 1, 0),
			})
		}
	}

	if present[climo.Seasonal] {
		// DJF, MAM, JJA, SON; bounds run from the first month of the season
		// in the start year to the end of the season in the end year. DJF
		// borrows the preceding December.
		for _, month := range []int{1, 4, 7, 10} {
			times = append(times, date(midYear, month, 16))
			bounds = append(bounds, [2]time.Time{
				date(start.Year(), month, 1).AddDate(0, -1, 0),
				date(end.Year(), month, 1).AddDate(0, 2, 0),
			})
		}
	}

	if present[climo.Yearly] {
		times = append(times, date(midYear, 7, 2))
		bounds = append(bounds, [2]time.Time{
			start,
			date(end.Year()+1, 1, 1),
		})
	}

	return times, bounds
}
