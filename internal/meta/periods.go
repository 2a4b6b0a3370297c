package meta

import "time"

// Period is a standard multi-year climatological averaging period.
type Period struct {
	Code  string
	Start time.Time
	End   time.Time
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// standardPeriods are the 30-year baselines and projection tridecades we
// generate climatologies for. End dates stop at Dec 30 so that files on
// 360-day calendars, whose years end on the 30th, still cover the period.
var standardPeriods = []Period{
	{"6190", date(1961, 1, 1), date(1990, 12, 30)},
	{"7100", date(1971, 1, 1), date(2000, 12, 30)},
	{"8110", date(1981, 1, 1), date(2010, 12, 30)},
	{"2020", date(2010, 1, 1), date(2039, 12, 30)},
	{"2050", date(2040, 1, 1), date(2069, 12, 30)},
	{"2080", date(2070, 1, 1), date(2099, 12, 30)},
}

// StandardPeriods returns all standard climatological periods in
// chronological order.
func StandardPeriods() []Period {
	out := make([]Period, len(standardPeriods))
	copy(out, standardPeriods)
	return out
}

// AvailablePeriods returns the standard periods fully covered by a dataset
// spanning [start, end]. A few days of slack are allowed at each end: files
// on short calendars end before Dec 31, and some products start mid-January.
func AvailablePeriods(start, end time.Time) []Period {
	const slack = 15 * 24 * time.Hour
	var out []Period
	for _, p := range standardPeriods {
		if !p.Start.Before(start.Add(-slack)) && !p.End.After(end.Add(slack)) {
			out = append(out, p)
		}
	}
	return out
}
