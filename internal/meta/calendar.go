package meta

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Calendar identifies a CF calendar system.
type Calendar int

const (
	CalendarStandard Calendar = iota
	Calendar365Day
	Calendar360Day
	Calendar366Day
)

func (c Calendar) String() string {
	switch c {
	case Calendar365Day:
		return "365_day"
	case Calendar360Day:
		return "360_day"
	case Calendar366Day:
		return "366_day"
	default:
		return "standard"
	}
}

// ParseCalendar maps a CF calendar attribute to a Calendar. Unknown or empty
// values default to the standard calendar, as the CF conventions specify.
func ParseCalendar(s string) Calendar {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noleap", "365_day":
		return Calendar365Day
	case "360_day":
		return Calendar360Day
	case "all_leap", "366_day":
		return Calendar366Day
	default:
		return CalendarStandard
	}
}

// dateParts is a calendar-agnostic date: in a 360_day calendar February 30
// is a real date that time.Time cannot represent.
type dateParts struct {
	year, month, day     int
	hour, minute, second int
}

// TimeEncoding converts between time coordinate values and dates, honoring a
// CF time units string ("days since 1850-01-01 00:00:00") and calendar.
type TimeEncoding struct {
	Calendar Calendar
	Units    string

	epoch    dateParts
	unitDays float64 // length of one coordinate unit, in days
}

// ParseTimeEncoding parses a CF time units string and calendar attribute.
func ParseTimeEncoding(units, calendar string) (TimeEncoding, error) {
	fields := strings.Fields(units)
	if len(fields) < 3 || !strings.EqualFold(fields[1], "since") {
		return TimeEncoding{}, fmt.Errorf("unparseable time units %q: expected \"<unit> since <date>\"", units)
	}

	var unitDays float64
	switch strings.ToLower(fields[0]) {
	case "days", "day", "d":
		unitDays = 1
	case "hours", "hour", "hr", "h":
		unitDays = 1.0 / 24
	case "minutes", "minute", "min":
		unitDays = 1.0 / 1440
	case "seconds", "second", "sec", "s":
		unitDays = 1.0 / 86400
	default:
		return TimeEncoding{}, fmt.Errorf("unsupported time unit %q", fields[0])
	}

	epoch, err := parseDateStamp(strings.Join(fields[2:], " "))
	if err != nil {
		return TimeEncoding{}, fmt.Errorf("time units %q: %w", units, err)
	}

	return TimeEncoding{
		Calendar: ParseCalendar(calendar),
		Units:    units,
		epoch:    epoch,
		unitDays: unitDays,
	}, nil
}

// parseDateStamp parses "1850-01-02", "1850-01-02 12:00:00", or the
// T-separated ISO form. Component widths vary across files, so the stamp is
// split by hand rather than parsed with fixed time layouts.
func parseDateStamp(s string) (dateParts, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	sep := " "
	if strings.Contains(s, "T") {
		sep = "T"
	}
	datePart, timePart, _ := strings.Cut(s, sep)

	d := dateParts{}
	dateFields := strings.Split(datePart, "-")
	if len(dateFields) != 3 {
		return d, fmt.Errorf("unparseable reference date %q", s)
	}
	var err error
	if d.year, err = strconv.Atoi(dateFields[0]); err != nil {
		return d, fmt.Errorf("unparseable reference date %q", s)
	}
	if d.month, err = strconv.Atoi(dateFields[1]); err != nil {
		return d, fmt.Errorf("unparseable reference date %q", s)
	}
	if d.day, err = strconv.Atoi(dateFields[2]); err != nil {
		return d, fmt.Errorf("unparseable reference date %q", s)
	}

	if timePart != "" {
		timeFields := strings.Split(timePart, ":")
		parts := []*int{&d.hour, &d.minute, &d.second}
		for i, f := range timeFields {
			if i >= len(parts) {
				break
			}
			v, err := strconv.Atoi(strings.Split(f, ".")[0])
			if err != nil {
				return d, fmt.Errorf("unparseable reference time %q", s)
			}
			*parts[i] = v
		}
	}
	return d, nil
}

// Cumulative days at the start of each month, January first.
var (
	cumDays365 = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	cumDays366 = [12]int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
)

// dayNumber returns an absolute day count for the date in the given fixed
// calendar. Only differences of day numbers are meaningful.
func dayNumber(c Calendar, d dateParts) float64 {
	frac := (float64(d.hour)*3600 + float64(d.minute)*60 + float64(d.second)) / 86400
	switch c {
	case Calendar360Day:
		return float64(d.year*360+(d.month-1)*30+(d.day-1)) + frac
	case Calendar365Day:
		return float64(d.year*365+cumDays365[d.month-1]+(d.day-1)) + frac
	case Calendar366Day:
		return float64(d.year*366+cumDays366[d.month-1]+(d.day-1)) + frac
	default:
		t := time.Date(d.year, time.Month(d.month), d.day, d.hour, d.minute, d.second, 0, time.UTC)
		return float64(t.Unix()) / 86400
	}
}

// Encode converts a date to a time coordinate value in this encoding.
func (e TimeEncoding) Encode(t time.Time) float64 {
	d := dateParts{
		year: t.Year(), month: int(t.Month()), day: t.Day(),
		hour: t.Hour(), minute: t.Minute(), second: t.Second(),
	}
	return (dayNumber(e.Calendar, d) - dayNumber(e.Calendar, e.epoch)) / e.unitDays
}

// Days converts a difference of time coordinate values to days.
func (e TimeEncoding) Days(delta float64) float64 {
	return delta * e.unitDays
}

// EncodeAll encodes a slice of dates.
func (e TimeEncoding) EncodeAll(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = e.Encode(t)
	}
	return out
}

// Decode converts a time coordinate value back to a date. Dates that do not
// exist in the real calendar (Feb 30 in 360_day) are normalized forward by
// time.Date; decoded values are used for period bookkeeping, where a
// two-day shift is immaterial.
func (e TimeEncoding) Decode(v float64) time.Time {
	days := v*e.unitDays + dayNumber(e.Calendar, e.epoch)
	whole := math.Floor(days)
	frac := days - whole
	secs := int(math.Round(frac * 86400))

	var year, month, day int
	switch e.Calendar {
	case Calendar360Day:
		n := int(whole)
		year, n = n/360, n%360
		if n < 0 {
			year, n = year-1, n+360
		}
		month, day = n/30+1, n%30+1
	case Calendar365Day:
		year, month, day = splitFixedYear(int(whole), 365, cumDays365)
	case Calendar366Day:
		year, month, day = splitFixedYear(int(whole), 366, cumDays366)
	default:
		return time.Unix(int64(whole)*86400+int64(secs), 0).UTC()
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(secs) * time.Second)
}

func splitFixedYear(n, yearLen int, cum [12]int) (year, month, day int) {
	year = n / yearLen
	n %= yearLen
	if n < 0 {
		year, n = year-1, n+yearLen
	}
	for m := 11; m >= 0; m-- {
		if n >= cum[m] {
			return year, m + 1, n - cum[m] + 1
		}
	}
	return year, 1, 1
}
