package utils

import "time"

// DateLayout is the format of the date column
const DateLayout = "2006-01-02"

// ExpandDates returns every calendar date from start to end inclusive, at
// midnight in start's location. It returns nil when start is after end.
func ExpandDates(start, end time.Time) []time.Time {
	loc := start.Location()
	cur := Midnight(start)
	last := Midnight(end.In(loc))

	var dates []time.Time
	for !cur.After(last) {
		dates = append(dates, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return dates
}

// Midnight truncates t to the start of its calendar day in t's location
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
