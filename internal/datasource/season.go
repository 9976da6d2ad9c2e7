package datasource

import (
	"iter"
	"time"
)

// InSeason reports whether date falls in the season window, which may wrap the
// year end (October through April by default).
func InSeason(date time.Time, startMonth, endMonth int) bool {
	m := int(date.Month())
	if startMonth <= endMonth {
		return m >= startMonth && m <= endMonth
	}
	return m >= startMonth || m <= endMonth
}

// SeasonDays yields each in-season day from start to end inclusive, in order
func SeasonDays(start, end time.Time, startMonth, endMonth int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		day := truncateDay(start)
		last := truncateDay(end)
		for !day.After(last) {
			if InSeason(day, startMonth, endMonth) && !yield(day) {
				return
			}
			day = day.AddDate(0, 0, 1)
		}
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
