package timeutil

import "time"

const (
	dayLayout   = "2006-01-02"
	DayDuration = 24 * time.Hour
)

func NowUnix() int64 {
	return time.Now().Unix()
}

// Day formats t as the UTC calendar day used for daily counters.
func Day(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// NextDay returns the first instant of the UTC day after t.
func NextDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
