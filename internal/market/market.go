// Package market answers calendar questions about the Korea Exchange:
// whether the regular session is open and how often prices should be
// refreshed because of it.
package market

import (
	"time"
	_ "time/tzdata" // Asia/Seoul must resolve on hosts without zoneinfo
)

// Regular session bounds in minutes since midnight, exchange time. Both ends
// are inclusive.
const (
	openMinute  = 9 * 60
	closeMinute = 15*60 + 30
)

// DateLayout is the calendar date format used for day keys and snapshot dates.
const DateLayout = "2006-01-02"

var seoul = loadSeoul()

func loadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Location returns the exchange time zone.
func Location() *time.Location {
	return seoul
}

// IsOpen reports whether now falls within the regular session: a weekday,
// between 09:00 and 15:30 exchange time inclusive.
func IsOpen(now time.Time) bool {
	local := now.In(seoul)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= openMinute && minute <= closeMinute
}

// Today returns now's calendar date in exchange time.
func Today(now time.Time) string {
	return now.In(seoul).Format(DateLayout)
}

// Date truncates now to midnight of its exchange calendar date.
func Date(now time.Time) time.Time {
	y, m, d := now.In(seoul).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, seoul)
}
