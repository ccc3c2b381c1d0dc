// Package weekdate implements ISO-8601 week arithmetic and the canonical
// YYYY-MM-DD date keys used to bucket tasks.
//
// Every date produced here is pinned to 12:00 local time so that adding
// whole days never lands on the wrong calendar date across a daylight
// saving transition.
package weekdate

import (
	"fmt"
	"time"
)

const keyLayout = "2006-01-02"

// ISOWeekNumber returns the ISO-8601 week of t's local calendar date.
func ISOWeekNumber(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// ISOWeekYear returns the year the ISO week of t belongs to. It differs
// from t.Year() for some days at the start of January and the end of
// December.
func ISOWeekYear(t time.Time) int {
	y, _ := t.ISOWeek()
	return y
}

// WeekDates returns Monday through Sunday of the given ISO week, each at
// noon local time. January 4th always falls in week 1.
func WeekDates(year, week int) [7]time.Time {
	jan4 := time.Date(year, time.January, 4, 12, 0, 0, 0, time.Local)
	// Monday=0 .. Sunday=6
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.Day() - offset + (week-1)*7

	var out [7]time.Time
	for i := range out {
		out[i] = time.Date(year, time.January, monday+i, 12, 0, 0, 0, time.Local)
	}
	return out
}

// DateKey formats t as YYYY-MM-DD using its own (local) date components.
func DateKey(t time.Time) string {
	return t.Format(keyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key into noon local time.
func ParseDateKey(key string) (time.Time, error) {
	d, err := time.ParseInLocation(keyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("weekdate: invalid date key %q: %w", key, err)
	}
	return Noon(d), nil
}

// Noon normalizes t to 12:00 on its local calendar date.
func Noon(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local)
}

// WeeksInYear returns 52 or 53. It is the ISO week of December 31st,
// unless that day already belongs to week 1 of the following year.
func WeeksInYear(year int) int {
	w := ISOWeekNumber(time.Date(year, time.December, 31, 12, 0, 0, 0, time.Local))
	if w == 1 {
		return 52
	}
	return w
}

// WeekOf returns the ISO (year, week) bucket a date key belongs to.
func WeekOf(key string) (year, week int, err error) {
	d, err := ParseDateKey(key)
	if err != nil {
		return 0, 0, err
	}
	year, week = d.ISOWeek()
	return year, week, nil
}

// Current returns the ISO (year, week) containing now.
func Current(now time.Time) (year, week int) {
	return now.ISOWeek()
}

// ValidWeek reports whether week exists in the ISO year.
func ValidWeek(year, week int) bool {
	return week >= 1 && week <= WeeksInYear(year)
}

// ShortDate renders "DD.MM", the label used on day cards.
func ShortDate(t time.Time) string {
	return t.Format("02.01")
}
