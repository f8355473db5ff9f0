// Package timeline implements the core of the view: computing the visible
// day window, selecting event records, and laying both out on a grid of
// rows (events) and columns (days).
package timeline

import (
	"fmt"
	"time"
)

// Day is one column of the visible window: a concrete calendar date with its
// 0-based column index, chronological left to right.
type Day struct {
	Date    time.Time
	Column  int
	Holiday bool
}

// Key returns the canonical date key of this day.
func (d Day) Key() string {
	return DayKey(d.Date)
}

// MonthName returns the English month name of this day.
func (d Day) MonthName() string {
	return d.Date.Month().String()
}

// DayKey formats a date as the canonical zero-padded YYYY-MM-DD key. The key
// is derived from the date's own calendar components only, so values built
// from different representations (local dates, parsed ICS stamps) compare
// equal when they name the same calendar day. This is the single formatter
// shared by range building and event lookup.
func DayKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// IsWeekday reports whether the date falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsHoliday reports whether the date falls on a weekend.
func IsHoliday(t time.Time) bool {
	return !IsWeekday(t)
}

// BuildRange computes the visible window: period+futureOffset consecutive
// calendar days ending at now+futureOffset, oldest first. Column indices
// ascend with the dates, so the oldest day is column 0.
func BuildRange(now time.Time, period, futureOffset int) []Day {
	total := period + futureOffset
	if total <= 0 {
		return []Day{}
	}

	anchor := now.AddDate(0, 0, futureOffset)

	days := make([]Day, total)
	for i := 0; i < total; i++ {
		date := anchor.AddDate(0, 0, -i)
		days[total-1-i] = Day{
			Date:    date,
			Column:  total - 1 - i,
			Holiday: IsHoliday(date),
		}
	}
	return days
}
