// Package timeutil provides timezone utilities for Indian Standard Time
// (UTC+5:30). Scoring weeks, daily polls, and cron schedules are all anchored
// to IST because that is where the citizens are.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// IST is Indian Standard Time (UTC+5:30, no DST).
var IST = time.FixedZone("Asia/Kolkata", 5*60*60+30*60)

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a midnight time in IST with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, IST)
}

// StartOfDay returns the start of the day (00:00:00) in IST.
func StartOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in IST.
func EndOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 23, 59, 59, 999999999, IST)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in IST.
func StartOfWeek(t time.Time) time.Time {
	ist := ToIST(t)
	weekday := int(ist.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(ist.AddDate(0, 0, -(weekday - 1)))
}

// WeekOf returns the ISO 8601 week number and week-year for a time,
// evaluated in IST. This pair keys the weekly ward score rows.
func WeekOf(t time.Time) (week, year int) {
	year, week = ToIST(t).ISOWeek()
	return week, year
}

// TrailingWindow returns the start of the trailing window of the given length
// ending at t. The weekly scoring run uses a 7-day window.
func TrailingWindow(t time.Time, d time.Duration) time.Time {
	return t.Add(-d)
}

// IsToday checks if the given time is today in IST.
func IsToday(t time.Time) bool {
	now := Now()
	ist := ToIST(t)
	return ist.Year() == now.Year() && ist.YearDay() == now.YearDay()
}

// FormatDate formats a time as "02 Jan 2006" in IST.
func FormatDate(t time.Time) string {
	return ToIST(t).Format("02 Jan 2006")
}

// FormatWeek formats a week/year pair, e.g. "Week 35, 2026".
func FormatWeek(week, year int) string {
	return fmt.Sprintf("Week %d, %d", week, year)
}
