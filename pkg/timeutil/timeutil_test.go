package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIST_Offset(t *testing.T) {
	_, offset := time.Date(2026, 8, 26, 0, 0, 0, 0, IST).Zone()
	assert.Equal(t, 5*3600+30*60, offset)
}

func TestWeekOf_MatchesISOWeek(t *testing.T) {
	// Wednesday 26 Aug 2026 falls in ISO week 35.
	week, year := WeekOf(Date(2026, 8, 26))
	assert.Equal(t, 35, week)
	assert.Equal(t, 2026, year)
}

func TestWeekOf_EvaluatesInIST(t *testing.T) {
	// Sunday 23:00 UTC is already Monday 04:30 in IST, so the IST week is
	// one ahead of the UTC week.
	sundayLateUTC := time.Date(2026, 8, 23, 23, 0, 0, 0, time.UTC)

	utcYear, utcWeek := sundayLateUTC.ISOWeek()
	week, year := WeekOf(sundayLateUTC)

	assert.Equal(t, utcWeek+1, week)
	assert.Equal(t, utcYear, year)
}

func TestWeekOf_YearBoundary(t *testing.T) {
	// 1 Jan 2027 is a Friday, part of ISO week 53 of 2026.
	week, year := WeekOf(Date(2027, 1, 1))
	assert.Equal(t, 53, week)
	assert.Equal(t, 2026, year)
}

func TestStartOfWeek_IsMonday(t *testing.T) {
	for day := 24; day <= 30; day++ {
		start := StartOfWeek(Date(2026, 8, day))
		assert.Equal(t, time.Monday, start.Weekday(), "day %d", day)
		assert.Equal(t, 24, start.Day())
		assert.Equal(t, 0, start.Hour())
	}
}

func TestStartOfWeek_SundayBelongsToPrecedingMonday(t *testing.T) {
	start := StartOfWeek(Date(2026, 8, 30)) // Sunday
	assert.Equal(t, 24, start.Day())
}

func TestTrailingWindow(t *testing.T) {
	end := Date(2026, 8, 26)
	start := TrailingWindow(end, 7*24*time.Hour)
	assert.Equal(t, Date(2026, 8, 19), start)
}

func TestStartAndEndOfDay(t *testing.T) {
	noon := time.Date(2026, 8, 26, 12, 30, 0, 0, IST)

	start := StartOfDay(noon)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 26, start.Day())

	end := EndOfDay(noon)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 26, end.Day())
}

func TestFormatWeek(t *testing.T) {
	assert.Equal(t, "Week 35, 2026", FormatWeek(35, 2026))
}
