package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neta-watch/ward-pulse/pkg/timeutil"
)

func TestParseCron_RejectsBadExpressions(t *testing.T) {
	cases := []string{
		"",
		"* * * *",        // 4 fields
		"* * * * * *",    // 6 fields
		"60 * * * *",     // minute out of range
		"* 24 * * *",     // hour out of range
		"* * * * 7",      // weekday out of range
		"x * * * *",      // not a number
		"*/0 * * * *",    // zero step
	}
	for _, expr := range cases {
		_, err := ParseCron(expr)
		assert.Error(t, err, "expression %q", expr)
	}
}

func TestCron_EveryFiveMinutes(t *testing.T) {
	ce, err := ParseCron("*/5 * * * *")
	require.NoError(t, err)

	start := time.Date(2026, 8, 26, 10, 2, 30, 0, timeutil.IST)
	next := ce.Next(start)
	assert.Equal(t, time.Date(2026, 8, 26, 10, 5, 0, 0, timeutil.IST), next)

	// From an exact match, Next advances to the following slot.
	next = ce.Next(next)
	assert.Equal(t, 10, next.Minute())
}

func TestCron_DailyAtThree(t *testing.T) {
	ce := MustParseCron("0 3 * * *")

	afterThree := time.Date(2026, 8, 26, 15, 0, 0, 0, timeutil.IST)
	next := ce.Next(afterThree)
	assert.Equal(t, time.Date(2026, 8, 27, 3, 0, 0, 0, timeutil.IST), next)
}

func TestCron_WeeklyScoringSchedule(t *testing.T) {
	// The production scoring schedule: Monday 00:05 IST.
	ce := MustParseCron("5 0 * * 1")

	// From Wednesday 26 Aug 2026, the next Monday is 31 Aug.
	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, timeutil.IST)
	next := ce.Next(wednesday)

	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 31, next.Day())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())
}

func TestCron_ListAndRangeFields(t *testing.T) {
	ce := MustParseCron("0 9-11 * * 1,3,5")

	// Monday 09:30 -> Monday 10:00.
	monday := time.Date(2026, 8, 24, 9, 30, 0, 0, timeutil.IST)
	next := ce.Next(monday)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 10, next.Hour())

	// Monday 11:30 -> Wednesday 09:00 (Tuesday is not in the list).
	next = ce.Next(time.Date(2026, 8, 24, 11, 30, 0, 0, timeutil.IST))
	assert.Equal(t, time.Wednesday, next.Weekday())
	assert.Equal(t, 9, next.Hour())
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)

	at := time.Date(2026, 8, 26, 10, 0, 0, 0, timeutil.IST)
	assert.Equal(t, at.Add(30*time.Minute), s.Next(at))
	assert.Equal(t, "@every 30m0s", s.String())
}
