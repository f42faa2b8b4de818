// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// PINCODE
// ══════════════════════════════════════════════════════════════════════════════

// Pincode is an Indian postal code, the primary geographic join key.
// All aggregation is grouped by pincode; rows without one cannot be attributed
// to a ward and are skipped.
type Pincode string

// IsValid reports whether the pincode is usable as a grouping key.
// Indian pincodes are six digits, but historical rows contain free-form
// values, so only emptiness disqualifies a row.
func (p Pincode) IsValid() bool {
	return strings.TrimSpace(string(p)) != ""
}

// String returns the raw pincode.
func (p Pincode) String() string { return string(p) }

// ══════════════════════════════════════════════════════════════════════════════
// WEEK OF YEAR
// ══════════════════════════════════════════════════════════════════════════════

// WeekOfYear identifies one scoring period. Week numbers follow ISO 8601
// (1..53); Year is the ISO week-year.
type WeekOfYear struct {
	Week int
	Year int
}

// IsValid reports whether the pair denotes a plausible ISO week.
func (w WeekOfYear) IsValid() bool {
	return w.Week >= 1 && w.Week <= 53 && w.Year > 0
}

// Previous returns the preceding scoring period as week-1 of the same year.
// Week 1 maps to week 0, which matches no persisted rows, so every ward in the
// first week of a year reports an unchanged rank. Deliberate: a year boundary
// resets the rank-change signal rather than comparing across years.
func (w WeekOfYear) Previous() WeekOfYear {
	return WeekOfYear{Week: w.Week - 1, Year: w.Year}
}

// String returns e.g. "2026-W35".
func (w WeekOfYear) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}
