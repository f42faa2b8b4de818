package civic

import (
	"fmt"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AREA ALERT
// ══════════════════════════════════════════════════════════════════════════════

// AlertStatus is the lifecycle state of an area alert.
type AlertStatus string

const (
	// AlertStatusActive - alert is open and counted by the scoring run.
	AlertStatusActive AlertStatus = "active"
	// AlertStatusResolved - the reported issue was marked fixed.
	AlertStatusResolved AlertStatus = "resolved"
	// AlertStatusDismissed - alert was removed by moderation.
	AlertStatusDismissed AlertStatus = "dismissed"
)

// IsActive reports whether the alert is counted by the weekly scoring run.
func (s AlertStatus) IsActive() bool { return s == AlertStatusActive }

// Alert is a citizen-reported area issue (garbage pile, burst pipe, pothole,
// broken streetlight). UpvoteCount mutates as other citizens confirm the issue;
// everything else is immutable after creation.
type Alert struct {
	// ID - unique alert identifier.
	ID string

	// Pincode - where the issue was reported. Empty pincode rows are skipped
	// by the aggregation.
	Pincode shared.Pincode

	// Category - raw category string chosen by the reporter. Use
	// ScoringCategory to map it onto the four fixed poll categories.
	Category string

	// Title - short description entered by the reporter.
	Title string

	// UpvoteCount - number of citizens who confirmed the issue.
	UpvoteCount int

	// Status - lifecycle state. Only active alerts are scored.
	Status AlertStatus

	// CreatedAt - report time.
	CreatedAt time.Time
}

// alertCategoryAliases maps the free-form alert categories used by the mobile
// app onto the four scoring categories.
var alertCategoryAliases = map[string]PollCategory{
	"cleanliness": PollCategoryCleanliness,
	"garbage":     PollCategoryCleanliness,
	"sanitation":  PollCategoryCleanliness,
	"water":       PollCategoryWater,
	"drainage":    PollCategoryWater,
	"roads":       PollCategoryRoads,
	"pothole":     PollCategoryRoads,
	"traffic":     PollCategoryRoads,
	"safety":      PollCategorySafety,
	"streetlight": PollCategorySafety,
	"crime":       PollCategorySafety,
}

// ScoringCategory maps the alert's raw category onto a scoring category.
// The second return value is false for categories outside the four scored
// concerns (those alerts still count toward ward totals but not any category).
func (a *Alert) ScoringCategory() (PollCategory, bool) {
	c, ok := alertCategoryAliases[a.Category]
	return c, ok
}

// HasPincode reports whether the alert can be attributed to a ward.
func (a *Alert) HasPincode() bool {
	return a.Pincode.IsValid()
}

// String returns a short representation for logging.
func (a *Alert) String() string {
	return fmt.Sprintf("Alert{ID: %s, Pincode: %s, Category: %s, Upvotes: %d, Status: %s}",
		a.ID, a.Pincode, a.Category, a.UpvoteCount, a.Status)
}
