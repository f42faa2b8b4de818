// Package civic contains the domain model for citizen-submitted signals:
// daily yes/no polls and area alerts. These raw signals are the only inputs
// to the weekly ward scoring computation.
package civic

import (
	"errors"
	"fmt"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// PollCategory identifies which civic concern a daily poll asks about.
type PollCategory string

const (
	// PollCategoryCleanliness covers garbage collection and street cleaning.
	PollCategoryCleanliness PollCategory = "cleanliness"
	// PollCategoryWater covers water supply availability and quality.
	PollCategoryWater PollCategory = "water"
	// PollCategoryRoads covers road condition and potholes.
	PollCategoryRoads PollCategory = "roads"
	// PollCategorySafety covers street lighting and public safety.
	PollCategorySafety PollCategory = "safety"
)

// AllPollCategories lists the four fixed scoring categories.
var AllPollCategories = []PollCategory{
	PollCategoryCleanliness,
	PollCategoryWater,
	PollCategoryRoads,
	PollCategorySafety,
}

// IsValid reports whether the category is one of the four fixed categories.
func (c PollCategory) IsValid() bool {
	switch c {
	case PollCategoryCleanliness, PollCategoryWater, PollCategoryRoads, PollCategorySafety:
		return true
	}
	return false
}

// String returns the category name.
func (c PollCategory) String() string { return string(c) }

// ══════════════════════════════════════════════════════════════════════════════
// DAILY POLL
// ══════════════════════════════════════════════════════════════════════════════

// DailyPoll is a yes/no question shown to citizens once per day.
// Responses reference the poll by ID; the poll carries the category that the
// scoring computation attributes the response to.
type DailyPoll struct {
	// ID - unique poll identifier.
	ID string

	// Question - the yes/no question text shown to citizens.
	Question string

	// Category - civic concern this poll measures.
	Category PollCategory

	// Active - whether the poll is currently being served.
	Active bool

	// CreatedAt - when the poll was created.
	CreatedAt time.Time
}

// Validate checks poll invariants.
func (p *DailyPoll) Validate() error {
	if p.ID == "" {
		return ErrInvalidPollID
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, p.Category)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// POLL RESPONSE
// ══════════════════════════════════════════════════════════════════════════════

// PollResponse is one citizen's answer to a daily poll.
// Immutable once created. Response semantics: true means "no problem today",
// false means the citizen reported a problem. One response per poll per citizen
// per calendar day is enforced at the storage layer, not here.
type PollResponse struct {
	// ID - unique response identifier.
	ID string

	// PollID - the daily poll this answers. Category is resolved through it.
	PollID string

	// Pincode - where the citizen lives. Empty pincode rows are skipped by
	// the aggregation.
	Pincode shared.Pincode

	// Ward - free-text ward name the citizen selected, if any.
	Ward string

	// Response - true = no problem, false = problem reported.
	Response bool

	// CreatedAt - submission time.
	CreatedAt time.Time
}

// IsProblem reports whether this response flagged a problem.
func (r *PollResponse) IsProblem() bool {
	return !r.Response
}

// HasPincode reports whether the response can be attributed to a ward.
func (r *PollResponse) HasPincode() bool {
	return r.Pincode.IsValid()
}

// String returns a short representation for logging.
func (r *PollResponse) String() string {
	return fmt.Sprintf("PollResponse{Poll: %s, Pincode: %s, Problem: %t}", r.PollID, r.Pincode, r.IsProblem())
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidPollID - poll ID is empty.
	ErrInvalidPollID = errors.New("invalid poll id: cannot be empty")

	// ErrInvalidCategory - category is not one of the four fixed categories.
	ErrInvalidCategory = errors.New("invalid poll category")

	// ErrPollNotFound - referenced poll does not exist.
	ErrPollNotFound = errors.New("daily poll not found")
)
