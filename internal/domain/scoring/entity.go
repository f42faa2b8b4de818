package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank is a ward's 1-based position in the weekly ranking.
type Rank int

// IsValid reports whether the rank is positive.
func (r Rank) IsValid() bool { return r > 0 }

// String returns e.g. "#3".
func (r Rank) String() string { return fmt.Sprintf("#%d", r) }

// RankChange is the week-over-week rank movement.
// Positive = the ward moved up, negative = it dropped.
type RankChange int

// Direction returns the movement direction for presentation.
func (rc RankChange) Direction() string {
	switch {
	case rc > 0:
		return "up"
	case rc < 0:
		return "down"
	default:
		return "stable"
	}
}

// String returns e.g. "+6" or "-2".
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", int(rc))
	case rc < 0:
		return fmt.Sprintf("%d", int(rc))
	default:
		return "±0"
	}
}

// Overall score weights: cleanliness and water carry 30% each, roads and
// safety 20% each.
const (
	cleanlinessWeight = 0.3
	waterWeight       = 0.3
	roadsWeight       = 0.2
	safetyWeight      = 0.2
)

// ══════════════════════════════════════════════════════════════════════════════
// WARD WEEKLY SCORE
// ══════════════════════════════════════════════════════════════════════════════

// WardWeeklyScore is one ward's report card for one week.
// One row exists per (pincode, week, year); reruns overwrite the whole row.
type WardWeeklyScore struct {
	// Pincode - the ward's postal code, part of the composite key.
	Pincode shared.Pincode

	// Ward, City, State - resolved geography (possibly placeholder values).
	Ward  string
	City  string
	State string

	// Week - the scoring period, part of the composite key.
	Week shared.WeekOfYear

	// Per-category scores.
	CleanlinessScore Score
	WaterScore       Score
	RoadsScore       Score
	SafetyScore      Score

	// OverallScore - weighted combination of the four category scores.
	OverallScore Score

	// Rank - dense 1..N position among all wards scored this week.
	Rank Rank

	// PrevRank - rank in the preceding week; equals Rank when the ward has
	// no prior-week row, which makes RankChange read as unchanged.
	PrevRank Rank

	// RankChange - PrevRank − Rank. Positive = improved.
	RankChange RankChange

	// Signal volume totals for the week.
	TotalResponses     int
	TotalAlerts        int
	TotalConfirmations int

	// ComputedAt - when the batch produced this row. Not part of identity.
	ComputedAt time.Time
}

// NewWardWeeklyScore builds a report card from resolved geography and the
// four category scores. Rank fields are assigned later by the Ranking.
func NewWardWeeklyScore(loc geo.WardLocation, week shared.WeekOfYear, categoryScores map[civic.PollCategory]Score) (*WardWeeklyScore, error) {
	if !loc.Pincode.IsValid() {
		return nil, ErrInvalidPincode
	}
	if !week.IsValid() {
		return nil, ErrInvalidWeek
	}

	s := &WardWeeklyScore{
		Pincode:          loc.Pincode,
		Ward:             loc.Ward,
		City:             loc.City,
		State:            loc.State,
		Week:             week,
		CleanlinessScore: categoryScores[civic.PollCategoryCleanliness],
		WaterScore:       categoryScores[civic.PollCategoryWater],
		RoadsScore:       categoryScores[civic.PollCategoryRoads],
		SafetyScore:      categoryScores[civic.PollCategorySafety],
	}
	s.OverallScore = s.computeOverall()
	return s, nil
}

// computeOverall applies the 30/30/20/20 weighting.
func (s *WardWeeklyScore) computeOverall() Score {
	weighted := cleanlinessWeight*float64(s.CleanlinessScore) +
		waterWeight*float64(s.WaterScore) +
		roadsWeight*float64(s.RoadsScore) +
		safetyWeight*float64(s.SafetyScore)
	return Score(math.Round(weighted))
}

// CategoryScore returns the score for one of the four categories.
func (s *WardWeeklyScore) CategoryScore(category civic.PollCategory) Score {
	switch category {
	case civic.PollCategoryCleanliness:
		return s.CleanlinessScore
	case civic.PollCategoryWater:
		return s.WaterScore
	case civic.PollCategoryRoads:
		return s.RoadsScore
	case civic.PollCategorySafety:
		return s.SafetyScore
	}
	return 0
}

// ApplyPreviousRank sets PrevRank and RankChange from the prior week's rank.
// found == false means the ward had no prior-week row and is treated as
// unchanged.
func (s *WardWeeklyScore) ApplyPreviousRank(prev Rank, found bool) {
	if !found {
		s.PrevRank = s.Rank
		s.RankChange = 0
		return
	}
	s.PrevRank = prev
	s.RankChange = RankChange(int(prev) - int(s.Rank))
}

// HasImproved reports whether the ward moved up since last week.
func (s *WardWeeklyScore) HasImproved() bool { return s.RankChange > 0 }

// String returns a short representation for logging.
func (s *WardWeeklyScore) String() string {
	return fmt.Sprintf("WardScore{%s %s, Overall: %d, Rank: %s (%s)}",
		s.Pincode, s.Week, s.OverallScore, s.Rank, s.RankChange)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidPincode - score row without a pincode.
	ErrInvalidPincode = errors.New("invalid pincode: cannot be empty")

	// ErrInvalidWeek - week outside 1..53 or non-positive year.
	ErrInvalidWeek = errors.New("invalid week of year")

	// ErrDuplicateWard - the same pincode was added to a ranking twice.
	ErrDuplicateWard = errors.New("ward already exists in ranking")

	// ErrNilScore - attempt to add a nil score row.
	ErrNilScore = errors.New("cannot add nil ward score")

	// ErrScoreNotFound - no persisted score row for the requested key.
	ErrScoreNotFound = errors.New("ward weekly score not found")
)
