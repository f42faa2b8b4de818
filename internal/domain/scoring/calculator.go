// Package scoring contains the weekly ward scoring domain: the per-category
// score calculator, the ranked weekly report card, and the repository
// contracts the batch run depends on.
//
// Scores are published as "higher is better": 100 means no reported problems,
// 0 means every signal flagged one. Internally the calculator works with a
// "dirt score" where higher is worse, then inverts it.
package scoring

import (
	"fmt"
	"math"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Score is a category or overall ward score in [0, 100].
type Score int

// IsValid reports whether the score is inside the published range.
func (s Score) IsValid() bool {
	return s >= 0 && s <= 100
}

// String returns e.g. "72/100".
func (s Score) String() string {
	return fmt.Sprintf("%d/100", int(s))
}

// NeutralScore is returned when a category has no signal at all:
// no poll responses and no alerts means we assume average conditions
// rather than rewarding silence with a perfect score.
const NeutralScore Score = 50

// Signal weights for the dirt score. Poll responses are the strongest signal
// because they are rate-limited to one per citizen per day; raw alert counts
// and upvote confirmations are weaker, noisier signals.
const (
	pollWeight         = 0.6
	alertWeight        = 0.3
	confirmationWeight = 0.1
)

// maxNormalizedRate caps the per-1000-users alert and confirmation rates so a
// pincode with few poll responses but many alerts cannot dominate its score.
const maxNormalizedRate = 100.0

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY SIGNALS
// ══════════════════════════════════════════════════════════════════════════════

// CategorySignals holds the raw weekly inputs for one (pincode, category).
type CategorySignals struct {
	// Responses - poll answers for this category. true = no problem,
	// false = problem reported.
	Responses []bool

	// AlertCount - number of active alerts in this category.
	AlertCount int

	// ConfirmationCount - sum of upvotes across those alerts.
	ConfirmationCount int

	// TotalResponses - total poll responses for the pincode across all
	// categories, used as the population proxy when normalizing alert rates.
	TotalResponses int
}

// HasSignal reports whether there is any input to score.
func (s CategorySignals) HasSignal() bool {
	return len(s.Responses) > 0 || s.AlertCount > 0
}

// ProblemCount returns the number of "problem" poll answers.
func (s CategorySignals) ProblemCount() int {
	count := 0
	for _, r := range s.Responses {
		if !r {
			count++
		}
	}
	return count
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// CalculateScore converts the raw signals for one (pincode, category, week)
// into a score in [0, 100], where 100 means no reported problems.
//
// With no signal at all the neutral score 50 is returned. Otherwise a dirt
// score is built from three weighted components:
//
//	dirt = 0.6·pollBadRate + 0.3·min(alertRate, 100) + 0.1·min(confirmRate, 100)
//
// where pollBadRate is the percentage of "problem" answers and the alert and
// confirmation rates are normalized per 1000 active users using the pincode's
// total response count as the population proxy. The published score is
// round(clamp(100 − dirt, 0, 100)).
func CalculateScore(signals CategorySignals) Score {
	if !signals.HasSignal() {
		return NeutralScore
	}

	pollBadRate := 0.0
	if len(signals.Responses) > 0 {
		pollBadRate = float64(signals.ProblemCount()) / float64(len(signals.Responses)) * 100
	}

	alertRate := normalizeRate(signals.AlertCount, signals.TotalResponses)
	confirmationRate := normalizeRate(signals.ConfirmationCount, signals.TotalResponses)

	dirt := pollWeight*pollBadRate +
		alertWeight*math.Min(alertRate, maxNormalizedRate) +
		confirmationWeight*math.Min(confirmationRate, maxNormalizedRate)

	return Score(math.Round(clamp(100-dirt, 0, 100)))
}

// normalizeRate converts a raw count to a per-1000-active-users rate.
// When the pincode has no poll responses to use as a population proxy,
// each raw count is worth 10 points instead.
func normalizeRate(count, totalResponses int) float64 {
	if totalResponses > 0 {
		return float64(count) / float64(totalResponses) * 1000
	}
	return float64(count) * 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
