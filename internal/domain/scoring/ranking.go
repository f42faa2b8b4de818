package scoring

import (
	"sort"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Ranking collects one week's ward scores and assigns ranks.
type Ranking struct {
	scores    []*WardWeeklyScore
	byPincode map[shared.Pincode]*WardWeeklyScore
}

// NewRanking creates an empty Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		scores:    make([]*WardWeeklyScore, 0),
		byPincode: make(map[shared.Pincode]*WardWeeklyScore),
	}
}

// Add appends a ward score (ranks are not assigned until Rank is called).
func (r *Ranking) Add(score *WardWeeklyScore) error {
	if score == nil {
		return ErrNilScore
	}
	if _, exists := r.byPincode[score.Pincode]; exists {
		return ErrDuplicateWard
	}
	r.scores = append(r.scores, score)
	r.byPincode[score.Pincode] = score
	return nil
}

// Rank sorts the wards by overall score descending and assigns gapless
// 1..N positions. Equal overall scores are ordered by pincode ascending so
// reruns on unchanged data produce identical rankings.
func (r *Ranking) Rank() {
	sort.Slice(r.scores, func(i, j int) bool {
		if r.scores[i].OverallScore != r.scores[j].OverallScore {
			return r.scores[i].OverallScore > r.scores[j].OverallScore
		}
		return r.scores[i].Pincode < r.scores[j].Pincode
	})

	for i, score := range r.scores {
		score.Rank = Rank(i + 1)
	}
}

// ApplyPreviousRanks sets PrevRank and RankChange on every ward from the
// previous week's persisted ranks. Wards absent from the map read as
// unchanged. Call after Rank.
func (r *Ranking) ApplyPreviousRanks(previous map[shared.Pincode]Rank) {
	for _, score := range r.scores {
		prev, found := previous[score.Pincode]
		score.ApplyPreviousRank(prev, found)
	}
}

// GetByPincode returns the score for a pincode, or nil.
func (r *Ranking) GetByPincode(pincode shared.Pincode) *WardWeeklyScore {
	return r.byPincode[pincode]
}

// Top returns the top-N wards. Call after Rank.
func (r *Ranking) Top(n int) []*WardWeeklyScore {
	if n <= 0 {
		return nil
	}
	if n > len(r.scores) {
		n = len(r.scores)
	}
	result := make([]*WardWeeklyScore, n)
	copy(result, r.scores[:n])
	return result
}

// All returns every score in rank order.
func (r *Ranking) All() []*WardWeeklyScore {
	result := make([]*WardWeeklyScore, len(r.scores))
	copy(result, r.scores)
	return result
}

// Count returns the number of wards in the ranking.
func (r *Ranking) Count() int {
	return len(r.scores)
}
