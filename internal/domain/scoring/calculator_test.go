package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateScore_NoSignal(t *testing.T) {
	score := CalculateScore(CategorySignals{})
	assert.Equal(t, NeutralScore, score)
}

func TestCalculateScore_AllClean(t *testing.T) {
	// Every answer says "no problem", no alerts: perfect score.
	score := CalculateScore(CategorySignals{
		Responses:      []bool{true, true, true, true},
		TotalResponses: 4,
	})
	assert.Equal(t, Score(100), score)
}

func TestCalculateScore_AllProblems(t *testing.T) {
	// Every answer flags a problem: poll component maxes out at 60 dirt,
	// leaving 100-60 = 40.
	score := CalculateScore(CategorySignals{
		Responses:      []bool{false, false, false, false},
		TotalResponses: 4,
	})
	assert.Equal(t, Score(40), score)
}

func TestCalculateScore_MixedResponses(t *testing.T) {
	// 2 of 10 problem answers: dirt = 0.6*20 = 12, score 88.
	responses := make([]bool, 10)
	for i := range responses {
		responses[i] = i >= 2
	}
	score := CalculateScore(CategorySignals{
		Responses:      responses,
		TotalResponses: 10,
	})
	assert.Equal(t, Score(88), score)
}

func TestCalculateScore_AlertsOnly(t *testing.T) {
	// No poll responses anywhere: each alert is worth 10 rate points,
	// 2 alerts -> rate 20, dirt = 0.3*20 = 6.
	score := CalculateScore(CategorySignals{
		AlertCount: 2,
	})
	assert.Equal(t, Score(94), score)
}

func TestCalculateScore_AlertRateIsCapped(t *testing.T) {
	// A flood of alerts in a low-response pincode cannot push the alert
	// component past 0.3*100 = 30 dirt.
	score := CalculateScore(CategorySignals{
		Responses:         []bool{true},
		AlertCount:        500,
		ConfirmationCount: 500,
		TotalResponses:    1,
	})
	// dirt = 0.6*0 + 0.3*100 + 0.1*100 = 40
	assert.Equal(t, Score(60), score)
}

func TestCalculateScore_NormalizedAlertRate(t *testing.T) {
	// 1 alert across 100 responses = 10 per 1000 users.
	// dirt = 0.3*10 = 3.
	responses := make([]bool, 100)
	for i := range responses {
		responses[i] = true
	}
	score := CalculateScore(CategorySignals{
		Responses:      responses,
		AlertCount:     1,
		TotalResponses: 100,
	})
	assert.Equal(t, Score(97), score)
}

func TestCalculateScore_AlwaysInRange(t *testing.T) {
	cases := []CategorySignals{
		{},
		{Responses: []bool{false}},
		{Responses: []bool{false}, AlertCount: 1000, ConfirmationCount: 1000, TotalResponses: 1},
		{AlertCount: 99999},
		{Responses: []bool{true, false, true}, TotalResponses: 3},
	}
	for _, signals := range cases {
		score := CalculateScore(signals)
		assert.True(t, score.IsValid(), "score %d out of range for %+v", score, signals)
	}
}

func TestCategorySignals_ProblemCount(t *testing.T) {
	signals := CategorySignals{Responses: []bool{true, false, false, true, false}}
	assert.Equal(t, 3, signals.ProblemCount())
}

func TestScore_String(t *testing.T) {
	assert.Equal(t, "72/100", Score(72).String())
}
