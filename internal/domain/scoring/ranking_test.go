package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

func testScore(pincode string, overall Score) *WardWeeklyScore {
	return &WardWeeklyScore{
		Pincode:      shared.Pincode(pincode),
		Week:         shared.WeekOfYear{Week: 35, Year: 2026},
		OverallScore: overall,
	}
}

func TestRanking_AssignsDensePositions(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(testScore("110001", 70)))
	require.NoError(t, r.Add(testScore("110002", 90)))
	require.NoError(t, r.Add(testScore("110003", 80)))

	r.Rank()

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, shared.Pincode("110002"), all[0].Pincode)
	assert.Equal(t, Rank(1), all[0].Rank)
	assert.Equal(t, shared.Pincode("110003"), all[1].Pincode)
	assert.Equal(t, Rank(2), all[1].Rank)
	assert.Equal(t, shared.Pincode("110001"), all[2].Pincode)
	assert.Equal(t, Rank(3), all[2].Rank)
}

func TestRanking_TiesBreakByPincodeAscending(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(testScore("560001", 75)))
	require.NoError(t, r.Add(testScore("110001", 75)))
	require.NoError(t, r.Add(testScore("400001", 75)))

	r.Rank()

	all := r.All()
	assert.Equal(t, shared.Pincode("110001"), all[0].Pincode)
	assert.Equal(t, shared.Pincode("400001"), all[1].Pincode)
	assert.Equal(t, shared.Pincode("560001"), all[2].Pincode)
	// Ties still get distinct consecutive positions.
	assert.Equal(t, Rank(1), all[0].Rank)
	assert.Equal(t, Rank(2), all[1].Rank)
	assert.Equal(t, Rank(3), all[2].Rank)
}

func TestRanking_RejectsDuplicatePincode(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(testScore("110001", 70)))
	assert.ErrorIs(t, r.Add(testScore("110001", 80)), ErrDuplicateWard)
}

func TestRanking_RejectsNilScore(t *testing.T) {
	r := NewRanking()
	assert.ErrorIs(t, r.Add(nil), ErrNilScore)
}

func TestRanking_ApplyPreviousRanks(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(testScore("110001", 95))) // rank 1
	require.NoError(t, r.Add(testScore("110002", 85))) // rank 2
	require.NoError(t, r.Add(testScore("110003", 75))) // rank 3

	r.Rank()
	r.ApplyPreviousRanks(map[shared.Pincode]Rank{
		"110001": 7, // climbed from 7 to 1
		"110002": 1, // dropped from 1 to 2
		// 110003 is new this week
	})

	climber := r.GetByPincode("110001")
	assert.Equal(t, Rank(7), climber.PrevRank)
	assert.Equal(t, RankChange(6), climber.RankChange)
	assert.True(t, climber.HasImproved())
	assert.Equal(t, "up", climber.RankChange.Direction())

	dropper := r.GetByPincode("110002")
	assert.Equal(t, RankChange(-1), dropper.RankChange)
	assert.Equal(t, "down", dropper.RankChange.Direction())

	// A ward with no prior row reads as unchanged, not as a climb from zero.
	newcomer := r.GetByPincode("110003")
	assert.Equal(t, newcomer.Rank, newcomer.PrevRank)
	assert.Equal(t, RankChange(0), newcomer.RankChange)
	assert.Equal(t, "stable", newcomer.RankChange.Direction())
}

func TestRanking_Top(t *testing.T) {
	r := NewRanking()
	require.NoError(t, r.Add(testScore("110001", 60)))
	require.NoError(t, r.Add(testScore("110002", 90)))
	require.NoError(t, r.Add(testScore("110003", 80)))

	r.Rank()

	top := r.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, shared.Pincode("110002"), top[0].Pincode)
	assert.Equal(t, shared.Pincode("110003"), top[1].Pincode)

	assert.Len(t, r.Top(10), 3)
	assert.Nil(t, r.Top(0))
}

func TestWardWeeklyScore_OverallWeighting(t *testing.T) {
	s := &WardWeeklyScore{
		CleanlinessScore: 80,
		WaterScore:       60,
		RoadsScore:       100,
		SafetyScore:      40,
	}
	// 0.3*80 + 0.3*60 + 0.2*100 + 0.2*40 = 24+18+20+8 = 70
	assert.Equal(t, Score(70), s.computeOverall())
}

func TestRankChange_String(t *testing.T) {
	assert.Equal(t, "+6", RankChange(6).String())
	assert.Equal(t, "-2", RankChange(-2).String())
	assert.Equal(t, "±0", RankChange(0).String())
}
