// Package command contains the application-layer write operations.
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/pkg/logger"
	"github.com/neta-watch/ward-pulse/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTE WEEKLY SCORES
// ══════════════════════════════════════════════════════════════════════════════

// ComputeWeeklyScoresHandler runs the weekly ward scoring batch: it aggregates
// the trailing week of poll responses and active alerts by pincode, scores the
// four categories per ward, ranks the wards, applies previous-week rank deltas,
// and upserts the resulting report cards.
//
// The run is all-or-nothing at the request level: any storage read or the
// final upsert failing aborts the run with no rows written. Only the
// per-pincode geography lookup degrades gracefully (placeholder ward names).
// Overlapping runs for the same week are last-write-wins on the upsert.
type ComputeWeeklyScoresHandler struct {
	pollResponses civic.PollResponseRepository
	alerts        civic.AlertRepository
	polls         civic.DailyPollRepository
	directory     geo.Directory
	scores        scoring.WardScoreRepository
	events        shared.EventPublisher
	log           *logger.Logger

	// window is the trailing aggregation window (7 days in production).
	window time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// ComputeResult summarizes a completed scoring run.
type ComputeResult struct {
	WardsProcessed int           `json:"wardsProcessed"`
	WeekNumber     int           `json:"weekNumber"`
	Year           int           `json:"year"`
	Duration       time.Duration `json:"-"`
}

// DefaultWindow is the trailing aggregation window for production runs.
const DefaultWindow = 7 * 24 * time.Hour

// topBoardSize is the scoreboard slice that counts as "the top" for the
// entered-top event.
const topBoardSize = 10

// NewComputeWeeklyScoresHandler wires the scoring batch.
func NewComputeWeeklyScoresHandler(
	pollResponses civic.PollResponseRepository,
	alerts civic.AlertRepository,
	polls civic.DailyPollRepository,
	directory geo.Directory,
	scores scoring.WardScoreRepository,
	events shared.EventPublisher,
	log *logger.Logger,
) *ComputeWeeklyScoresHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ComputeWeeklyScoresHandler{
		pollResponses: pollResponses,
		alerts:        alerts,
		polls:         polls,
		directory:     directory,
		scores:        scores,
		events:        events,
		log:           log.With(logger.Component("compute_weekly_scores")),
		window:        DefaultWindow,
		now:           timeutil.Now,
	}
}

// WithClock overrides the clock. Used by tests to freeze the scoring week.
func (h *ComputeWeeklyScoresHandler) WithClock(now func() time.Time) *ComputeWeeklyScoresHandler {
	h.now = now
	return h
}

// WithWindow overrides the trailing aggregation window.
func (h *ComputeWeeklyScoresHandler) WithWindow(window time.Duration) *ComputeWeeklyScoresHandler {
	h.window = window
	return h
}

// wardAccumulator collects one pincode's raw signals for the week.
type wardAccumulator struct {
	responses     map[civic.PollCategory][]bool
	alertCounts   map[civic.PollCategory]int
	confirmations map[civic.PollCategory]int

	totalResponses     int
	totalAlerts        int
	totalConfirmations int
}

func newWardAccumulator() *wardAccumulator {
	return &wardAccumulator{
		responses:     make(map[civic.PollCategory][]bool),
		alertCounts:   make(map[civic.PollCategory]int),
		confirmations: make(map[civic.PollCategory]int),
	}
}

// Handle executes one scoring run.
func (h *ComputeWeeklyScoresHandler) Handle(ctx context.Context) (*ComputeResult, error) {
	startedAt := time.Now()
	now := h.now()
	weekNum, year := timeutil.WeekOf(now)
	week := shared.WeekOfYear{Week: weekNum, Year: year}
	since := timeutil.TrailingWindow(now, h.window)

	h.log.Info("starting weekly score computation",
		logger.Week(week.Week, week.Year),
		logger.Time("window_start", since),
	)

	// Preload the poll→category map in one query instead of resolving each
	// response separately.
	categories, err := h.polls.CategoriesByPollID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load poll categories: %w", err)
	}

	responses, err := h.pollResponses.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load poll responses: %w", err)
	}

	alerts, err := h.alerts.ListActiveSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	wards := h.accumulate(responses, alerts, categories)
	if len(wards) == 0 {
		h.log.Info("no signals in window, nothing to score", logger.Week(week.Week, week.Year))
		return &ComputeResult{WeekNumber: week.Week, Year: week.Year}, nil
	}

	ranking, err := h.score(ctx, wards, week)
	if err != nil {
		return nil, err
	}

	previous, err := h.scores.RanksForWeek(ctx, week.Previous())
	if err != nil {
		return nil, fmt.Errorf("load previous ranks: %w", err)
	}
	ranking.ApplyPreviousRanks(previous)

	rows := ranking.All()
	if err := h.scores.UpsertAll(ctx, rows); err != nil {
		return nil, fmt.Errorf("persist ward scores: %w", err)
	}

	result := &ComputeResult{
		WardsProcessed: len(rows),
		WeekNumber:     week.Week,
		Year:           week.Year,
		Duration:       time.Since(startedAt),
	}

	h.publishEvents(rows, week, result)

	h.log.Info("weekly score computation completed",
		logger.Week(week.Week, week.Year),
		logger.Int("wards_processed", result.WardsProcessed),
		logger.Latency(result.Duration),
	)
	return result, nil
}

// accumulate groups the raw signals by pincode. Rows without a pincode are
// skipped; responses referencing an unknown poll are skipped too.
func (h *ComputeWeeklyScoresHandler) accumulate(
	responses []*civic.PollResponse,
	alerts []*civic.Alert,
	categories map[string]civic.PollCategory,
) map[shared.Pincode]*wardAccumulator {
	wards := make(map[shared.Pincode]*wardAccumulator)

	acc := func(pincode shared.Pincode) *wardAccumulator {
		w, ok := wards[pincode]
		if !ok {
			w = newWardAccumulator()
			wards[pincode] = w
		}
		return w
	}

	skippedResponses := 0
	for _, r := range responses {
		if !r.HasPincode() {
			continue
		}
		category, ok := categories[r.PollID]
		if !ok {
			skippedResponses++
			continue
		}
		w := acc(r.Pincode)
		w.responses[category] = append(w.responses[category], r.Response)
		w.totalResponses++
	}
	if skippedResponses > 0 {
		h.log.Debug("skipped responses with unknown poll", logger.Int("count", skippedResponses))
	}

	for _, a := range alerts {
		if !a.HasPincode() {
			continue
		}
		w := acc(a.Pincode)
		w.totalAlerts++
		w.totalConfirmations += a.UpvoteCount
		if category, ok := a.ScoringCategory(); ok {
			w.alertCounts[category]++
			w.confirmations[category] += a.UpvoteCount
		}
	}

	return wards
}

// score resolves each pincode's geography and computes its four category
// scores. Directory failures degrade to placeholder locations and never abort
// the run.
func (h *ComputeWeeklyScoresHandler) score(
	ctx context.Context,
	wards map[shared.Pincode]*wardAccumulator,
	week shared.WeekOfYear,
) (*scoring.Ranking, error) {
	ranking := scoring.NewRanking()
	computedAt := time.Now().UTC()

	for pincode, w := range wards {
		loc, err := h.directory.Lookup(ctx, pincode)
		if err != nil {
			h.log.Warn("pincode lookup failed, using placeholder",
				logger.Pincode(pincode.String()),
				logger.Err(err),
			)
			loc = geo.Placeholder(pincode)
		}

		categoryScores := make(map[civic.PollCategory]scoring.Score, len(civic.AllPollCategories))
		for _, category := range civic.AllPollCategories {
			categoryScores[category] = scoring.CalculateScore(scoring.CategorySignals{
				Responses:         w.responses[category],
				AlertCount:        w.alertCounts[category],
				ConfirmationCount: w.confirmations[category],
				TotalResponses:    w.totalResponses,
			})
		}

		row, err := scoring.NewWardWeeklyScore(loc, week, categoryScores)
		if err != nil {
			return nil, fmt.Errorf("build score row for %s: %w", pincode, err)
		}
		row.TotalResponses = w.totalResponses
		row.TotalAlerts = w.totalAlerts
		row.TotalConfirmations = w.totalConfirmations
		row.ComputedAt = computedAt

		if err := ranking.Add(row); err != nil {
			return nil, fmt.Errorf("add score row for %s: %w", pincode, err)
		}
	}

	ranking.Rank()
	return ranking, nil
}

// publishEvents emits the run summary and per-ward rank movements.
// Event delivery failures are logged, never propagated: the rows are already
// persisted by the time events fire.
func (h *ComputeWeeklyScoresHandler) publishEvents(rows []*scoring.WardWeeklyScore, week shared.WeekOfYear, result *ComputeResult) {
	if h.events == nil {
		return
	}

	event := shared.NewScoresComputedEvent(uuid.NewString(), week.Week, week.Year, result.WardsProcessed, result.Duration)
	if err := h.events.Publish(event); err != nil {
		h.log.Error("failed to publish scores computed event", logger.Err(err))
	}

	for _, row := range rows {
		if row.RankChange == 0 {
			continue
		}
		event := shared.NewWardRankChangedEvent(
			uuid.NewString(),
			row.Pincode.String(),
			row.Ward,
			int(row.PrevRank),
			int(row.Rank),
			week.Week,
			week.Year,
		)
		if err := h.events.Publish(event); err != nil {
			h.log.Error("failed to publish rank change event",
				logger.Pincode(row.Pincode.String()),
				logger.Err(err),
			)
		}

		if int(row.Rank) <= topBoardSize && int(row.PrevRank) > topBoardSize {
			entered := shared.NewWardEnteredTopEvent(
				uuid.NewString(),
				row.Pincode.String(),
				row.Ward,
				int(row.Rank),
				topBoardSize,
				week.Week,
				week.Year,
			)
			if err := h.events.Publish(entered); err != nil {
				h.log.Error("failed to publish entered top event",
					logger.Pincode(row.Pincode.String()),
					logger.Err(err),
				)
			}
		}
	}
}
