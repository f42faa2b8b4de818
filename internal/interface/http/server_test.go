package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neta-watch/ward-pulse/internal/application/command"
	"github.com/neta-watch/ward-pulse/internal/application/query"
	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKE STORAGE
// ══════════════════════════════════════════════════════════════════════════════

type stubResponseRepo struct {
	listErr error
	saved   []*civic.PollResponse
}

func (s *stubResponseRepo) ListSince(ctx context.Context, since time.Time) ([]*civic.PollResponse, error) {
	return nil, s.listErr
}

func (s *stubResponseRepo) Save(ctx context.Context, r *civic.PollResponse) error {
	s.saved = append(s.saved, r)
	return nil
}

type stubAlertRepo struct{}

func (stubAlertRepo) ListActiveSince(ctx context.Context, since time.Time) ([]*civic.Alert, error) {
	return nil, nil
}

type stubPollRepo struct {
	polls map[string]*civic.DailyPoll
}

func (s *stubPollRepo) GetByID(ctx context.Context, id string) (*civic.DailyPoll, error) {
	if poll, ok := s.polls[id]; ok {
		return poll, nil
	}
	return nil, civic.ErrPollNotFound
}

func (s *stubPollRepo) CategoriesByPollID(ctx context.Context) (map[string]civic.PollCategory, error) {
	return nil, nil
}

type stubDirectory struct{}

func (stubDirectory) Lookup(ctx context.Context, pincode shared.Pincode) (geo.WardLocation, error) {
	return geo.Placeholder(pincode), nil
}

type stubScoreRepo struct {
	rows []*scoring.WardWeeklyScore
	week shared.WeekOfYear
}

func (s *stubScoreRepo) UpsertAll(ctx context.Context, scores []*scoring.WardWeeklyScore) error {
	s.rows = scores
	return nil
}

func (s *stubScoreRepo) RanksForWeek(ctx context.Context, week shared.WeekOfYear) (map[shared.Pincode]scoring.Rank, error) {
	return map[shared.Pincode]scoring.Rank{}, nil
}

func (s *stubScoreRepo) GetByPincodeWeek(ctx context.Context, pincode shared.Pincode, week shared.WeekOfYear) (*scoring.WardWeeklyScore, error) {
	for _, row := range s.rows {
		if row.Pincode == pincode {
			return row, nil
		}
	}
	return nil, scoring.ErrScoreNotFound
}

func (s *stubScoreRepo) ListByWeek(ctx context.Context, week shared.WeekOfYear, limit, offset int) ([]*scoring.WardWeeklyScore, error) {
	return s.rows, nil
}

func (s *stubScoreRepo) LatestWeek(ctx context.Context) (shared.WeekOfYear, error) {
	if len(s.rows) == 0 {
		return shared.WeekOfYear{}, scoring.ErrScoreNotFound
	}
	return s.week, nil
}

func (s *stubScoreRepo) HistoryByPincode(ctx context.Context, pincode shared.Pincode, limit int) ([]*scoring.WardWeeklyScore, error) {
	var out []*scoring.WardWeeklyScore
	for _, row := range s.rows {
		if row.Pincode == pincode {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubScoreRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEST SERVER
// ══════════════════════════════════════════════════════════════════════════════

func newTestServer(t *testing.T, responses *stubResponseRepo, scores *stubScoreRepo, polls *stubPollRepo) *Server {
	t.Helper()

	if responses == nil {
		responses = &stubResponseRepo{}
	}
	if scores == nil {
		scores = &stubScoreRepo{}
	}
	if polls == nil {
		polls = &stubPollRepo{}
	}

	compute := command.NewComputeWeeklyScoresHandler(
		responses, stubAlertRepo{}, polls, stubDirectory{}, scores, nil, nil)
	record := command.NewRecordPollResponseHandler(polls, responses, nil, nil)

	cfg := DefaultConfig()
	return NewServer(cfg, Dependencies{
		ComputeScoresHandler:  compute,
		RecordResponseHandler: record,
		GetScoreboardHandler:  query.NewGetScoreboardHandler(scores, nil, time.Hour, nil),
		GetWardCardHandler:    query.NewGetWardCardHandler(scores, nil, time.Hour, nil),
		GetWardHistoryHandler: query.NewGetWardHistoryHandler(scores),
	})
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGER ENDPOINT
// ══════════════════════════════════════════════════════════════════════════════

func TestCalculateScores_EmptyWindow(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/v1/ward-scores/calculate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success        bool `json:"success"`
		WardsProcessed int  `json:"wardsProcessed"`
		WeekNumber     int  `json:"weekNumber"`
		Year           int  `json:"year"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 0, body.WardsProcessed)
	assert.NotZero(t, body.WeekNumber)
	assert.NotZero(t, body.Year)
}

func TestCalculateScores_StorageFailureReturns500(t *testing.T) {
	responses := &stubResponseRepo{listErr: errors.New("connection refused")}
	srv := newTestServer(t, responses, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/v1/ward-scores/calculate", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "connection refused")
}

func TestCalculateScores_Preflight(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ward-scores/calculate", nil)
	req.Header.Set("Origin", "https://admin.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCalculateScores_PreflightWithoutCORSMiddleware(t *testing.T) {
	scores := &stubScoreRepo{}
	compute := command.NewComputeWeeklyScoresHandler(
		&stubResponseRepo{}, stubAlertRepo{}, &stubPollRepo{}, stubDirectory{}, scores, nil, nil)

	cfg := DefaultConfig()
	cfg.EnableCORS = false
	srv := NewServer(cfg, Dependencies{ComputeScoresHandler: compute})

	// With the middleware disabled the explicit OPTIONS route answers, and it
	// returns the same 200 the middleware would.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ward-scores/calculate", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalculateScores_RequiresAPIKeyWhenConfigured(t *testing.T) {
	scores := &stubScoreRepo{}
	compute := command.NewComputeWeeklyScoresHandler(
		&stubResponseRepo{}, stubAlertRepo{}, &stubPollRepo{}, stubDirectory{}, scores, nil, nil)

	cfg := DefaultConfig()
	hash, err := handlers.HashAPIKey("secret-key")
	require.NoError(t, err)
	cfg.APIKeyHashes = []string{hash}

	srv := NewServer(cfg, Dependencies{ComputeScoresHandler: compute})

	rec := doRequest(srv, http.MethodPost, "/api/v1/ward-scores/calculate", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ward-scores/calculate", nil)
	req.Header.Set("X-API-Key", "secret-key")
	ok := httptest.NewRecorder()
	srv.Router().ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOREBOARD ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

func seededScores() *stubScoreRepo {
	week := shared.WeekOfYear{Week: 35, Year: 2026}
	return &stubScoreRepo{
		week: week,
		rows: []*scoring.WardWeeklyScore{
			{Pincode: "110002", Ward: "Darya Ganj", Week: week, OverallScore: 82, Rank: 1, PrevRank: 3, RankChange: 2},
			{Pincode: "110001", Ward: "Connaught Place", Week: week, OverallScore: 74, Rank: 2, PrevRank: 1, RankChange: -1},
		},
	}
}

func TestGetScoreboard(t *testing.T) {
	srv := newTestServer(t, nil, seededScores(), nil)

	rec := doRequest(srv, http.MethodGet, "/api/v1/ward-scores?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []struct {
			Pincode       string `json:"pincode"`
			Rank          int    `json:"rank"`
			RankChange    int    `json:"rank_change"`
			RankDirection string `json:"rank_direction"`
		} `json:"entries"`
		WeekNumber int `json:"week_number"`
		Year       int `json:"year"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 2)
	assert.Equal(t, "110002", body.Entries[0].Pincode)
	assert.Equal(t, 1, body.Entries[0].Rank)
	assert.Equal(t, "up", body.Entries[0].RankDirection)
	assert.Equal(t, 35, body.WeekNumber)
	assert.Equal(t, 2026, body.Year)
}

func TestGetScoreboard_EmptyBeforeFirstRun(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := doRequest(srv, http.MethodGet, "/api/v1/ward-scores", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []json.RawMessage `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Entries)
}

func TestGetWardCard(t *testing.T) {
	srv := newTestServer(t, nil, seededScores(), nil)

	rec := doRequest(srv, http.MethodGet, "/api/v1/ward-scores/110001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Card struct {
			Pincode string `json:"pincode"`
			Ward    string `json:"ward"`
			Rank    int    `json:"rank"`
		} `json:"card"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "110001", body.Card.Pincode)
	assert.Equal(t, "Connaught Place", body.Card.Ward)
	assert.Equal(t, 2, body.Card.Rank)
}

func TestGetWardCard_UnknownPincode(t *testing.T) {
	srv := newTestServer(t, nil, seededScores(), nil)

	rec := doRequest(srv, http.MethodGet, "/api/v1/ward-scores/560001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetWardHistory(t *testing.T) {
	srv := newTestServer(t, nil, seededScores(), nil)

	rec := doRequest(srv, http.MethodGet, "/api/v1/ward-scores/110001/history?weeks=4", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Pincode string            `json:"pincode"`
		Weeks   []json.RawMessage `json:"weeks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "110001", body.Pincode)
	assert.Len(t, body.Weeks, 1)
}

// ══════════════════════════════════════════════════════════════════════════════
// POLL RESPONSE INTAKE
// ══════════════════════════════════════════════════════════════════════════════

func TestRecordPollResponse(t *testing.T) {
	responses := &stubResponseRepo{}
	polls := &stubPollRepo{polls: map[string]*civic.DailyPoll{
		"p1": {ID: "p1", Category: civic.PollCategoryCleanliness, Question: "Was garbage collected today?"},
	}}
	srv := newTestServer(t, responses, nil, polls)

	rec := doRequest(srv, http.MethodPost, "/api/v1/polls/p1/responses",
		`{"pincode": "110001", "response": false}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ResponseID string `json:"responseId"`
		Category   string `json:"category"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ResponseID)
	assert.Equal(t, "cleanliness", body.Category)
	assert.Len(t, responses.saved, 1)
}

func TestRecordPollResponse_UnknownPoll(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/v1/polls/missing/responses",
		`{"pincode": "110001", "response": true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordPollResponse_InvalidBody(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/v1/polls/p1/responses", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & MISC
// ══════════════════════════════════════════════════════════════════════════════

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodGet, "/ready", "").Code)
}

func TestUnknownMethodRejected(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := doRequest(srv, http.MethodDelete, "/api/v1/ward-scores", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Method not allowed", body["error"])

	// Root-level routes go through the same handler.
	rec = doRequest(srv, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))

	rl.Stop()
	rl.Stop()

	select {
	case <-rl.done:
	default:
		t.Fatal("cleanup goroutine was not signalled to stop")
	}

	// Counting still works after the background cleanup is gone.
	assert.True(t, rl.Allow("10.0.0.1"))
}
