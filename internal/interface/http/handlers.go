package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/neta-watch/ward-pulse/internal/application/command"
	"github.com/neta-watch/ward-pulse/internal/application/query"
	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/scoring"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATCH TRIGGER
// ══════════════════════════════════════════════════════════════════════════════

// calculateScoresResponse is the flat shape the admin panel parses.
type calculateScoresResponse struct {
	Success        bool `json:"success"`
	WardsProcessed int  `json:"wardsProcessed"`
	WeekNumber     int  `json:"weekNumber"`
	Year           int  `json:"year"`
}

// handleCalculateScores runs the weekly scoring batch synchronously and
// reports the outcome. Any failure maps to a plain 500; partial progress is
// never committed, so the caller can simply retry.
func (s *Server) handleCalculateScores(w http.ResponseWriter, r *http.Request) {
	if s.deps.ComputeScoresHandler == nil {
		writeError(w, http.StatusServiceUnavailable, "Scoring is not configured")
		return
	}

	result, err := s.deps.ComputeScoresHandler.Handle(r.Context())
	if err != nil {
		s.log.Error("scoring run failed",
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, calculateScoresResponse{
		Success:        true,
		WardsProcessed: result.WardsProcessed,
		WeekNumber:     result.WeekNumber,
		Year:           result.Year,
	})
}

// handlePreflight answers the explicit OPTIONS route for the trigger with an
// empty 200, matching what the CORS middleware returns when it intercepts the
// preflight itself. The middleware has already written the Access-Control-*
// headers.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleMethodNotAllowed answers requests that match a route path with an
// unsupported method.
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOREBOARD READS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetScoreboard returns the latest week's ranked scoreboard.
// Query parameters: limit (default 50, max 200), offset (default 0).
func (s *Server) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	limit := getQueryParamInt(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := getQueryParamInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	// The query handler maps "no scoring run yet" to an empty board, so any
	// error surfacing here is a real failure.
	result, err := s.deps.GetScoreboardHandler.Handle(r.Context(), query.GetScoreboardQuery{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.log.Error("scoreboard query failed", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to load scoreboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetWardCard returns the latest score card for one pincode.
func (s *Server) handleGetWardCard(w http.ResponseWriter, r *http.Request) {
	pincode := mux.Vars(r)["pincode"]

	result, err := s.deps.GetWardCardHandler.Handle(r.Context(), query.GetWardCardQuery{
		Pincode: pincode,
	})
	if err != nil {
		if errors.Is(err, scoring.ErrScoreNotFound) {
			writeError(w, http.StatusNotFound, "No score found for this pincode")
			return
		}
		if errors.Is(err, shared.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("ward card query failed",
			logger.Err(err),
			logger.String("pincode", pincode))
		writeError(w, http.StatusInternalServerError, "Failed to load ward card")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetWardHistory returns past weekly scores for one pincode, newest
// first. Query parameter: weeks (default 12, max 78).
func (s *Server) handleGetWardHistory(w http.ResponseWriter, r *http.Request) {
	pincode := mux.Vars(r)["pincode"]
	weeks := getQueryParamInt(r, "weeks", 12)
	if weeks < 1 || weeks > 78 {
		weeks = 12
	}

	result, err := s.deps.GetWardHistoryHandler.Handle(r.Context(), query.GetWardHistoryQuery{
		Pincode: pincode,
		Limit:   weeks,
	})
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("ward history query failed",
			logger.Err(err),
			logger.String("pincode", pincode))
		writeError(w, http.StatusInternalServerError, "Failed to load ward history")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// CIVIC SIGNAL INTAKE
// ══════════════════════════════════════════════════════════════════════════════

// recordPollResponseRequest is the POST body of a poll answer.
type recordPollResponseRequest struct {
	Pincode  string `json:"pincode"`
	Ward     string `json:"ward"`
	Response bool   `json:"response"`
}

// handleRecordPollResponse stores one citizen's answer to a daily poll.
func (s *Server) handleRecordPollResponse(w http.ResponseWriter, r *http.Request) {
	pollID := mux.Vars(r)["pollID"]

	var req recordPollResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.deps.RecordResponseHandler.Handle(r.Context(), command.RecordPollResponseCommand{
		PollID:   pollID,
		Pincode:  req.Pincode,
		Ward:     req.Ward,
		Response: req.Response,
	})
	if err != nil {
		if errors.Is(err, civic.ErrPollNotFound) {
			writeError(w, http.StatusNotFound, "Poll not found")
			return
		}
		if errors.Is(err, shared.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("record poll response failed",
			logger.Err(err),
			logger.String("poll_id", pollID))
		writeError(w, http.StatusInternalServerError, "Failed to record response")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth returns full health status with dependency checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	status.Uptime = s.Uptime().String()

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleReady reports whether the service can accept traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"ready":   false,
			"message": status.Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true})
}

// handleLive is a bare liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "ward-pulse",
		"status":  "running",
		"endpoints": []string{
			"POST /api/v1/ward-scores/calculate",
			"GET  /api/v1/ward-scores",
			"GET  /api/v1/ward-scores/{pincode}",
			"GET  /api/v1/ward-scores/{pincode}/history",
			"POST /api/v1/polls/{pollID}/responses",
			"GET  /health",
		},
	})
}
