package command

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neta-watch/ward-pulse/internal/domain/civic"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/pkg/logger"
	"github.com/neta-watch/ward-pulse/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD POLL RESPONSE
// ══════════════════════════════════════════════════════════════════════════════

// RecordPollResponseCommand is one citizen's answer to a daily poll.
type RecordPollResponseCommand struct {
	PollID   string
	Pincode  string
	Ward     string
	Response bool
}

// RecordPollResponseResult reports the stored response.
type RecordPollResponseResult struct {
	ResponseID string `json:"responseId"`
	Category   string `json:"category"`
}

// RecordPollResponseHandler validates and stores poll answers, the raw input
// of the weekly scoring run.
type RecordPollResponseHandler struct {
	polls     civic.DailyPollRepository
	responses civic.PollResponseWriter
	events    shared.EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewRecordPollResponseHandler creates the handler.
func NewRecordPollResponseHandler(
	polls civic.DailyPollRepository,
	responses civic.PollResponseWriter,
	events shared.EventPublisher,
	log *logger.Logger,
) *RecordPollResponseHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordPollResponseHandler{
		polls:     polls,
		responses: responses,
		events:    events,
		log:       log.With(logger.Component("record_poll_response")),
		now:       timeutil.Now,
	}
}

// Handle stores the response. The poll must exist; an empty pincode is
// accepted but the row will be skipped by aggregation, so it is rejected
// here to keep the signal usable.
func (h *RecordPollResponseHandler) Handle(ctx context.Context, cmd RecordPollResponseCommand) (*RecordPollResponseResult, error) {
	pincode := shared.Pincode(strings.TrimSpace(cmd.Pincode))
	if !pincode.IsValid() {
		return nil, shared.NewDomainError("civic", "record_response", shared.ErrValidation, "pincode is required")
	}

	poll, err := h.polls.GetByID(ctx, cmd.PollID)
	if err != nil {
		return nil, err
	}

	response := &civic.PollResponse{
		ID:        uuid.NewString(),
		PollID:    poll.ID,
		Pincode:   pincode,
		Ward:      strings.TrimSpace(cmd.Ward),
		Response:  cmd.Response,
		CreatedAt: h.now(),
	}
	if err := h.responses.Save(ctx, response); err != nil {
		return nil, err
	}

	h.log.Debug("poll response recorded",
		logger.String("poll_id", poll.ID),
		logger.Pincode(string(pincode)),
		logger.Category(string(poll.Category)))

	if h.events != nil {
		event := shared.NewPollResponseRecordedEvent(
			uuid.NewString(), response.ID, poll.ID, string(pincode), string(poll.Category), cmd.Response)
		if err := h.events.Publish(event); err != nil {
			h.log.Warn("failed to publish poll response event", logger.Err(err))
		}
	}

	return &RecordPollResponseResult{
		ResponseID: response.ID,
		Category:   string(poll.Category),
	}, nil
}
