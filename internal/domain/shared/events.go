package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven parts of the service.
// Each event represents something significant that happened in the domain.
const (
	// Civic signal events
	EventPollResponseRecorded EventType = "civic.poll_response_recorded"
	EventAlertReported        EventType = "civic.alert_reported"
	EventAlertConfirmed       EventType = "civic.alert_confirmed"
	EventAlertResolved        EventType = "civic.alert_resolved"

	// Scoring events
	EventScoresComputed   EventType = "scoring.scores_computed"
	EventWardRankChanged  EventType = "scoring.ward_rank_changed"
	EventWardEnteredTop   EventType = "scoring.ward_entered_top"
	EventScoreComputeFail EventType = "scoring.compute_failed"

	// System events
	EventCacheWarmed     EventType = "system.cache_warmed"
	EventCleanupComplete EventType = "system.cleanup_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// EventID returns the unique identifier of this event instance.
	EventID() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the identifier of the aggregate the event belongs to
	// (a pincode for ward events, empty for system-wide events).
	AggregateID() string
}

// BaseEvent provides common event fields. Embed it in concrete events.
type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Aggregate   string    `json:"aggregate_id,omitempty"`
	OccurredAtT time.Time `json:"occurred_at"`
}

// EventType returns the type of the event.
func (e BaseEvent) EventType() EventType { return e.Type }

// EventID returns the unique identifier of this event instance.
func (e BaseEvent) EventID() string { return e.ID }

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time { return e.OccurredAtT }

// AggregateID returns the aggregate identifier.
func (e BaseEvent) AggregateID() string { return e.Aggregate }

// NewBaseEvent creates a BaseEvent with the given type and aggregate.
func NewBaseEvent(id string, eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          id,
		Type:        eventType,
		Aggregate:   aggregateID,
		OccurredAtT: time.Now().UTC(),
	}
}

// EventHandler processes a single domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not propagated
	// to the publisher.
	Handle(event Event) error

	// Name returns the handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(event Event) error
}

// Handle calls the wrapped function.
func (f EventHandlerFunc) Handle(event Event) error { return f.Fn(event) }

// Name returns the handler name.
func (f EventHandlerFunc) Name() string { return f.HandlerName }

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// MarshalEvent serializes an event for logging or transport.
func MarshalEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONCRETE EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// ScoresComputedEvent is published after a successful weekly scoring run.
type ScoresComputedEvent struct {
	BaseEvent
	WeekNumber     int           `json:"week_number"`
	Year           int           `json:"year"`
	WardsProcessed int           `json:"wards_processed"`
	Duration       time.Duration `json:"duration"`
}

// NewScoresComputedEvent creates a ScoresComputedEvent.
func NewScoresComputedEvent(id string, week, year, wards int, duration time.Duration) *ScoresComputedEvent {
	return &ScoresComputedEvent{
		BaseEvent:      NewBaseEvent(id, EventScoresComputed, ""),
		WeekNumber:     week,
		Year:           year,
		WardsProcessed: wards,
		Duration:       duration,
	}
}

// PollResponseRecordedEvent is published when a citizen answers a daily poll.
type PollResponseRecordedEvent struct {
	BaseEvent
	ResponseID string `json:"response_id"`
	PollID     string `json:"poll_id"`
	Pincode    string `json:"pincode"`
	Category   string `json:"category"`
	Response   bool   `json:"response"`
}

// NewPollResponseRecordedEvent creates a PollResponseRecordedEvent.
func NewPollResponseRecordedEvent(id, responseID, pollID, pincode, category string, response bool) *PollResponseRecordedEvent {
	return &PollResponseRecordedEvent{
		BaseEvent:  NewBaseEvent(id, EventPollResponseRecorded, pincode),
		ResponseID: responseID,
		PollID:     pollID,
		Pincode:    pincode,
		Category:   category,
		Response:   response,
	}
}

// WardRankChangedEvent is published for each ward whose rank moved between weeks.
type WardRankChangedEvent struct {
	BaseEvent
	Pincode    string `json:"pincode"`
	Ward       string `json:"ward"`
	OldRank    int    `json:"old_rank"`
	NewRank    int    `json:"new_rank"`
	RankChange int    `json:"rank_change"`
	WeekNumber int    `json:"week_number"`
	Year       int    `json:"year"`
}

// NewWardRankChangedEvent creates a WardRankChangedEvent.
func NewWardRankChangedEvent(id, pincode, ward string, oldRank, newRank, week, year int) *WardRankChangedEvent {
	return &WardRankChangedEvent{
		BaseEvent:  NewBaseEvent(id, EventWardRankChanged, pincode),
		Pincode:    pincode,
		Ward:       ward,
		OldRank:    oldRank,
		NewRank:    newRank,
		RankChange: oldRank - newRank,
		WeekNumber: week,
		Year:       year,
	}
}

// WardEnteredTopEvent is published when a ward moves into the top of the
// scoreboard from outside it. Wards new to the board do not trigger it.
type WardEnteredTopEvent struct {
	BaseEvent
	Pincode    string `json:"pincode"`
	Ward       string `json:"ward"`
	Rank       int    `json:"rank"`
	TopSize    int    `json:"top_size"`
	WeekNumber int    `json:"week_number"`
	Year       int    `json:"year"`
}

// NewWardEnteredTopEvent creates a WardEnteredTopEvent.
func NewWardEnteredTopEvent(id, pincode, ward string, rank, topSize, week, year int) *WardEnteredTopEvent {
	return &WardEnteredTopEvent{
		BaseEvent:  NewBaseEvent(id, EventWardEnteredTop, pincode),
		Pincode:    pincode,
		Ward:       ward,
		Rank:       rank,
		TopSize:    topSize,
		WeekNumber: week,
		Year:       year,
	}
}
