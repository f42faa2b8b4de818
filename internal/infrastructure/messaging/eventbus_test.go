package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (h *recordingHandler) Handle(event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) Name() string { return "recording" }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func syncBus() *InMemoryEventBus {
	cfg := DefaultConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_DeliversToTypeSubscribers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	scored := &recordingHandler{}
	ranked := &recordingHandler{}
	require.NoError(t, bus.Subscribe(shared.EventScoresComputed, scored))
	require.NoError(t, bus.Subscribe(shared.EventWardRankChanged, ranked))

	event := shared.NewScoresComputedEvent("e1", 35, 2026, 12, time.Second)
	require.NoError(t, bus.Publish(event))

	assert.Equal(t, 1, scored.count())
	assert.Equal(t, 0, ranked.count())
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	all := &recordingHandler{}
	require.NoError(t, bus.SubscribeAll(all))

	require.NoError(t, bus.Publish(shared.NewScoresComputedEvent("e1", 35, 2026, 1, 0)))
	require.NoError(t, bus.Publish(shared.NewWardRankChangedEvent("e2", "110001", "Connaught Place", 5, 2, 35, 2026)))

	assert.Equal(t, 2, all.count())
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	failing := &recordingHandler{err: errors.New("handler broke")}
	require.NoError(t, bus.Subscribe(shared.EventScoresComputed, failing))

	// Rows are already persisted when events fire, so publishers never see
	// handler failures.
	err := bus.Publish(shared.NewScoresComputedEvent("e1", 35, 2026, 1, 0))
	assert.NoError(t, err)
	assert.Equal(t, 1, failing.count())
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AsyncMode = true
	bus := NewInMemoryEventBus(cfg)

	h := &recordingHandler{}
	require.NoError(t, bus.Subscribe(shared.EventScoresComputed, h))
	require.NoError(t, bus.Publish(shared.NewScoresComputedEvent("e1", 35, 2026, 1, 0)))

	// Close drains in-flight handlers.
	require.NoError(t, bus.Close())
	assert.Equal(t, 1, h.count())
}

func TestEventBus_RejectsNilArguments(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventScoresComputed, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}

func TestEventBus_ClosedBusRefusesPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewScoresComputedEvent("e1", 35, 2026, 1, 0))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBus_Metrics(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventScoresComputed, &recordingHandler{}))
	require.NoError(t, bus.Publish(shared.NewScoresComputedEvent("e1", 35, 2026, 1, 0)))
	require.NoError(t, bus.Publish(shared.NewScoresComputedEvent("e2", 35, 2026, 1, 0)))

	assert.Equal(t, int64(2), bus.Metrics().Published(shared.EventScoresComputed))
}
