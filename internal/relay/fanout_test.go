package relay

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records the order of events each relay receives and
// fails configured relays at a given event index.
type fakePublisher struct {
	mu       sync.Mutex
	received map[string][]string
	failAt   map[string]int // relay -> event index that errors; -1 fails immediately
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{received: map[string][]string{}, failAt: map[string]int{}}
}

func (f *fakePublisher) PublishTo(_ context.Context, relay string, e nostr.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if at, ok := f.failAt[relay]; ok && len(f.received[relay]) >= at {
		return fmt.Errorf("relay %s refused event", relay)
	}
	f.received[relay] = append(f.received[relay], e.ID)
	return nil
}

func testEvents(n int) []nostr.Event {
	evs := make([]nostr.Event, n)
	for i := range evs {
		evs[i] = nostr.Event{ID: fmt.Sprintf("ev%d", i)}
	}
	return evs
}

func TestTargetRelays_DuplicatesFirst(t *testing.T) {
	mine := []string{"t1", "t2", "t3", "t4", "t5"}
	repo := []string{"t3", "t4", "t5", "t6"}

	targets := TargetRelays(mine, repo)
	require.Len(t, targets, 6)

	urls := make([]string, len(targets))
	for i, tg := range targets {
		urls[i] = tg.URL
	}
	assert.Equal(t, []string{"t3", "t4", "t5", "t1", "t2", "t6"}, urls)

	assert.Equal(t, RelayLabels{Mine: true, Repo: true}, targets[0].Labels)
	assert.Equal(t, RelayLabels{Mine: true}, targets[3].Labels)
	assert.Equal(t, RelayLabels{Repo: true}, targets[5].Labels)
}

func TestTargetRelays_Dedup(t *testing.T) {
	targets := TargetRelays([]string{"a", "a", "b"}, []string{"b", "b", "c"})
	urls := make([]string, len(targets))
	for i, tg := range targets {
		urls[i] = tg.URL
	}
	assert.Equal(t, []string{"b", "a", "c"}, urls)
}

func TestPublish_AllRelaysGetEventsInOrder(t *testing.T) {
	pub := newFakePublisher()
	evs := testEvents(3)

	err := Publish(context.Background(), pub, evs, []string{"r1"}, []string{"r2"}, DiscardSink{})
	require.NoError(t, err)

	want := []string{"ev0", "ev1", "ev2"}
	assert.Equal(t, want, pub.received["r1"])
	assert.Equal(t, want, pub.received["r2"])
}

func TestPublish_FailureIsIsolated(t *testing.T) {
	pub := newFakePublisher()
	pub.failAt["r1"] = 1 // r1 accepts one event then fails
	evs := testEvents(3)

	err := Publish(context.Background(), pub, evs, []string{"r1", "r2"}, nil, DiscardSink{})
	require.NoError(t, err, "one healthy relay per event is overall success")

	assert.Equal(t, []string{"ev0"}, pub.received["r1"], "failed relay stops at first error")
	assert.Equal(t, []string{"ev0", "ev1", "ev2"}, pub.received["r2"])
}

func TestPublish_AllRelaysFailed(t *testing.T) {
	pub := newFakePublisher()
	pub.failAt["r1"] = 0
	pub.failAt["r2"] = 0

	err := Publish(context.Background(), pub, testEvents(2), []string{"r1"}, []string{"r2"}, DiscardSink{})
	assert.ErrorIs(t, err, ErrAllRelaysFailed)
}

func TestPublish_PartialCoverageIsFailure(t *testing.T) {
	pub := newFakePublisher()
	// Every relay dies after the first event, so ev1 lands nowhere.
	pub.failAt["r1"] = 1
	pub.failAt["r2"] = 1

	err := Publish(context.Background(), pub, testEvents(2), []string{"r1"}, []string{"r2"}, DiscardSink{})
	assert.ErrorIs(t, err, ErrAllRelaysFailed)
}

func TestPublish_Idempotent(t *testing.T) {
	pub := newFakePublisher()
	evs := testEvents(2)

	require.NoError(t, Publish(context.Background(), pub, evs, []string{"r1"}, nil, DiscardSink{}))
	first := append([]string{}, pub.received["r1"]...)
	require.NoError(t, Publish(context.Background(), pub, evs, []string{"r1"}, nil, DiscardSink{}))

	assert.Equal(t, append(first, first...), pub.received["r1"],
		"replaying the batch re-sends the same content-addressed events")
}

// countingSink verifies the progress contract: begin once per relay,
// advance per accepted event, exactly one terminal call.
type countingSink struct {
	mu       sync.Mutex
	begun    map[string]int
	advanced map[string]int
	ok       map[string]int
	failed   map[string]int
}

func newCountingSink() *countingSink {
	return &countingSink{
		begun: map[string]int{}, advanced: map[string]int{},
		ok: map[string]int{}, failed: map[string]int{},
	}
}

func (s *countingSink) BeginRelay(r string, _ RelayLabels, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begun[r]++
}
func (s *countingSink) Advance(r string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanced[r]++
}
func (s *countingSink) FinishOK(r string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ok[r]++
}
func (s *countingSink) FinishErr(r string, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[r]++
}

func TestPublish_ProgressSemantics(t *testing.T) {
	pub := newFakePublisher()
	pub.failAt["bad"] = 0
	sink := newCountingSink()

	err := Publish(context.Background(), pub, testEvents(3), []string{"good"}, []string{"bad"}, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.begun["good"])
	assert.Equal(t, 3, sink.advanced["good"])
	assert.Equal(t, 1, sink.ok["good"])
	assert.Zero(t, sink.failed["good"])

	assert.Equal(t, 1, sink.begun["bad"])
	assert.Zero(t, sink.advanced["bad"], "unreachable relay reports failure without advancing")
	assert.Equal(t, 1, sink.failed["bad"])
	assert.Zero(t, sink.ok["bad"])
}
