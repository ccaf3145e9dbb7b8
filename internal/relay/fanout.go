package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/errgroup"
)

// ErrAllRelaysFailed is returned when some event could not be delivered
// to any relay at all.
var ErrAllRelaysFailed = errors.New("some events were not accepted by any relay")

// Publisher delivers one event to one relay. Satisfied by *Client; tests
// substitute doubles.
type Publisher interface {
	PublishTo(ctx context.Context, relay string, e nostr.Event) error
}

// Publish fans a batch of events out to the union of the author's write
// relays and the repository's read relays.
//
// Each relay gets its own worker; workers are independent, so one relay
// failing neither cancels the others nor perturbs their event order.
// Within a worker events go out sequentially in input order and the
// worker stops at the first error. The call returns once every worker
// has terminated; it succeeds when every event was acknowledged by at
// least one relay.
func Publish(ctx context.Context, p Publisher, evs []nostr.Event, myWriteRelays, repoReadRelays []string, sink ProgressSink) error {
	targets := TargetRelays(myWriteRelays, repoReadRelays)
	if len(targets) == 0 || len(evs) == 0 {
		return nil
	}

	var mu sync.Mutex
	acked := make([]int, len(evs))

	g, ctx := errgroup.WithContext(ctx)
	// One worker per relay, sized by relay count. Worker errors are
	// reported through the sink, never through the group, so a failing
	// relay cannot cancel its peers via the shared context.
	for _, t := range targets {
		sink.BeginRelay(t.URL, t.Labels, len(evs))
		g.Go(func() error {
			for i, e := range evs {
				if err := p.PublishTo(ctx, t.URL, e); err != nil {
					sink.FinishErr(t.URL, err)
					return nil
				}
				sink.Advance(t.URL)
				mu.Lock()
				acked[i]++
				mu.Unlock()
			}
			sink.FinishOK(t.URL)
			return nil
		})
	}
	g.Wait()

	for _, n := range acked {
		if n == 0 {
			return ErrAllRelaysFailed
		}
	}
	return nil
}

// Target is one relay in the fan-out set.
type Target struct {
	URL    string
	Labels RelayLabels
}

// TargetRelays computes the deduplicated fan-out set: relays on both
// lists first, then those only mine, then those only the repo's. The
// order is observable through the progress sink.
func TargetRelays(mine, repo []string) []Target {
	seen := map[string]bool{}
	inMine := map[string]bool{}
	for _, r := range mine {
		inMine[r] = true
	}
	inRepo := map[string]bool{}
	for _, r := range repo {
		inRepo[r] = true
	}

	var dup, mineOnly, repoOnly []Target
	for _, r := range mine {
		if seen[r] {
			continue
		}
		seen[r] = true
		t := Target{URL: r, Labels: RelayLabels{Mine: true, Repo: inRepo[r]}}
		if inRepo[r] {
			dup = append(dup, t)
		} else {
			mineOnly = append(mineOnly, t)
		}
	}
	for _, r := range repo {
		if seen[r] {
			continue
		}
		seen[r] = true
		repoOnly = append(repoOnly, Target{URL: r, Labels: RelayLabels{Repo: true}})
	}

	out := make([]Target, 0, len(dup)+len(mineOnly)+len(repoOnly))
	out = append(out, dup...)
	out = append(out, mineOnly...)
	return append(out, repoOnly...)
}
