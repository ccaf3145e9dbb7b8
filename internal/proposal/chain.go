// Package proposal reconstructs ordered patch chains from bags of patch
// events and pairs proposals with their status and local branches.
package proposal

import (
	"errors"
	"sort"

	"github.com/nbd-wtf/go-nostr"

	"github.com/ngit/ngit-go/internal/events"
)

// ErrNoChain is returned when no fully-connected chain rooted at a series
// root can be formed. Callers drop the proposal silently.
var ErrNoChain = errors.New("patch events do not form a connected chain")

// MostRecentChain reconstructs the most recent revision of a proposal
// from an unordered set of patch events sharing a proposal root.
//
// Events are partitioned by the thread root they reply into; within each
// thread the reply edges form a forest that is linearized root-first,
// preferring the newest child at each step. The thread whose newest event
// has the greatest created_at wins; ties break by event id.
func MostRecentChain(set []nostr.Event) ([]nostr.Event, error) {
	byID := make(map[string]*nostr.Event, len(set))
	for i := range set {
		byID[set[i].ID] = &set[i]
	}

	// Partition by thread root. An event with a t=root hashtag is its own
	// thread root; everything else names its thread via the e root tag.
	threads := make(map[string][]*nostr.Event)
	for i := range set {
		e := &set[i]
		rootID := ""
		if events.IsPatchSetRoot(e) {
			rootID = e.ID
		} else if id := events.ThreadRootID(e); id != "" {
			if _, known := byID[id]; known {
				rootID = id
			}
		}
		if rootID == "" {
			continue
		}
		threads[rootID] = append(threads[rootID], e)
	}

	var best []nostr.Event
	var bestNewest nostr.Timestamp
	var bestID string
	for rootID, members := range threads {
		root := byID[rootID]
		if root == nil || !events.IsPatchSetRoot(root) {
			continue
		}
		chain, ok := linearize(root, members)
		if !ok {
			continue
		}
		newest := chain[0].CreatedAt
		for _, e := range chain {
			if e.CreatedAt > newest {
				newest = e.CreatedAt
			}
		}
		if best == nil || newest > bestNewest || (newest == bestNewest && rootID > bestID) {
			best, bestNewest, bestID = chain, newest, rootID
		}
	}
	if best == nil {
		return nil, ErrNoChain
	}
	return best, nil
}

// linearize walks the reply forest from root, picking at each node the
// newest child (ties by event id). It fails when some member of the
// thread is left unreachable, meaning the chain is broken.
func linearize(root *nostr.Event, members []*nostr.Event) ([]nostr.Event, bool) {
	inThread := make(map[string]bool, len(members))
	for _, e := range members {
		inThread[e.ID] = true
	}
	children := make(map[string][]*nostr.Event)
	for _, e := range members {
		if e.ID == root.ID {
			continue
		}
		parent := events.ReplyParentID(e)
		if parent == "" || !inThread[parent] {
			// A reply edge leaving the thread (or missing entirely)
			// breaks the chain unless it is the thread root itself,
			// whose reply edge points at the proposal it supersedes.
			return nil, false
		}
		children[parent] = append(children[parent], e)
	}

	// Every member must be reachable from the root, or the chain is
	// broken and the proposal cannot be listed.
	reached := 0
	queue := []string{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		reached++
		for _, c := range children[id] {
			queue = append(queue, c.ID)
		}
	}
	if reached != len(members) {
		return nil, false
	}

	chain := []nostr.Event{*root}
	cursor := root.ID
	for {
		next := children[cursor]
		if len(next) == 0 {
			break
		}
		sort.Slice(next, func(i, j int) bool {
			if next[i].CreatedAt != next[j].CreatedAt {
				return next[i].CreatedAt > next[j].CreatedAt
			}
			return next[i].ID > next[j].ID
		})
		chain = append(chain, *next[0])
		cursor = next[0].ID
	}
	return chain, true
}
