package proposal

import (
	"sort"

	"github.com/nbd-wtf/go-nostr"

	"github.com/ngit/ngit-go/internal/cache"
	"github.com/ngit/ngit-go/internal/events"
)

// Proposal pairs a proposal root event with its most recent ordered patch
// chain. Events are held by value; they are small and immutable.
type Proposal struct {
	Root  nostr.Event
	Chain []nostr.Event
}

// CoverLetter derives the proposal's cover letter.
func (p *Proposal) CoverLetter() (*events.CoverLetter, error) {
	return events.ParseCoverLetter(&p.Root)
}

// Index merges a repository's proposals with their status events. It is
// built synchronously from a cache snapshot; callers wanting fresher data
// re-invoke against a refreshed cache.
type Index struct {
	store *cache.Store
	repo  *events.RepoRef
}

// NewIndex builds an index over the cached events of one repository.
func NewIndex(store *cache.Store, repo *events.RepoRef) *Index {
	return &Index{store: store, repo: repo}
}

// Open returns the proposals whose dominant status is Open and whose
// patch events form a chain, keyed by root event id. Proposals that fail
// chain resolution are dropped silently.
func (ix *Index) Open() (map[string]Proposal, error) {
	return ix.collect(true)
}

// All returns every proposal with a resolvable chain, ignoring status.
func (ix *Index) All() (map[string]Proposal, error) {
	return ix.collect(false)
}

func (ix *Index) collect(openOnly bool) (map[string]Proposal, error) {
	roots, err := ix.proposalRoots()
	if err != nil {
		return nil, err
	}
	statuses, err := ix.statusEvents(roots)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Proposal, len(roots))
	for i := range roots {
		root := &roots[i]
		if openOnly && dominantStatus(root.ID, statuses) != events.KindStatusOpen {
			continue
		}
		set, err := ix.patchSet(root)
		if err != nil {
			return nil, err
		}
		chain, err := MostRecentChain(set)
		if err != nil {
			// A proposal that cannot be linearized is omitted from
			// listings rather than surfaced as an error.
			continue
		}
		out[root.ID] = Proposal{Root: *root, Chain: chain}
	}
	return out, nil
}

// proposalRoots returns the repository's proposal roots: patch events
// tagged t=root, excluding revision roots, bound to the repo coordinate.
func (ix *Index) proposalRoots() ([]nostr.Event, error) {
	matched, err := ix.store.Query(nostr.Filter{
		Kinds: []int{events.KindPatch},
		Tags: nostr.TagMap{
			"a": []string{ix.repo.Coordinate()},
			"t": []string{"root"},
		},
	})
	if err != nil {
		return nil, err
	}
	var roots []nostr.Event
	for i := range matched {
		if !events.IsRevisionRoot(&matched[i]) {
			roots = append(roots, matched[i])
		}
	}
	return roots, nil
}

// statusEvents returns every status event referencing one of the roots.
func (ix *Index) statusEvents(roots []nostr.Event) ([]nostr.Event, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	ids := make([]string, len(roots))
	for i := range roots {
		ids[i] = roots[i].ID
	}
	return ix.store.Query(nostr.Filter{
		Kinds: events.StatusKinds(),
		Tags:  nostr.TagMap{"e": ids},
	})
}

// dominantStatus resolves a proposal's effective status: the status event
// with the greatest created_at wins, ties break by event id; with no
// status event the proposal is Open.
func dominantStatus(rootID string, statuses []nostr.Event) int {
	var dominant *nostr.Event
	for i := range statuses {
		s := &statuses[i]
		refersToRoot := false
		for _, id := range events.StatusTargets(s) {
			if id == rootID {
				refersToRoot = true
				break
			}
		}
		if !refersToRoot {
			continue
		}
		if dominant == nil ||
			s.CreatedAt > dominant.CreatedAt ||
			(s.CreatedAt == dominant.CreatedAt && s.ID > dominant.ID) {
			dominant = s
		}
	}
	if dominant == nil {
		return events.KindStatusOpen
	}
	return dominant.Kind
}

// patchSet gathers the proposal root plus every patch event that reaches
// it through e-tag linkage, revisions and their replies included.
func (ix *Index) patchSet(root *nostr.Event) ([]nostr.Event, error) {
	all, err := ix.store.Query(nostr.Filter{
		Kinds: []int{events.KindPatch},
		Tags:  nostr.TagMap{"a": []string{ix.repo.Coordinate()}},
	})
	if err != nil {
		return nil, err
	}

	member := map[string]bool{root.ID: true}
	// Thread linkage is event-id based, so membership propagates in
	// rounds: a revision root reaches the proposal root, then the
	// revision's replies reach the revision root.
	for {
		grew := false
		for i := range all {
			e := &all[i]
			if member[e.ID] {
				continue
			}
			for _, t := range e.Tags {
				if len(t) >= 2 && t[0] == "e" && member[t[1]] {
					member[e.ID] = true
					grew = true
					break
				}
			}
		}
		if !grew {
			break
		}
	}

	var set []nostr.Event
	for i := range all {
		if member[all[i].ID] {
			set = append(set, all[i])
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i].ID < set[j].ID })
	return set, nil
}
