package relay

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/ngit/ngit-go/internal/cache"
	"github.com/ngit/ngit-go/internal/events"
)

// FetchRepoByRootCommit locates the repository announcement whose r tag
// carries the repository's root commit, caching whatever the relays
// return. When several maintainers announced the repository the newest
// announcement wins.
func (c *Client) FetchRepoByRootCommit(ctx context.Context, store *cache.Store, relays []string, rootCommit string) (*events.RepoRef, error) {
	filter := nostr.Filter{
		Kinds: []int{events.KindRepoAnnouncement},
		Tags:  nostr.TagMap{"r": []string{rootCommit}},
	}
	if err := c.FetchInto(ctx, store, relays, filter); err != nil {
		return nil, err
	}
	cached, err := store.Query(filter)
	if err != nil {
		return nil, err
	}
	ann := newest(cached)
	if ann == nil {
		return nil, fmt.Errorf("no repository announcement found for this repository")
	}
	return events.ParseRepoRef(ann)
}

// FetchRepoByPointer resolves a decoded nostr URL into the announcement
// it points at: directly by event id, or by addressable coordinate.
func (c *Client) FetchRepoByPointer(ctx context.Context, store *cache.Store, relays []string, eventID string, author string, identifier string) (*events.RepoRef, error) {
	filter := nostr.Filter{Kinds: []int{events.KindRepoAnnouncement}}
	if eventID != "" {
		filter.IDs = []string{eventID}
	} else {
		filter.Authors = []string{author}
		filter.Tags = nostr.TagMap{"d": []string{identifier}}
	}
	if err := c.FetchInto(ctx, store, relays, filter); err != nil {
		return nil, err
	}
	cached, err := store.Query(filter)
	if err != nil {
		return nil, err
	}
	ann := newest(cached)
	if ann == nil {
		return nil, fmt.Errorf("repository announcement not found on any relay")
	}
	return events.ParseRepoRef(ann)
}

// RefreshProposals pulls the repository's patch events and the status
// events referencing them into the cache.
func (c *Client) RefreshProposals(ctx context.Context, store *cache.Store, repo *events.RepoRef, relays []string) error {
	patches := nostr.Filter{
		Kinds: []int{events.KindPatch},
		Tags:  nostr.TagMap{"a": []string{repo.Coordinate()}},
	}
	if err := c.FetchInto(ctx, store, relays, patches); err != nil {
		return err
	}
	roots, err := store.Query(nostr.Filter{
		Kinds: []int{events.KindPatch},
		Tags: nostr.TagMap{
			"a": []string{repo.Coordinate()},
			"t": []string{"root"},
		},
	})
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return nil
	}
	ids := make([]string, len(roots))
	for i := range roots {
		ids[i] = roots[i].ID
	}
	return c.FetchInto(ctx, store, relays, nostr.Filter{
		Kinds: events.StatusKinds(),
		Tags:  nostr.TagMap{"e": ids},
	})
}

func newest(evs []nostr.Event) *nostr.Event {
	var best *nostr.Event
	for i := range evs {
		if best == nil || evs[i].CreatedAt > best.CreatedAt {
			best = &evs[i]
		}
	}
	return best
}
