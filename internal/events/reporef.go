package events

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

// RepoRef is the decoded form of a repository announcement event.
type RepoRef struct {
	Identifier  string
	Name        string
	Description string
	RootCommit  string
	Maintainers []string
	Relays      []string
	GitServers  []string
}

// ParseRepoRef decodes a repository announcement event.
func ParseRepoRef(e *nostr.Event) (*RepoRef, error) {
	if e.Kind != KindRepoAnnouncement {
		return nil, fmt.Errorf("event kind %d is not a repository announcement", e.Kind)
	}
	r := &RepoRef{
		Identifier:  TagValue(e, "d"),
		Name:        TagValue(e, "name"),
		Description: TagValue(e, "description"),
		RootCommit:  TagValue(e, "r"),
		GitServers:  TagValues(e, "git-server"),
	}
	if r.Identifier == "" {
		return nil, fmt.Errorf("repository announcement lacks a d tag")
	}
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == "relays" {
			r.Relays = append(r.Relays, t[1:]...)
		}
	}
	// The author leads the maintainer list; Coordinate relies on it.
	r.Maintainers = []string{e.PubKey}
	for _, pk := range TagValues(e, "p") {
		if pk != e.PubKey {
			r.Maintainers = append(r.Maintainers, pk)
		}
	}
	return r, nil
}

// Coordinate returns the addressable "kind:pubkey:identifier" form used
// in a tags. The first maintainer is the announcement author.
func (r *RepoRef) Coordinate() string {
	return fmt.Sprintf("%d:%s:%s", KindRepoAnnouncement, r.Maintainers[0], r.Identifier)
}

// RelayHint returns the first repository relay, or "".
func (r *RepoRef) RelayHint() string {
	if len(r.Relays) == 0 {
		return ""
	}
	return r.Relays[0]
}

// ATag returns the addressable reference tag binding a patch to this
// repository.
func (r *RepoRef) ATag() nostr.Tag {
	return nostr.Tag{"a", r.Coordinate(), r.RelayHint()}
}

// MaintainerTags returns one p tag per maintainer.
func (r *RepoRef) MaintainerTags() nostr.Tags {
	tags := make(nostr.Tags, 0, len(r.Maintainers))
	for _, pk := range r.Maintainers {
		tags = append(tags, nostr.Tag{"p", pk})
	}
	return tags
}
