// Package events defines the nostr event kinds and tag grammar used to
// carry git proposals, and the codec between git commits and patch events.
package events

import (
	"github.com/nbd-wtf/go-nostr"
)

// Event kinds used by the collaboration bridge (NIP-34 numbering).
const (
	KindRepoAnnouncement = 30617
	KindPatch            = 1617
	KindStatusOpen       = 1630
	KindStatusApplied    = 1631
	KindStatusClosed     = 1632
	KindStatusDraft      = 1633
)

// StatusKinds returns the event kinds that resolve a proposal's state.
func StatusKinds() []int {
	return []int{KindStatusOpen, KindStatusApplied, KindStatusClosed, KindStatusDraft}
}

// TagValue returns the second field of the first tag named name, or ""
// when the event carries no such tag.
func TagValue(e *nostr.Event, name string) string {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1]
		}
	}
	return ""
}

// TagValues returns the second field of every tag named name, in order.
func TagValues(e *nostr.Event, name string) []string {
	var vals []string
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			vals = append(vals, t[1])
		}
	}
	return vals
}

// HasHashtag reports whether the event carries a ["t", value] tag.
func HasHashtag(e *nostr.Event, value string) bool {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == "t" && t[1] == value {
			return true
		}
	}
	return false
}

// ThreadRootID returns the event id of the thread root this patch replies
// into, taken from the ["e", id, relay, "root"] tag. Empty when the event
// is itself a thread root.
func ThreadRootID(e *nostr.Event) string {
	return markedEventTag(e, "root")
}

// ReplyParentID returns the event id of the parent patch in the series,
// taken from the ["e", id, relay, "reply"] tag.
func ReplyParentID(e *nostr.Event) string {
	return markedEventTag(e, "reply")
}

func markedEventTag(e *nostr.Event, marker string) string {
	for _, t := range e.Tags {
		if len(t) >= 4 && t[0] == "e" && t[3] == marker {
			return t[1]
		}
	}
	return ""
}

// StatusTargets returns the event ids a status event refers to: the
// second field of each of its e tags.
func StatusTargets(e *nostr.Event) []string {
	return TagValues(e, "e")
}

// IsPatchSetRoot reports whether the event opens a patch series: a root
// patch or a cover letter.
func IsPatchSetRoot(e *nostr.Event) bool {
	return e.Kind == KindPatch && HasHashtag(e, "root")
}

// IsCoverLetter reports whether the event is a series cover letter.
func IsCoverLetter(e *nostr.Event) bool {
	return e.Kind == KindPatch && HasHashtag(e, "root") && HasHashtag(e, "cover-letter")
}

// IsRevisionRoot reports whether the event is the root of a revision
// superseding an earlier proposal.
func IsRevisionRoot(e *nostr.Event) bool {
	return e.Kind == KindPatch && HasHashtag(e, "revision-root")
}
