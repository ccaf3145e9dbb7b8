package events

import (
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// CoverLetter carries the title, description and branch name derived from
// the event opening a patch series.
type CoverLetter struct {
	Title       string
	Description string
	// BranchName is the literal branch name from the branch-name tag,
	// or the slugified title when the tag is absent.
	BranchName string
	// explicit is true when BranchName came from a branch-name tag.
	explicit bool
}

// ExplicitBranchName reports whether the series carried a branch-name tag.
func (cl *CoverLetter) ExplicitBranchName() bool {
	return cl.explicit
}

// ParseCoverLetter derives a CoverLetter from a patch set root event.
// Works for both cover letters and bare root patches; the content is
// expected to carry a "Subject: [PATCH ...] title" line.
func ParseCoverLetter(e *nostr.Event) (*CoverLetter, error) {
	if !IsPatchSetRoot(e) {
		return nil, fmt.Errorf("event is not a patch set root event (root patch or cover letter)")
	}
	titleStart := strings.Index(e.Content, "] ")
	if titleStart < 0 {
		return nil, fmt.Errorf("event content is not formatted as a patch or cover letter")
	}
	titleStart += 2
	rest := e.Content[titleStart:]

	var title, description string
	if msg := TagValue(e, "description"); msg != "" {
		title, description, _ = strings.Cut(msg, "\n")
		description = strings.TrimSpace(description)
	} else {
		// A newline inside the title pushes the remainder into the
		// description.
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			title = rest[:nl]
			description = strings.TrimSpace(rest[nl:])
		} else {
			title = rest
		}
	}

	cl := &CoverLetter{Title: title, Description: description}
	if name := TagValue(e, "branch-name"); name != "" {
		cl.BranchName = name
		cl.explicit = true
	} else {
		cl.BranchName = SlugifyBranchName(title)
	}
	return cl, nil
}

// SlugifyBranchName maps a series title onto a deterministic branch name:
// spaces become dashes, and every rune outside [A-Za-z0-9/] becomes a
// dash. Identical titles yield identical branch names across peers.
func SlugifyBranchName(title string) string {
	var b strings.Builder
	for _, c := range strings.ReplaceAll(title, " ", "-") {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '/':
			b.WriteRune(c)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
