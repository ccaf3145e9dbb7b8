package proposal

import (
	"sort"
	"strings"

	"github.com/ngit/ngit-go/internal/events"
)

// FindByRef maps a git ref name onto the open proposal whose branch name
// it derives from. When currentUser authored the proposal the literal
// branch-name tag is compared; for everyone else the slugified branch
// name is used (the branch-name tag when present, else the cover letter
// title), so identical names resolve identically across peers.
//
// Proposals are scanned in root-id order and the first match wins.
func FindByRef(refstr string, open map[string]Proposal, currentUser string) (string, *Proposal) {
	want := strings.TrimPrefix(refstr, "refs/heads/")

	ids := make([]string, 0, len(open))
	for id := range open {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := open[id]
		cl, err := p.CoverLetter()
		if err != nil {
			continue
		}
		candidate := events.SlugifyBranchName(cl.Title)
		if cl.ExplicitBranchName() {
			candidate = events.SlugifyBranchName(cl.BranchName)
			if currentUser != "" && p.Root.PubKey == currentUser {
				candidate = cl.BranchName
			}
		}
		if candidate == want {
			return id, &p
		}
	}
	return "", nil
}
