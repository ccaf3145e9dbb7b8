package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/interactive"
	"github.com/ngit/ngit-go/internal/proposal"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list proposals; checkout the selected one",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println("finding proposals...")

	rc, err := openRepoContext(ctx)
	if err != nil {
		return err
	}
	defer rc.close()

	if err := rc.client.RefreshProposals(ctx, rc.store, rc.repo, rc.relaySet()); err != nil {
		logger.WithError(err).Debug("proposal refresh failed, using cached events")
	}

	open, err := proposal.NewIndex(rc.store, rc.repo).Open()
	if err != nil {
		return err
	}
	if len(open) == 0 {
		fmt.Println("no proposals found... create one? try `ngit send`")
		return nil
	}

	// Newest proposals first, the way relays surface them.
	ids := make([]string, 0, len(open))
	for id := range open {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := open[ids[i]].Root, open[ids[j]].Root
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return a.ID > b.ID
	})

	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		p := open[id]
		cl, err := p.CoverLetter()
		if err != nil {
			labels = append(labels, id[:8])
			continue
		}
		labels = append(labels, cl.Title)
	}

	choice, err := interactive.NewTerminal().Select("all proposals", labels)
	if err != nil {
		return err
	}
	return checkoutProposal(ctx, rc, open[ids[choice]])
}

// checkoutProposal materializes a proposal as a local branch: the branch
// starts at the first patch's parent commit and every patch in the chain
// is applied in order.
func checkoutProposal(ctx context.Context, rc *repoContext, p proposal.Proposal) error {
	cl, err := p.CoverLetter()
	if err != nil {
		return err
	}

	// The cover letter carries no commit; apply only patch events.
	var patches []string
	parent := ""
	for i := range p.Chain {
		e := &p.Chain[i]
		if events.TagValue(e, "commit") == "" {
			continue
		}
		if parent == "" {
			parent = events.TagValue(e, "parent-commit")
		}
		patches = append(patches, e.Content)
	}
	if len(patches) == 0 || parent == "" {
		return fmt.Errorf("proposal contains no patches")
	}

	branch := cl.BranchName
	if !rc.git.BranchExists(ctx, branch) {
		if err := rc.git.CreateAndCheckoutBranch(ctx, branch, parent); err != nil {
			return err
		}
		for _, patch := range patches {
			if err := rc.git.ApplyPatch(ctx, patch); err != nil {
				return err
			}
		}
		fmt.Printf("checked out proposal branch. pulled %d new commits\n", len(patches))
		return nil
	}

	if err := rc.git.Checkout(ctx, branch); err != nil {
		return err
	}
	tip, err := rc.git.TipOf(ctx, branch)
	if err != nil {
		return err
	}
	applied, _, err := rc.git.CommitsAheadBehind(ctx, parent, tip)
	if err != nil {
		return err
	}
	if len(applied) >= len(patches) {
		fmt.Println("checked out proposal branch. no new commits to pull")
		return nil
	}
	for _, patch := range patches[len(applied):] {
		if err := rc.git.ApplyPatch(ctx, patch); err != nil {
			return err
		}
	}
	fmt.Printf("checked out proposal branch. pulled %d new commits\n", len(patches)-len(applied))
	return nil
}
