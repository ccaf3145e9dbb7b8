package helper

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/proposal"
	"github.com/ngit/ngit-go/internal/relay"
)

// handlePush publishes a revision series for every refspec whose
// destination maps onto an open proposal branch. Per-refspec results are
// reported to git as `ok <dst>` or `error <dst> <reason>`, followed by a
// blank line for the batch.
func (h *Helper) handlePush(ctx context.Context, refspecs []string) error {
	signer, err := h.SignerFor(ctx)
	if err != nil {
		return err
	}
	user, err := signer.PublicKey(ctx)
	if err != nil {
		return fmt.Errorf("cannot determine public key: %w", err)
	}

	index := proposal.NewIndex(h.Store, h.Repo)
	open, err := index.Open()
	if err != nil {
		return err
	}

	for _, refspec := range refspecs {
		src, dst, ok := strings.Cut(strings.TrimPrefix(refspec, "+"), ":")
		if !ok || src == "" || dst == "" {
			fmt.Fprintf(h.Out, "error %s malformed refspec\n", refspec)
			continue
		}
		rootID, prop := proposal.FindByRef(dst, open, user)
		if prop == nil {
			fmt.Fprintf(h.Out, "error %s refspec does not map to a proposal\n", dst)
			continue
		}
		if err := h.pushRevision(ctx, signer, rootID, src, dst); err != nil {
			fmt.Fprintf(h.Out, "error %s %s\n", dst, err)
			continue
		}
		fmt.Fprintf(h.Out, "ok %s\n", dst)
	}
	fmt.Fprint(h.Out, "\n")
	return nil
}

// pushRevision encodes the commits src carries over the main (or master)
// branch as a new revision of the proposal and fans it out.
func (h *Helper) pushRevision(ctx context.Context, signer events.Signer, rootID, src, dst string) error {
	tip, err := h.Git.TipOf(ctx, strings.TrimPrefix(src, "refs/heads/"))
	if err != nil {
		return err
	}
	_, toTip, err := h.Git.MainOrMasterBranch(ctx)
	if err != nil {
		return err
	}
	ahead, _, err := h.Git.CommitsAheadBehind(ctx, toTip, tip)
	if err != nil {
		return err
	}
	if len(ahead) == 0 {
		return fmt.Errorf("no commits to push")
	}
	// rev-list is newest first; events publish oldest first.
	commits := make([]events.CommitInfo, 0, len(ahead))
	for i := len(ahead) - 1; i >= 0; i-- {
		info, err := events.CollectCommitInfo(ctx, h.Git, ahead[i], 0, 0)
		if err != nil {
			return err
		}
		commits = append(commits, info)
	}

	rootCommit, err := h.Git.RootCommit(ctx)
	if err != nil {
		return err
	}
	series, err := events.GenerateSeries(ctx, signer, h.Repo, commits, events.SeriesOptions{
		RootCommit: rootCommit,
		BranchName: strings.TrimPrefix(dst, "refs/heads/"),
		RevisionOf: rootID,
	})
	if err != nil {
		return err
	}

	h.Log.WithField("events", len(series)).Info("publishing proposal revision")
	return relay.Publish(ctx, h.Client, series, h.MyWriteRelays, h.Repo.Relays, relay.DiscardSink{})
}
