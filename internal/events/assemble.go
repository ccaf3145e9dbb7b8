package events

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

// CommitInfo carries everything the codec needs to express one git commit
// as a patch event. Author and Committer hold name, email, unix timestamp
// and UTC offset, in that order.
type CommitInfo struct {
	Hash         string
	Parent       string
	Message      string
	PGPSignature string
	Author       []string
	Committer    []string
	// Patch is the git-format patch text, already carrying the series
	// numbering in its subject when part of a series.
	Patch string
}

// CoverDraft is the user-supplied cover letter content.
type CoverDraft struct {
	Title       string
	Description string
}

// SeriesOptions controls how a commit sequence is assembled into events.
type SeriesOptions struct {
	// Cover, when set, opens the series with a [PATCH 0/N] cover letter.
	Cover *CoverDraft
	// RootCommit is the repository's root commit hash, binding every
	// event in the series to the repository history.
	RootCommit string
	// BranchName, when set, is recorded on the first event of the series.
	BranchName string
	// RevisionOf, when set, marks the series root as a revision of the
	// proposal with that root event id.
	RevisionOf string
}

// BuildCoverLetter assembles and signs a series cover letter. commits are
// ordered oldest first.
func BuildCoverLetter(ctx context.Context, signer Signer, repo *RepoRef, cover CoverDraft, commits []CommitInfo, opts SeriesOptions) (nostr.Event, error) {
	if len(commits) == 0 {
		return nostr.Event{}, fmt.Errorf("cannot build a cover letter for an empty series")
	}
	e := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      KindPatch,
		Content: fmt.Sprintf(
			"From %s Mon Sep 17 00:00:00 2001\nSubject: [PATCH 0/%d] %s\n\n%s",
			commits[len(commits)-1].Hash, len(commits), cover.Title, cover.Description,
		),
	}
	e.Tags = nostr.Tags{
		repo.ATag(),
		{"r", opts.RootCommit},
		{"t", "cover-letter"},
		{"t", "root"},
	}
	e.Tags = append(e.Tags, seriesRootTags(repo, opts)...)
	e.Tags = append(e.Tags, repo.MaintainerTags()...)
	if err := signer.Sign(ctx, &e); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to sign cover-letter event: %w", err)
	}
	return e, nil
}

// BuildPatch assembles and signs one patch event. threadRoot is the
// series root event id, empty when this patch is itself the series root;
// parentPatch is the previous event of the series.
func BuildPatch(ctx context.Context, signer Signer, repo *RepoRef, commit CommitInfo, threadRoot, parentPatch string, opts SeriesOptions) (nostr.Event, error) {
	hint := repo.RelayHint()
	e := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      KindPatch,
		Content:   commit.Patch,
	}
	e.Tags = nostr.Tags{
		repo.ATag(),
		{"r", opts.RootCommit},
		{"r", commit.Hash},
	}
	if threadRoot != "" {
		e.Tags = append(e.Tags, nostr.Tag{"e", threadRoot, hint, "root"})
	} else {
		e.Tags = append(e.Tags, nostr.Tag{"t", "root"})
		e.Tags = append(e.Tags, seriesRootTags(repo, opts)...)
	}
	if parentPatch != "" {
		e.Tags = append(e.Tags, nostr.Tag{"e", parentPatch, hint, "reply"})
	}
	e.Tags = append(e.Tags, repo.MaintainerTags()...)
	e.Tags = append(e.Tags,
		nostr.Tag{"commit", commit.Hash},
		nostr.Tag{"parent-commit", commit.Parent},
		nostr.Tag{"commit-pgp-sig", commit.PGPSignature},
		nostr.Tag{"description", commit.Message},
		append(nostr.Tag{"author"}, commit.Author...),
		append(nostr.Tag{"committer"}, commit.Committer...),
	)
	if err := signer.Sign(ctx, &e); err != nil {
		return nostr.Event{}, fmt.Errorf("failed to sign patch event: %w", err)
	}
	return e, nil
}

// seriesRootTags returns the tags that only the first event of a series
// carries: the branch name and, for revisions, the revision marker plus
// the link back to the superseded proposal root.
func seriesRootTags(repo *RepoRef, opts SeriesOptions) nostr.Tags {
	var tags nostr.Tags
	if opts.BranchName != "" {
		tags = append(tags, nostr.Tag{"branch-name", opts.BranchName})
	}
	if opts.RevisionOf != "" {
		tags = append(tags,
			nostr.Tag{"t", "revision-root"},
			nostr.Tag{"e", opts.RevisionOf, repo.RelayHint(), "reply"},
		)
	}
	return tags
}

// GenerateSeries encodes a linear commit sequence (oldest first) as a
// threaded set of signed events: an optional cover letter followed by one
// patch event per commit, each replying to its predecessor. The returned
// order is the publish order.
func GenerateSeries(ctx context.Context, signer Signer, repo *RepoRef, commits []CommitInfo, opts SeriesOptions) ([]nostr.Event, error) {
	if len(commits) == 0 {
		return nil, fmt.Errorf("no commits to send")
	}
	var series []nostr.Event
	if opts.Cover != nil {
		cover, err := BuildCoverLetter(ctx, signer, repo, *opts.Cover, commits, opts)
		if err != nil {
			return nil, err
		}
		series = append(series, cover)
	}
	for _, commit := range commits {
		threadRoot, parentPatch := "", ""
		if len(series) > 0 {
			threadRoot = series[0].ID
			parentPatch = series[len(series)-1].ID
		}
		e, err := BuildPatch(ctx, signer, repo, commit, threadRoot, parentPatch, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate patch event for %s: %w", commit.Hash, err)
		}
		series = append(series, e)
	}
	return series, nil
}
