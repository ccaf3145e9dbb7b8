package events

import (
	"context"
	"fmt"
)

// CommitReader is the slice of the git capability surface the codec
// needs to describe one commit. *git.Repo satisfies it.
type CommitReader interface {
	MakePatch(ctx context.Context, commit string, seriesIndex, seriesTotal int) (string, error)
	CommitParent(ctx context.Context, commit string) (string, error)
	CommitMessage(ctx context.Context, commit string) (string, error)
	CommitAuthor(ctx context.Context, commit string) ([]string, error)
	CommitCommitter(ctx context.Context, commit string) ([]string, error)
	ExtractPGPSignature(ctx context.Context, commit string) (string, error)
}

// CollectCommitInfo gathers the reconstruction fields for one commit.
// seriesIndex/seriesTotal of zero render an unnumbered [PATCH] subject.
func CollectCommitInfo(ctx context.Context, r CommitReader, commit string, seriesIndex, seriesTotal int) (CommitInfo, error) {
	info := CommitInfo{Hash: commit}
	var err error
	if info.Patch, err = r.MakePatch(ctx, commit, seriesIndex, seriesTotal); err != nil {
		return info, err
	}
	if info.Parent, err = r.CommitParent(ctx, commit); err != nil {
		return info, err
	}
	if info.Message, err = r.CommitMessage(ctx, commit); err != nil {
		return info, err
	}
	if info.Author, err = r.CommitAuthor(ctx, commit); err != nil {
		return info, err
	}
	if info.Committer, err = r.CommitCommitter(ctx, commit); err != nil {
		return info, err
	}
	// An unsigned commit simply carries an empty signature tag.
	if info.PGPSignature, err = r.ExtractPGPSignature(ctx, commit); err != nil {
		return info, fmt.Errorf("failed to extract pgp signature: %w", err)
	}
	return info, nil
}
