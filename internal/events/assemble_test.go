package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoRef() *RepoRef {
	return &RepoRef{
		Identifier:  "example",
		Maintainers: []string{"aa01", "bb02"},
		Relays:      []string{"wss://relay.example.com"},
		GitServers:  []string{"https://git.example.com/example"},
	}
}

func testCommits(n int) []CommitInfo {
	commits := make([]CommitInfo, n)
	for i := range commits {
		hash := fmt.Sprintf("%040d", i+1)
		parent := fmt.Sprintf("%040d", i)
		commits[i] = CommitInfo{
			Hash:      hash,
			Parent:    parent,
			Message:   fmt.Sprintf("commit %d", i+1),
			Author:    []string{"carol", "carol@example.com", "1700000000", "+00:00"},
			Committer: []string{"carol", "carol@example.com", "1700000000", "+00:00"},
			Patch:     fmt.Sprintf("From %s Mon Sep 17 00:00:00 2001\nSubject: [PATCH] commit %d\n\ndiff", hash, i+1),
		}
	}
	return commits
}

func testSigner(t *testing.T) Signer {
	t.Helper()
	s, err := NewLocalSigner(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	return s
}

func TestGenerateSeries_WithCoverLetter(t *testing.T) {
	ctx := context.Background()
	repo := testRepoRef()
	commits := testCommits(2)

	series, err := GenerateSeries(ctx, testSigner(t), repo, commits, SeriesOptions{
		Cover:      &CoverDraft{Title: "proposal a", Description: "does things"},
		RootCommit: "feedfacefeedfacefeedfacefeedfacefeedface",
		BranchName: "proposal-a",
	})
	require.NoError(t, err)
	require.Len(t, series, 3)

	cover := series[0]
	assert.True(t, IsCoverLetter(&cover))
	assert.Contains(t, cover.Content, "Subject: [PATCH 0/2] proposal a")
	assert.Contains(t, cover.Content, fmt.Sprintf("From %s Mon Sep 17", commits[1].Hash))
	assert.Equal(t, "proposal-a", TagValue(&cover, "branch-name"))

	// Both patches reply into the cover letter's thread.
	for i, e := range series[1:] {
		assert.Equal(t, cover.ID, ThreadRootID(&e), "patch %d thread root", i+1)
		assert.Equal(t, series[i].ID, ReplyParentID(&e), "patch %d reply parent", i+1)
		assert.Empty(t, TagValue(&e, "branch-name"))
	}
}

func TestGenerateSeries_WithoutCoverLetter(t *testing.T) {
	ctx := context.Background()
	commits := testCommits(2)

	series, err := GenerateSeries(ctx, testSigner(t), testRepoRef(), commits, SeriesOptions{
		RootCommit: "feedfacefeedfacefeedfacefeedfacefeedface",
		BranchName: "fix/things",
	})
	require.NoError(t, err)
	require.Len(t, series, 2)

	root := series[0]
	assert.True(t, IsPatchSetRoot(&root))
	assert.False(t, IsCoverLetter(&root))
	assert.Equal(t, "fix/things", TagValue(&root, "branch-name"))
	assert.Empty(t, ThreadRootID(&root))

	second := series[1]
	assert.Equal(t, root.ID, ThreadRootID(&second))
	assert.Equal(t, root.ID, ReplyParentID(&second))
}

func TestGenerateSeries_CommitReconstructionTags(t *testing.T) {
	ctx := context.Background()
	commits := testCommits(1)
	commits[0].PGPSignature = "-----BEGIN PGP SIGNATURE-----"

	series, err := GenerateSeries(ctx, testSigner(t), testRepoRef(), commits, SeriesOptions{
		RootCommit: "feedfacefeedfacefeedfacefeedfacefeedface",
	})
	require.NoError(t, err)
	e := series[0]

	assert.Equal(t, commits[0].Hash, TagValue(&e, "commit"))
	assert.Equal(t, commits[0].Parent, TagValue(&e, "parent-commit"))
	assert.Equal(t, commits[0].Message, TagValue(&e, "description"))
	assert.Equal(t, commits[0].PGPSignature, TagValue(&e, "commit-pgp-sig"))
	assert.Equal(t, []string{"r", "feedfacefeedfacefeedfacefeedfacefeedface"}, []string(e.Tags[1]))
	assert.Equal(t, testRepoRef().Coordinate(), TagValue(&e, "a"))
	assert.ElementsMatch(t, []string{"aa01", "bb02"}, TagValues(&e, "p"))
}

func TestGenerateSeries_Revision(t *testing.T) {
	ctx := context.Background()
	series, err := GenerateSeries(ctx, testSigner(t), testRepoRef(), testCommits(1), SeriesOptions{
		RootCommit: "feedfacefeedfacefeedfacefeedfacefeedface",
		RevisionOf: "cafe0000cafe0000cafe0000cafe0000cafe0000cafe0000cafe0000cafe0000",
	})
	require.NoError(t, err)
	root := series[0]

	assert.True(t, IsRevisionRoot(&root))
	assert.True(t, IsPatchSetRoot(&root))
	assert.Equal(t, "cafe0000cafe0000cafe0000cafe0000cafe0000cafe0000cafe0000cafe0000", ReplyParentID(&root))
}

func TestGenerateSeries_EmptyCommits(t *testing.T) {
	_, err := GenerateSeries(context.Background(), testSigner(t), testRepoRef(), nil, SeriesOptions{})
	assert.Error(t, err)
}

func TestBuildCoverLetter_RoundTripsThroughParse(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		title       string
		description string
	}{
		{"proposal a", "a plain description"},
		{"proposal b", "multi\n\nline\ndescription"},
		{"proposal c", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			cover, err := BuildCoverLetter(ctx, testSigner(t), testRepoRef(), CoverDraft{Title: tt.title, Description: tt.description}, testCommits(2), SeriesOptions{RootCommit: "feedface"})
			require.NoError(t, err)
			cl, err := ParseCoverLetter(&cover)
			require.NoError(t, err)
			assert.Equal(t, tt.title, cl.Title)
			assert.Equal(t, tt.description, cl.Description)
		})
	}
}
