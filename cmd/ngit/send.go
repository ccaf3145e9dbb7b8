package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/git"
	"github.com/ngit/ngit-go/internal/interactive"
	"github.com/ngit/ngit-go/internal/output"
	"github.com/ngit/ngit-go/internal/relay"
)

var (
	sendTitle         string
	sendDescription   string
	sendFromBranch    string
	sendToBranch      string
	sendNoCoverLetter bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "issue commits as a proposal",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendTitle, "title", "t", "", "optional cover letter title")
	sendCmd.Flags().StringVarP(&sendDescription, "description", "d", "", "optional cover letter description")
	sendCmd.Flags().StringVar(&sendFromBranch, "from-branch", "", "branch to get changes from (defaults to head)")
	sendCmd.Flags().StringVar(&sendToBranch, "to-branch", "", "destination branch (defaults to main or master)")
	sendCmd.Flags().BoolVar(&sendNoCoverLetter, "no-cover-letter", false, "don't ask about a cover letter")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompter := interactive.NewTerminal()

	gitRepo, err := git.Discover()
	if err != nil {
		return err
	}

	fromBranch, toBranch, ahead, behind, err := identifyAheadBehind(ctx, gitRepo, sendFromBranch, sendToBranch)
	if err != nil {
		return err
	}
	if len(ahead) == 0 {
		return fmt.Errorf("'%s' is 0 commits ahead of '%s' so no patches were created", fromBranch, toBranch)
	}

	if len(behind) == 0 {
		fmt.Printf("creating patch for %d commits from '%s' that can be merged into '%s'\n",
			len(ahead), fromBranch, toBranch)
	} else {
		proceed, err := prompter.Confirm(fmt.Sprintf(
			"'%s' is %d commits behind '%s' and %d ahead. Consider rebasing before sending patches. Proceed anyway?",
			fromBranch, len(behind), toBranch, len(ahead)), false)
		if err != nil {
			return fmt.Errorf("failed to get confirmation response: %w", err)
		}
		if !proceed {
			return fmt.Errorf("aborting so branch can be rebased")
		}
		fmt.Printf("creating patch for %d commit%s from '%s' that %s %d behind '%s'\n",
			len(ahead), output.Pluralize(len(ahead), "", "s"), fromBranch,
			output.Pluralize(len(ahead), "is", "are"), len(behind), toBranch)
	}

	cover, err := coverDraft(prompter)
	if err != nil {
		return err
	}

	signer, err := resolveSigner(ctx)
	if err != nil {
		return err
	}

	rc, err := openRepoContext(ctx)
	if err != nil {
		return err
	}
	defer rc.close()

	rootCommit, err := gitRepo.RootCommit(ctx)
	if err != nil {
		return err
	}

	// rev-list returns newest first; patches are issued oldest first.
	commits := make([]events.CommitInfo, 0, len(ahead))
	for i := len(ahead) - 1; i >= 0; i-- {
		seriesIndex, seriesTotal := 0, 0
		if cover != nil {
			seriesIndex, seriesTotal = len(commits)+1, len(ahead)
		}
		info, err := events.CollectCommitInfo(ctx, gitRepo, ahead[i], seriesIndex, seriesTotal)
		if err != nil {
			return fmt.Errorf("cannot make patch for commit %s: %w", ahead[i], err)
		}
		commits = append(commits, info)
	}

	opts := events.SeriesOptions{Cover: cover, RootCommit: rootCommit}
	if name, err := gitRepo.CurrentBranchName(ctx); err == nil {
		opts.BranchName = name
	}
	series, err := events.GenerateSeries(ctx, signer, rc.repo, commits, opts)
	if err != nil {
		return err
	}

	patchCount := len(series)
	withLetter := "without"
	if cover != nil {
		patchCount--
		withLetter = "with"
	}
	fmt.Printf("posting %d patches %s a covering letter...\n", patchCount, withLetter)

	return relay.Publish(ctx, rc.client, series, cfg.Relays, rc.repo.Relays, relay.NewTextSink(os.Stderr))
}

// coverDraft gathers the cover letter from flags, prompting for whatever
// is missing unless --no-cover-letter suppressed it.
func coverDraft(prompter interactive.Prompter) (*events.CoverDraft, error) {
	if sendNoCoverLetter {
		return nil, nil
	}
	title := sendTitle
	if title == "" {
		include, err := prompter.Confirm("include cover letter?", false)
		if err != nil || !include {
			return nil, err
		}
		if title, err = prompter.Input("title"); err != nil {
			return nil, err
		}
	}
	description := sendDescription
	if description == "" {
		var err error
		if description, err = prompter.Input("cover letter description"); err != nil {
			return nil, err
		}
	}
	return &events.CoverDraft{Title: title, Description: description}, nil
}

// identifyAheadBehind resolves the source and destination branches and
// the commits separating them.
func identifyAheadBehind(ctx context.Context, gitRepo *git.Repo, fromBranch, toBranch string) (string, string, []string, []string, error) {
	from, fromTip := fromBranch, ""
	var err error
	if from == "" {
		from = "head"
		if fromTip, err = gitRepo.HeadCommit(ctx); err != nil {
			return "", "", nil, nil, fmt.Errorf("checkout a commit or specify a from_branch, head does not reveal a commit: %w", err)
		}
	} else if fromTip, err = gitRepo.TipOf(ctx, from); err != nil {
		return "", "", nil, nil, fmt.Errorf("cannot find from_branch '%s'", from)
	}

	to, toTip := toBranch, ""
	if to == "" {
		if to, toTip, err = gitRepo.MainOrMasterBranch(ctx); err != nil {
			return "", "", nil, nil, fmt.Errorf("a destination branch (to_branch) is not specified and the defaults (main or master) do not exist")
		}
	} else if toTip, err = gitRepo.TipOf(ctx, to); err != nil {
		return "", "", nil, nil, fmt.Errorf("cannot find to_branch '%s'", to)
	}

	ahead, behind, err := gitRepo.CommitsAheadBehind(ctx, toTip, fromTip)
	if err != nil {
		if errors.Is(err, git.ErrNotAncestor) {
			return "", "", nil, nil, fmt.Errorf("'%s' is not branched from '%s': %w", from, to, err)
		}
		return "", "", nil, nil, fmt.Errorf("failed to get commits ahead and behind from '%s' to '%s': %w", from, to, err)
	}
	return from, to, ahead, behind, nil
}
