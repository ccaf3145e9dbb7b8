// Package git is a thin capability wrapper over the local repository,
// shelling out to the git binary.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotAncestor is returned when two branch tips share no history, so
// ahead/behind cannot be computed.
var ErrNotAncestor = errors.New("branches do not share a common ancestor")

// Repo wraps one local repository. All commands run with the repository
// as working directory.
type Repo struct {
	Path string
}

// Discover locates the repository enclosing the working directory.
func Discover() (*Repo, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return nil, fmt.Errorf("cannot find a git repository: %w", err)
	}
	return &Repo{Path: strings.TrimSpace(string(out))}, nil
}

// FromPath opens the repository rooted at path.
func FromPath(path string) *Repo {
	return &Repo{Path: path}
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Path
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// RootCommit returns the repository's root commit hash.
func (r *Repo) RootCommit(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-list", "--max-parents=0", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get root commit: %w", err)
	}
	// With multiple orphan roots the oldest (last listed) binds the
	// repository identity.
	lines := strings.Fields(out)
	if len(lines) == 0 {
		return "", fmt.Errorf("repository has no commits")
	}
	return lines[len(lines)-1], nil
}

// HeadCommit returns the commit hash HEAD points at.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "HEAD")
}

// TipOf returns the tip commit of a local branch.
func (r *Repo) TipOf(ctx context.Context, branch string) (string, error) {
	out, err := r.git(ctx, "rev-parse", "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("cannot find branch '%s': %w", branch, err)
	}
	return out, nil
}

// MainOrMasterBranch returns the default destination branch and its tip,
// preferring main over master when both exist.
func (r *Repo) MainOrMasterBranch(ctx context.Context) (string, string, error) {
	for _, name := range []string{"main", "master"} {
		if tip, err := r.TipOf(ctx, name); err == nil {
			return name, tip, nil
		}
	}
	return "", "", fmt.Errorf("the default branches (main or master) do not exist")
}

// CurrentBranchName returns the checked-out branch name, or an error on
// detached HEAD.
func (r *Repo) CurrentBranchName(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", fmt.Errorf("HEAD is detached, not on a branch")
	}
	return out, nil
}

// CommitsAheadBehind lists the commits fromTip has over toTip and vice
// versa, each in topological order newest first. Unrelated histories
// yield ErrNotAncestor.
func (r *Repo) CommitsAheadBehind(ctx context.Context, toTip, fromTip string) (ahead, behind []string, err error) {
	if _, mergeErr := r.git(ctx, "merge-base", toTip, fromTip); mergeErr != nil {
		return nil, nil, fmt.Errorf("%s is not an ancestor of %s: %w", toTip, fromTip, ErrNotAncestor)
	}
	ahead, err = r.revList(ctx, toTip+".."+fromTip)
	if err != nil {
		return nil, nil, err
	}
	behind, err = r.revList(ctx, fromTip+".."+toTip)
	if err != nil {
		return nil, nil, err
	}
	return ahead, behind, nil
}

func (r *Repo) revList(ctx context.Context, rangeSpec string) ([]string, error) {
	out, err := r.git(ctx, "rev-list", "--topo-order", rangeSpec)
	if err != nil {
		return nil, fmt.Errorf("git rev-list failed: %w", err)
	}
	var commits []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if sha := strings.TrimSpace(scanner.Text()); sha != "" {
			commits = append(commits, sha)
		}
	}
	return commits, nil
}

// CreateAndCheckoutBranch creates branch at start and checks it out.
func (r *Repo) CreateAndCheckoutBranch(ctx context.Context, branch, start string) error {
	if _, err := r.git(ctx, "checkout", "-b", branch, start); err != nil {
		return fmt.Errorf("failed to checkout branch '%s': %w", branch, err)
	}
	return nil
}

// Checkout switches the working tree to an existing branch.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	_, err := r.git(ctx, "checkout", branch)
	return err
}

// BranchExists reports whether a local branch exists.
func (r *Repo) BranchExists(ctx context.Context, branch string) bool {
	_, err := r.git(ctx, "rev-parse", "--verify", "refs/heads/"+branch)
	return err == nil
}
