package git

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
)

// RemoteBranch is one heads entry advertised by a git server.
type RemoteBranch struct {
	Oid  string
	Name string // short branch name, without refs/heads/
}

// ListServerBranches asks a git server for its branches and HEAD. When
// allowPrompt is false the underlying transport must not ask for
// credentials; it fails instead.
func (r *Repo) ListServerBranches(ctx context.Context, serverURL string, allowPrompt bool) (branches []RemoteBranch, head string, err error) {
	cmd := exec.CommandContext(ctx, "git", "ls-remote", "--symref", serverURL, "HEAD", "refs/heads/*")
	cmd.Dir = r.Path
	cmd.Env = transportEnv(allowPrompt)
	out, err := cmd.Output()
	if err != nil {
		return nil, "", fmt.Errorf("ls-remote against %s failed: %w", serverURL, err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch {
		case fields[0] == "ref:" && len(fields) >= 3 && fields[2] == "HEAD":
			head = strings.TrimPrefix(fields[1], "refs/heads/")
		case strings.HasPrefix(fields[1], "refs/heads/"):
			branches = append(branches, RemoteBranch{
				Oid:  fields[0],
				Name: strings.TrimPrefix(fields[1], "refs/heads/"),
			})
		}
	}
	return branches, head, nil
}

// FetchObjects fetches the given object ids from a git server into the
// local object database.
func (r *Repo) FetchObjects(ctx context.Context, serverURL string, oids []string, allowPrompt bool) error {
	args := append([]string{"fetch", serverURL}, oids...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Path
	cmd.Env = transportEnv(allowPrompt)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("fetch from %s failed: %w (%s)", serverURL, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func transportEnv(allowPrompt bool) []string {
	env := os.Environ()
	if !allowPrompt {
		env = append(env, "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=true")
	}
	return env
}

// RemoteNameByURL returns the configured remote whose URL matches, or ""
// when no remote does.
func (r *Repo) RemoteNameByURL(ctx context.Context, matchURL string) (string, error) {
	out, err := r.git(ctx, "remote", "-v")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == matchURL {
			return fields[0], nil
		}
	}
	return "", nil
}

// ShortServerName renders a git server URL the way listings show it: the
// matching remote's name, else the host, else the raw URL.
func (r *Repo) ShortServerName(ctx context.Context, serverURL string) string {
	if name, err := r.RemoteNameByURL(ctx, serverURL); err == nil && name != "" {
		return name
	}
	if u, err := url.Parse(serverURL); err == nil && u.Host != "" {
		return u.Host
	}
	return serverURL
}
