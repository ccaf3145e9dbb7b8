package helper

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ngit/ngit-go/internal/cache"
	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/git"
	"github.com/ngit/ngit-go/internal/nostrurl"
	"github.com/ngit/ngit-go/internal/output"
	"github.com/ngit/ngit-go/internal/relay"
)

// Helper runs the remote-helper conversation for one git invocation.
// Its stdout belongs to the protocol; diagnostics go to the logger,
// which must write to stderr.
type Helper struct {
	In  *bufio.Reader
	Out io.Writer
	Log *logrus.Logger

	Git     *git.Repo
	Repo    *events.RepoRef
	Decoded *nostrurl.Decoded
	Store   *cache.Store
	Client  *relay.Client

	// MyWriteRelays receives revision events alongside the repo relays.
	MyWriteRelays []string

	// SignerFor resolves the signing capability lazily; only push needs
	// it and loading a credential may prompt or fail.
	SignerFor func(ctx context.Context) (events.Signer, error)
}

// Run processes commands until the host git closes stdin. Protocol
// violations abort with an error; the caller reports it on stderr and
// exits non-zero.
func (h *Helper) Run(ctx context.Context) error {
	for {
		tokens, err := ReadLine(h.In)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read from git: %w", err)
		}
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "capabilities":
			fmt.Fprint(h.Out, "fetch\npush\n\n")
		case "list":
			if err := h.handleList(ctx); err != nil {
				return err
			}
		case "fetch":
			if len(tokens) != 3 {
				return fmt.Errorf("unexpected tokens in fetch command: %v", tokens)
			}
			batch, err := CollectFetchBatch(h.In, tokens[1], tokens[2])
			if err != nil {
				return err
			}
			if err := h.handleFetch(ctx, batch); err != nil {
				return err
			}
		case "push":
			if len(tokens) != 2 {
				return fmt.Errorf("unexpected tokens in push command: %v", tokens)
			}
			batch, err := CollectPushBatch(h.In, tokens[1])
			if err != nil {
				return err
			}
			if err := h.handlePush(ctx, batch); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown command from git: %q", tokens[0])
		}
	}
}

// selectTransport finds the first (server, protocol) combination that
// answers, per the ordered fallback for each server. The probe runs the
// actual operation; recoverable transport failures fall through to the
// next candidate.
func (h *Helper) selectTransport(ctx context.Context, probe func(url string, allowPrompt bool) error) error {
	var lastErr error
	for _, server := range h.Repo.GitServers {
		clone := nostrurl.CloneURL{Raw: server}
		for _, proto := range nostrurl.ReadProtocolsToTry(clone, h.Decoded.Protocol) {
			url, err := nostrurl.URLFor(clone, proto)
			if err != nil {
				lastErr = err
				continue
			}
			if err := probe(url, proto.AllowsPrompt()); err != nil {
				h.Log.WithError(err).WithFields(logrus.Fields{
					"server":   h.Git.ShortServerName(ctx, server),
					"protocol": proto.String(),
				}).Debug("transport attempt failed")
				lastErr = err
				continue
			}
			return nil
		}
	}
	if lastErr == nil {
		return fmt.Errorf("repository announcement lists no git servers")
	}
	names := make([]string, 0, len(h.Repo.GitServers))
	for _, server := range h.Repo.GitServers {
		names = append(names, h.Git.ShortServerName(ctx, server))
	}
	return fmt.Errorf("failed to connect to %s: %w", output.JoinWithAnd(names), lastErr)
}

// handleList prints `<oid> <refname>` for every branch the first
// responsive git server advertises, plus the HEAD alias, then a blank
// line.
func (h *Helper) handleList(ctx context.Context) error {
	var branches []git.RemoteBranch
	var head string
	err := h.selectTransport(ctx, func(url string, allowPrompt bool) error {
		var probeErr error
		branches, head, probeErr = h.Git.ListServerBranches(ctx, url, allowPrompt)
		return probeErr
	})
	if err != nil {
		return err
	}
	for _, b := range branches {
		fmt.Fprintf(h.Out, "%s refs/heads/%s\n", b.Oid, b.Name)
	}
	for _, b := range branches {
		if b.Name == head {
			fmt.Fprintf(h.Out, "%s HEAD\n", b.Oid)
			break
		}
	}
	fmt.Fprint(h.Out, "\n")
	return nil
}

// handleFetch fetches every object in the batch through the selected
// transport and acknowledges with a blank line.
func (h *Helper) handleFetch(ctx context.Context, batch map[string]string) error {
	oids := make([]string, 0, len(batch))
	seen := map[string]bool{}
	for _, oid := range batch {
		if !seen[oid] {
			seen[oid] = true
			oids = append(oids, oid)
		}
	}
	err := h.selectTransport(ctx, func(url string, allowPrompt bool) error {
		return h.Git.FetchObjects(ctx, url, oids, allowPrompt)
	})
	if err != nil {
		return err
	}
	fmt.Fprint(h.Out, "\n")
	return nil
}
