// git-remote-nostr is invoked by git for remotes of the form
// nostr://<bech32>. stdout carries the helper protocol, so every
// diagnostic goes to stderr.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ngit/ngit-go/internal/cache"
	"github.com/ngit/ngit-go/internal/config"
	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/git"
	"github.com/ngit/ngit-go/internal/helper"
	"github.com/ngit/ngit-go/internal/login"
	"github.com/ngit/ngit-go/internal/nostrurl"
	"github.com/ngit/ngit-go/internal/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "git-remote-nostr: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: git-remote-nostr <remote-name> <url>")
	}
	remoteURL := os.Args[2]

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if os.Getenv("NGIT_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	cfg, err := config.Load("")
	if err != nil {
		logger.WithError(err).Warn("Failed to load config, using defaults")
		cfg = config.Default()
	}

	decoded, err := nostrurl.Parse(remoteURL)
	if err != nil {
		return err
	}

	gitRepo, err := git.Discover()
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := relay.NewClient(logger)
	defer client.Close()

	relays := append(append([]string{}, decoded.Relays()...), cfg.Relays...)

	var repoRef *events.RepoRef
	var store *cache.Store
	if decoded.Event != nil {
		store, err = cache.Open(cfg.RepoCachePath(decoded.Event.ID))
		if err != nil {
			return err
		}
		repoRef, err = client.FetchRepoByPointer(ctx, store, relays, decoded.Event.ID, "", "")
	} else {
		coord := fmt.Sprintf("%d:%s:%s", decoded.Coordinate.Kind, decoded.Coordinate.PublicKey, decoded.Coordinate.Identifier)
		store, err = cache.Open(cfg.RepoCachePath(coord))
		if err != nil {
			return err
		}
		repoRef, err = client.FetchRepoByPointer(ctx, store, relays, "", decoded.Coordinate.PublicKey, decoded.Coordinate.Identifier)
	}
	if err != nil {
		store.Close()
		return err
	}
	defer store.Close()

	if err := client.RefreshProposals(ctx, store, repoRef, append(repoRef.Relays, relays...)); err != nil {
		logger.WithError(err).Debug("proposal refresh failed, using cached events")
	}

	h := &helper.Helper{
		In:            bufio.NewReader(os.Stdin),
		Out:           os.Stdout,
		Log:           logger,
		Git:           gitRepo,
		Repo:          repoRef,
		Decoded:       decoded,
		Store:         store,
		Client:        client,
		MyWriteRelays: cfg.Relays,
		SignerFor: func(ctx context.Context) (events.Signer, error) {
			// The helper cannot prompt; the credential must already be
			// loaded in the environment or keyring.
			return login.Signer(ctx, cfg, logger, login.Options{})
		},
	}
	return h.Run(ctx)
}
