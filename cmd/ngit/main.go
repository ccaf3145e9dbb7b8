package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ngit/ngit-go/internal/cache"
	"github.com/ngit/ngit-go/internal/config"
	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/git"
	"github.com/ngit/ngit-go/internal/interactive"
	"github.com/ngit/ngit-go/internal/login"
	"github.com/ngit/ngit-go/internal/relay"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config

	// global signer flags
	nsecFlag         string
	passwordFlag     string
	bunkerURIFlag    string
	bunkerAppKeyFlag string
	disableSpinners  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ngit",
	Short:   "ngit - collaborate on git repositories over nostr",
	Long:    `ngit publishes commits as signed proposal events, lists proposals from relays, and checks them out as ordinary branches.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.WarnLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.ngit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&nsecFlag, "nsec", "", "nsec or hex private key")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "password to decrypt nsec")
	rootCmd.PersistentFlags().StringVar(&bunkerURIFlag, "bunker-uri", "", "remote signer address")
	rootCmd.PersistentFlags().StringVar(&bunkerAppKeyFlag, "bunker-app-key", "", "remote signer app secret key")
	rootCmd.PersistentFlags().BoolVar(&disableSpinners, "disable-cli-spinners", false, "disable spinner animations")

	rootCmd.SetVersionTemplate(`ngit {{.Version}}
Build time: ` + BuildTime + `
`)

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// resolveSigner loads the signing capability with terminal prompts
// allowed.
func resolveSigner(ctx context.Context) (events.Signer, error) {
	return login.Signer(ctx, cfg, logger, login.Options{
		Nsec:         nsecFlag,
		Password:     passwordFlag,
		BunkerURI:    bunkerURIFlag,
		BunkerAppKey: bunkerAppKeyFlag,
		Prompter:     interactive.NewTerminal(),
	})
}

// repoContext bundles what every repository-facing command needs.
type repoContext struct {
	git    *git.Repo
	store  *cache.Store
	client *relay.Client
	repo   *events.RepoRef
}

// openRepoContext discovers the enclosing repository and resolves its
// announcement from the configured relays, caching along the way.
func openRepoContext(ctx context.Context) (*repoContext, error) {
	gitRepo, err := git.Discover()
	if err != nil {
		return nil, err
	}
	rootCommit, err := gitRepo.RootCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get root commit of the repository: %w", err)
	}
	store, err := cache.Open(cfg.RepoCachePath(rootCommit))
	if err != nil {
		return nil, err
	}
	client := relay.NewClient(logger)
	repoRef, err := client.FetchRepoByRootCommit(ctx, store, cfg.Relays, rootCommit)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &repoContext{git: gitRepo, store: store, client: client, repo: repoRef}, nil
}

func (rc *repoContext) close() {
	rc.client.Close()
	rc.store.Close()
}

// relaySet returns the repository's relays with the configured fallbacks
// appended.
func (rc *repoContext) relaySet() []string {
	return append(append([]string{}, rc.repo.Relays...), cfg.Relays...)
}
