package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/nbd-wtf/go-nostr/nip49"
	"github.com/spf13/cobra"

	"github.com/ngit/ngit-go/internal/config"
	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/interactive"
	"github.com/ngit/ngit-go/internal/login"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "store your nsec in the OS keychain",
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompter := interactive.NewTerminal()

	nsec := nsecFlag
	if nsec == "" {
		var err error
		if nsec, err = prompter.Password("nsec or hex private key"); err != nil {
			return err
		}
	}

	// Validate before anything touches the keychain. An encrypted key
	// needs the password to prove it decodes.
	plain := nsec
	if strings.HasPrefix(nsec, "ncryptsec1") {
		if passwordFlag == "" {
			return fmt.Errorf("nsec is encrypted, pass --password to decrypt it")
		}
		var err error
		if plain, err = nip49.Decrypt(nsec, passwordFlag); err != nil {
			return fmt.Errorf("failed to decrypt nsec: %w", err)
		}
	}
	signer, err := events.NewLocalSigner(plain)
	if err != nil {
		return err
	}
	pubkey, err := signer.PublicKey(ctx)
	if err != nil {
		return err
	}

	stored := nsec
	if passwordFlag != "" && !strings.HasPrefix(nsec, "ncryptsec1") {
		hexKey, err := events.SecretKeyHex(plain)
		if err != nil {
			return err
		}
		if stored, err = login.EncryptForStorage(hexKey, passwordFlag); err != nil {
			return err
		}
	}
	if err := config.NewKeyringManager(logger).SaveNsec(stored); err != nil {
		return err
	}

	// Seed an editable config on first login so users can adjust their
	// relay list without hunting for the path.
	if cfgFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path := filepath.Join(home, ".ngit", "config.yaml")
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := cfg.Write(path); err != nil {
					logger.WithError(err).Debug("could not write default config")
				}
			}
		}
	}

	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", npub)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "remove your nsec from the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.NewKeyringManager(logger).DeleteNsec(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}
