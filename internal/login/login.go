// Package login resolves the signing capability from CLI flags, the
// environment, or the OS keyring.
package login

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nbd-wtf/go-nostr/nip49"
	"github.com/sirupsen/logrus"

	"github.com/ngit/ngit-go/internal/config"
	"github.com/ngit/ngit-go/internal/events"
	"github.com/ngit/ngit-go/internal/interactive"
)

// Options carry the global signer flags. A nil Prompter means the caller
// cannot prompt (the remote helper), so an encrypted nsec without a
// password is an error there.
type Options struct {
	Nsec         string
	Password     string
	BunkerURI    string
	BunkerAppKey string
	Prompter     interactive.Prompter
}

// Signer resolves a signer in order of preference: bunker flags, --nsec,
// the NGIT_NSEC environment variable, then the OS keyring.
func Signer(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts Options) (events.Signer, error) {
	if opts.BunkerURI != "" || opts.BunkerAppKey != "" {
		if opts.BunkerURI == "" || opts.BunkerAppKey == "" {
			return nil, fmt.Errorf("--bunker-uri and --bunker-app-key must be supplied together")
		}
		return events.NewBunkerSigner(ctx, opts.BunkerURI, opts.BunkerAppKey)
	}

	nsec := opts.Nsec
	if nsec == "" {
		nsec = os.Getenv("NGIT_NSEC")
	}
	if nsec == "" && cfg.UseKeyring {
		stored, err := config.NewKeyringManager(log).GetNsec()
		if err != nil {
			log.WithError(err).Debug("keyring unavailable")
		}
		nsec = stored
	}
	if nsec == "" {
		return nil, events.ErrSignerUnavailable
	}
	return localSigner(nsec, opts)
}

func localSigner(nsec string, opts Options) (events.Signer, error) {
	if strings.HasPrefix(nsec, "ncryptsec1") {
		password := opts.Password
		if password == "" && opts.Prompter != nil {
			var err error
			if password, err = opts.Prompter.Password("password to decrypt nsec"); err != nil {
				return nil, err
			}
		}
		if password == "" {
			return nil, fmt.Errorf("nsec is encrypted, pass --password to decrypt it")
		}
		decrypted, err := nip49.Decrypt(nsec, password)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt nsec: %w", err)
		}
		nsec = decrypted
	}
	return events.NewLocalSigner(nsec)
}

// EncryptForStorage protects an nsec with a password before it goes into
// the keyring. An empty password stores the key as given.
func EncryptForStorage(secretKeyHex, password string) (string, error) {
	if password == "" {
		return secretKeyHex, nil
	}
	encrypted, err := nip49.Encrypt(secretKeyHex, password, 16, 0x02)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt nsec: %w", err)
	}
	return encrypted, nil
}
