package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/nbd-wtf/go-nostr/nip46"
)

// ErrSignerUnavailable is returned when no signing credential is loaded.
// Commands that publish treat it as fatal.
var ErrSignerUnavailable = errors.New("no signing credential available, run `ngit login` or pass --nsec")

// Signer finalizes events: it sets pubkey, id and signature. The signing
// backend (local secret or remote bunker) stays opaque to the codec.
type Signer interface {
	Sign(ctx context.Context, e *nostr.Event) error
	PublicKey(ctx context.Context) (string, error)
}

// SecretKeyHex normalizes a bech32 nsec or hex secret key to hex.
func SecretKeyHex(key string) (string, error) {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "nsec1") {
		prefix, value, err := nip19.Decode(key)
		if err != nil || prefix != "nsec" {
			return "", fmt.Errorf("invalid nsec: %w", err)
		}
		return value.(string), nil
	}
	if _, err := nostr.GetPublicKey(key); err != nil {
		return "", fmt.Errorf("invalid secret key: %w", err)
	}
	return key, nil
}

// LocalSigner signs with an in-process secret key.
type LocalSigner struct {
	secretKey string
}

// NewLocalSigner accepts a hex secret key or a bech32 nsec.
func NewLocalSigner(key string) (*LocalSigner, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrSignerUnavailable
	}
	hexKey, err := SecretKeyHex(key)
	if err != nil {
		return nil, err
	}
	return &LocalSigner{secretKey: hexKey}, nil
}

func (s *LocalSigner) Sign(_ context.Context, e *nostr.Event) error {
	return e.Sign(s.secretKey)
}

func (s *LocalSigner) PublicKey(_ context.Context) (string, error) {
	return nostr.GetPublicKey(s.secretKey)
}

// BunkerSigner delegates signing to a NIP-46 remote signer.
type BunkerSigner struct {
	client *nip46.BunkerClient
}

// NewBunkerSigner connects to the remote signer at bunkerURI using the
// supplied client app key.
func NewBunkerSigner(ctx context.Context, bunkerURI, appKey string) (*BunkerSigner, error) {
	client, err := nip46.ConnectBunker(ctx, appKey, bunkerURI, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bunker: %w", err)
	}
	return &BunkerSigner{client: client}, nil
}

func (s *BunkerSigner) Sign(ctx context.Context, e *nostr.Event) error {
	return s.client.SignEvent(ctx, e)
}

func (s *BunkerSigner) PublicKey(ctx context.Context) (string, error) {
	return s.client.GetPublicKey(ctx)
}
