package login

import (
	"context"
	"io"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip49"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngit/ngit-go/internal/config"
	"github.com/ngit/ngit-go/internal/events"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func noKeyringConfig() *config.Config {
	cfg := config.Default()
	cfg.UseKeyring = false
	return cfg
}

func TestSigner_NsecFlag(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	signer, err := Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{Nsec: sk})
	require.NoError(t, err)

	pk, err := signer.PublicKey(context.Background())
	require.NoError(t, err)
	want, _ := nostr.GetPublicKey(sk)
	assert.Equal(t, want, pk)
}

func TestSigner_EnvFallback(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	t.Setenv("NGIT_NSEC", sk)

	signer, err := Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, signer)
}

func TestSigner_NoCredential(t *testing.T) {
	t.Setenv("NGIT_NSEC", "")
	_, err := Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{})
	assert.ErrorIs(t, err, events.ErrSignerUnavailable)
}

func TestSigner_BunkerFlagsMustPair(t *testing.T) {
	_, err := Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{BunkerURI: "bunker://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be supplied together")

	_, err = Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{BunkerAppKey: "abc"})
	assert.Error(t, err)
}

func TestSigner_EncryptedNsecNeedsPassword(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	encrypted, err := nip49.Encrypt(sk, "hunter2", 16, 0x02)
	require.NoError(t, err)

	_, err = Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{Nsec: encrypted})
	assert.Error(t, err)

	signer, err := Signer(context.Background(), noKeyringConfig(), quietLogger(), Options{Nsec: encrypted, Password: "hunter2"})
	require.NoError(t, err)
	assert.NotNil(t, signer)
}

func TestEncryptForStorage_RoundTrip(t *testing.T) {
	sk := nostr.GeneratePrivateKey()

	stored, err := EncryptForStorage(sk, "")
	require.NoError(t, err)
	assert.Equal(t, sk, stored, "empty password stores the key as given")

	stored, err = EncryptForStorage(sk, "hunter2")
	require.NoError(t, err)
	decrypted, err := nip49.Decrypt(stored, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, sk, decrypted)
}
