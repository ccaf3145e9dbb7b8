package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain.
	KeyringService = "ngit"

	// KeyringNsecItem is the key under which the signing secret lives.
	KeyringNsecItem = "nsec"
)

// KeyringManager stores the nsec in the OS keychain:
// macOS Keychain, Windows Credential Manager, or Secret Service on Linux.
type KeyringManager struct {
	log *logrus.Logger
}

// NewKeyringManager returns a keyring manager.
func NewKeyringManager(log *logrus.Logger) *KeyringManager {
	return &KeyringManager{log: log}
}

// SaveNsec stores the signing secret.
func (km *KeyringManager) SaveNsec(nsec string) error {
	if nsec == "" {
		return fmt.Errorf("nsec cannot be empty")
	}
	if err := keyring.Set(KeyringService, KeyringNsecItem, nsec); err != nil {
		return fmt.Errorf("failed to save nsec to OS keychain: %w", err)
	}
	km.log.Debug("nsec saved to keychain")
	return nil
}

// GetNsec retrieves the signing secret. A missing entry is not an error;
// it returns "".
func (km *KeyringManager) GetNsec() (string, error) {
	nsec, err := keyring.Get(KeyringService, KeyringNsecItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read nsec from OS keychain: %w", err)
	}
	return nsec, nil
}

// DeleteNsec removes the signing secret. Deleting an absent entry is a
// no-op.
func (km *KeyringManager) DeleteNsec() error {
	err := keyring.Delete(KeyringService, KeyringNsecItem)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete nsec from OS keychain: %w", err)
	}
	km.log.Debug("nsec deleted from keychain")
	return nil
}
