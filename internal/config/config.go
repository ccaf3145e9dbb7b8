// Package config loads the CLI configuration and manages the signing
// credential at rest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all ngit settings.
type Config struct {
	// Relays are the user's write relays; they are also queried as
	// fallbacks when looking up repositories and proposals.
	Relays []string `yaml:"relays" mapstructure:"relays"`

	// CacheDirectory is where per-repository event caches live.
	CacheDirectory string `yaml:"cache_directory" mapstructure:"cache_directory"`

	// UseKeyring stores the nsec in the OS keychain instead of
	// requiring --nsec on every invocation.
	UseKeyring bool `yaml:"use_keyring" mapstructure:"use_keyring"`
}

// Default returns the built-in configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Relays: []string{
			"wss://relay.damus.io",
			"wss://nos.lol",
			"wss://relay.nostr.band",
		},
		CacheDirectory: filepath.Join(homeDir, ".ngit", "cache"),
		UseKeyring:     true,
	}
}

// Load reads configuration from the given file, or ~/.ngit/config.yaml
// when path is empty. A .env file and NGIT_-prefixed environment
// variables overlay the file.
func Load(path string) (*Config, error) {
	// A local .env is optional; ignore its absence.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".ngit"))
		v.SetConfigName("config")
	}
	v.SetEnvPrefix("NGIT")
	v.AutomaticEnv()

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	// A relay list in the file replaces the defaults instead of being
	// decoded over them element by element.
	if v.IsSet("relays") {
		cfg.Relays = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Write persists the configuration as YAML at path, creating parent
// directories as needed.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// RepoCachePath returns the event cache file for a repository identity.
func (c *Config) RepoCachePath(coordinate string) string {
	safe := ""
	for _, r := range coordinate {
		if r == ':' || r == '/' {
			r = '_'
		}
		safe += string(r)
	}
	return filepath.Join(c.CacheDirectory, safe+".db")
}
