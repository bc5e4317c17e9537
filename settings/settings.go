// Package settings stores the user's elementary-l10n settings.
//
// The settings live in the XDG config directory:
//
//	$XDG_CONFIG_HOME/elementary-l10n/config.json  (default: ~/.config/elementary-l10n/)
//
// The document is a flat JSON object. Today it only carries the Weblate
// API key:
//
//	{"api_key": "wlu_..."}
//
// A missing or unreadable file is the same as an empty document. Writes
// create the directory on demand and use 0600 permissions.
//
// Lookup order for the API key:
//  1. --api-key flag (highest priority)
//  2. ELEMENTARY_L10N_API_KEY environment variable
//  3. This settings file
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName = "elementary-l10n"
	fileName   = "config.json"

	// EnvAPIKey overrides the stored API key when set.
	EnvAPIKey = "ELEMENTARY_L10N_API_KEY"
)

// Config is the persisted settings document.
type Config struct {
	// APIKey is the Weblate user API key (optional). Anonymous access works
	// but gets a much lower rate limit.
	APIKey string `json:"api_key,omitempty"`
}

// Store reads and writes one settings file.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns a store at the default XDG location.
func DefaultStore() (*Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, fileName)), nil
}

// ConfigDir returns the elementary-l10n config directory.
// Respects $XDG_CONFIG_HOME (falls back to ~/.config).
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the settings from disk.
// Returns an empty Config if the file doesn't exist or is invalid.
func (s *Store) Load() Config {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// Save writes the settings to disk with 0600 permissions.
func (s *Store) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores the Weblate API key, keeping other settings.
func (s *Store) SetAPIKey(key string) error {
	cfg := s.Load()
	cfg.APIKey = key
	return s.Save(cfg)
}

// RemoveAPIKey clears the stored API key. It is a no-op when none is stored.
func (s *Store) RemoveAPIKey() error {
	cfg := s.Load()
	if cfg.APIKey == "" {
		return nil
	}
	cfg.APIKey = ""
	return s.Save(cfg)
}

// ResolveAPIKey picks the API key to use: flag, then environment, then cfg.
func ResolveAPIKey(flagKey string, cfg Config) string {
	if flagKey != "" {
		return flagKey
	}
	if env := os.Getenv(EnvAPIKey); env != "" {
		return env
	}
	return cfg.APIKey
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
