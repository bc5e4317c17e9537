// Package config loads the optional elementary-l10n.yaml tuning file.
//
// The file is optional. Every key has a default, so an absent file and an
// empty file behave the same. Unknown keys are rejected so typos do not pass
// silently.
//
//	base_url: https://l10n.elementaryos.org
//	language: sv
//	request_delay: 600ms
//	max_retries: 4
//	timeout: 30s
//	max_cache_age: 1h
//	low_threshold: 50
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/elementary-l10n/langmeta"
	"github.com/minios-linux/elementary-l10n/settings"
	"github.com/minios-linux/elementary-l10n/weblate"
)

// FileName is the default config file name inside the config directory.
const FileName = "elementary-l10n.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level elementary-l10n.yaml structure.
type File struct {
	// BaseURL is the Weblate instance (default https://l10n.elementaryos.org).
	BaseURL string `yaml:"base_url,omitempty"`
	// Language is the default language code; empty means detect from the
	// system locale.
	Language string `yaml:"language,omitempty"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`
	// RequestDelay is the pause between consecutive API requests.
	RequestDelay time.Duration `yaml:"request_delay,omitempty"`
	// MaxRetries is the number of 429 backoff rounds before the final attempt.
	MaxRetries int `yaml:"max_retries,omitempty"`
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// MaxCacheAge is how old a cached snapshot may be and still be shown.
	MaxCacheAge time.Duration `yaml:"max_cache_age,omitempty"`
	// LowThreshold is the percentage below which a started translation
	// counts as low coverage.
	LowThreshold float64 `yaml:"low_threshold,omitempty"`
}

// Default returns the built-in settings.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

func (f *File) applyDefaults() {
	if f.BaseURL == "" {
		f.BaseURL = weblate.DefaultBaseURL
	}
	if f.UserAgent == "" {
		f.UserAgent = weblate.DefaultUserAgent
	}
	if f.RequestDelay == 0 {
		f.RequestDelay = weblate.DefaultRequestDelay
	}
	if f.MaxRetries == 0 {
		f.MaxRetries = weblate.DefaultMaxRetries
	}
	if f.Timeout == 0 {
		f.Timeout = weblate.DefaultTimeout
	}
	if f.MaxCacheAge == 0 {
		f.MaxCacheAge = weblate.DefaultMaxCacheAge
	}
	if f.LowThreshold == 0 {
		f.LowThreshold = 50
	}
}

func (f *File) validate() error {
	u, err := url.Parse(f.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q is not an http(s) URL", f.BaseURL)
	}
	if f.Language != "" {
		if _, ok := langmeta.Lookup(f.Language); !ok {
			return fmt.Errorf("language %q is not a known Weblate code (see `elementary-l10n languages`)", f.Language)
		}
		f.Language = langmeta.Normalize(f.Language)
	}
	if f.RequestDelay < 0 {
		return fmt.Errorf("request_delay must not be negative")
	}
	if f.MaxRetries < 0 || f.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 0 and 10, got %d", f.MaxRetries)
	}
	if f.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if f.MaxCacheAge < 0 {
		return fmt.Errorf("max_cache_age must not be negative")
	}
	if f.LowThreshold < 0 || f.LowThreshold > 100 {
		return fmt.Errorf("low_threshold must be between 0 and 100, got %g", f.LowThreshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// DefaultPath returns $XDG_CONFIG_HOME/elementary-l10n/elementary-l10n.yaml.
func DefaultPath() (string, error) {
	dir, err := settings.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LoadFile loads and validates the file at path.
// Returns nil if the file does not exist.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	f.applyDefaults()
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Load resolves the tuning file. An explicit path must exist; otherwise the
// default location is tried and the built-in defaults are used when it is
// absent.
func Load(explicit string) (*File, error) {
	if explicit != "" {
		f, err := LoadFile(explicit)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("config file %s not found", explicit)
		}
		return f, nil
	}

	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return Default(), nil
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Derived values
// ---------------------------------------------------------------------------

// ClientOptions returns the weblate client options described by the file.
func (f *File) ClientOptions() weblate.Options {
	return weblate.Options{
		BaseURL:      f.BaseURL,
		UserAgent:    f.UserAgent,
		RequestDelay: f.RequestDelay,
		MaxRetries:   f.MaxRetries,
		Timeout:      f.Timeout,
	}
}

// ResolveLanguage picks the language to show: the flag value, then the file,
// then the system locale.
func (f *File) ResolveLanguage(flagLang string) (string, error) {
	if flagLang != "" {
		l, ok := langmeta.Lookup(flagLang)
		if !ok {
			return "", fmt.Errorf("unknown language code %q", flagLang)
		}
		return l.Code, nil
	}
	if f.Language != "" {
		return f.Language, nil
	}
	return langmeta.Detect(), nil
}
