// Package cache keeps the last successful fetch on disk.
//
// The cache is a single JSON document holding the language it was fetched
// for, the rows, and a unix timestamp:
//
//	{"language": "sv", "data": [...], "timestamp": 1760000000.5}
//
// It lives in the XDG cache directory:
//
//	$XDG_CACHE_HOME/elementary-l10n/cache.json  (default: ~/.cache/elementary-l10n/)
//
// There is one slot. Every Save overwrites it, whatever the language. Only
// one process is expected to use the file at a time; within a process writes
// are serialized, and each write replaces the file atomically.
package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/minios-linux/elementary-l10n/weblate"
)

const (
	appDirName = "elementary-l10n"
	// FileName is the cache file name.
	FileName = "cache.json"
)

// Record is the persisted cache document.
type Record struct {
	Language  string        `json:"language"`
	Data      []weblate.Row `json:"data"`
	Timestamp float64       `json:"timestamp"`
}

// Time converts the float timestamp to a time.Time.
func (r *Record) Time() time.Time {
	sec, frac := math.Modf(r.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Store is a file-backed single-slot cache.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// DefaultStore returns a store at the default XDG location.
func DefaultStore() (*Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, FileName)), nil
}

// Dir returns the elementary-l10n cache directory.
// Respects $XDG_CACHE_HOME (falls back to ~/.cache).
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", appDirName), nil
}

// Path returns the cache file path.
func (s *Store) Path() string {
	return s.path
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Read returns the stored record whatever its language.
// Returns false if the file doesn't exist or is invalid.
func (s *Store) Read() (*Record, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	if rec.Language == "" || rec.Timestamp <= 0 {
		return nil, false
	}
	return &rec, true
}

// Load returns the cached rows and their timestamp if the stored record is
// for language. Any read or parse error is a miss.
func (s *Store) Load(language string) ([]weblate.Row, time.Time, bool) {
	rec, ok := s.Read()
	if !ok || rec.Language != language {
		return nil, time.Time{}, false
	}
	return rec.Data, rec.Time(), true
}

// Save stamps rows with the current time and replaces the stored record.
func (s *Store) Save(language string, rows []weblate.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rows == nil {
		rows = []weblate.Row{}
	}
	now := s.now()
	rec := Record{
		Language:  language,
		Data:      rows,
		Timestamp: float64(now.Unix()) + float64(now.Nanosecond())/1e9,
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Summary returns a human-readable description of the stored record.
func (s *Store) Summary() string {
	rec, ok := s.Read()
	if !ok {
		return "empty"
	}
	age := s.now().Sub(rec.Time()).Truncate(time.Second)
	return fmt.Sprintf("%s: %d components, fetched %s ago", rec.Language, len(rec.Data), age)
}

var _ weblate.Cache = (*Store)(nil)
