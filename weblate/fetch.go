package weblate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minios-linux/elementary-l10n/settings"
)

// DefaultMaxCacheAge is how old a cached snapshot may be and still be shown.
const DefaultMaxCacheAge = time.Hour

// Kind tells which outcome a Result carries.
type Kind int

const (
	// KindCached carries a recent snapshot from the cache store.
	KindCached Kind = iota + 1
	// KindFresh carries rows from a completed network fetch.
	KindFresh
	// KindFailed carries the error that aborted a fetch.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindCached:
		return "cached"
	case KindFresh:
		return "fresh"
	case KindFailed:
		return "failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result is one outcome of a fetch.
type Result struct {
	Kind Kind
	// Rows is set for KindCached and KindFresh.
	Rows []Row
	// AgeMinutes is the whole minutes since the snapshot was taken
	// (KindCached only).
	AgeMinutes int
	// Err is set for KindFailed.
	Err error
	// Generation identifies the fetch; a higher generation supersedes
	// every lower one.
	Generation uint64
	// FetchID is a unique id for log correlation.
	FetchID string
}

// ConfigLoader supplies the persisted settings read before each fetch.
type ConfigLoader interface {
	Load() settings.Config
}

// Cache is the single-slot snapshot store used by a Fetcher.
type Cache interface {
	// Load returns the stored rows and their timestamp if the stored
	// snapshot is for language.
	Load(language string) ([]Row, time.Time, bool)
	// Save replaces the stored snapshot.
	Save(language string, rows []Row) error
}

// FetchOptions tunes a single fetch.
type FetchOptions struct {
	// Force skips the cached outcome and always waits for the network.
	Force bool
}

// Fetcher runs full fetches in the background and reports their outcomes.
//
// Starting a fetch supersedes the previous one: its context is cancelled,
// it will not write the cache, and it ends with ErrSuperseded.
type Fetcher struct {
	opts     Options
	settings ConfigLoader
	cache    Cache
	maxAge   time.Duration
	now      func() time.Time

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewFetcher returns a Fetcher. opts is the template for the Client built
// on every fetch; opts.APIKey, when set, wins over the stored key.
func NewFetcher(cfg ConfigLoader, cache Cache, opts Options) *Fetcher {
	return &Fetcher{
		opts:     opts,
		settings: cfg,
		cache:    cache,
		maxAge:   DefaultMaxCacheAge,
		now:      time.Now,
	}
}

// SetMaxCacheAge changes how old a cached snapshot may be.
func (f *Fetcher) SetMaxCacheAge(d time.Duration) {
	if d > 0 {
		f.maxAge = d
	}
}

// IsCurrent reports whether gen is the most recently started fetch.
func (f *Fetcher) IsCurrent(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gen == f.generation
}

// Fetch starts a fetch of every component's status for language.
//
// The returned channel first yields a KindCached result when a matching
// snapshot younger than the max cache age exists (unless opts.Force), then
// exactly one KindFresh or KindFailed result, and is then closed. The caller
// does not have to drain it.
func (f *Fetcher) Fetch(ctx context.Context, language string, opts FetchOptions) <-chan Result {
	cached, results := f.start(ctx, language, opts.Force)
	if cached == nil {
		return results
	}

	out := make(chan Result, 2)
	out <- *cached
	go func() {
		defer close(out)
		for r := range results {
			out <- r
		}
	}()
	return out
}

// FetchAll is the callback form of Fetch. onCache is called before FetchAll
// returns; onSuccess or onError is called later from another goroutine.
// Passing a nil onCache forces a network refresh. Outcomes of a fetch that
// has been superseded are dropped.
func (f *Fetcher) FetchAll(language string, onSuccess func([]Row), onError func(error), onCache func(rows []Row, ageMinutes int)) {
	cached, results := f.start(context.Background(), language, onCache == nil)
	if cached != nil {
		onCache(cached.Rows, cached.AgeMinutes)
	}

	go func() {
		for r := range results {
			if !f.IsCurrent(r.Generation) {
				continue
			}
			switch r.Kind {
			case KindFresh:
				if onSuccess != nil {
					onSuccess(r.Rows)
				}
			case KindFailed:
				if onError != nil {
					onError(r.Err)
				}
			}
		}
	}()
}

// start bumps the generation, checks the cache on the calling goroutine,
// and launches the worker.
func (f *Fetcher) start(ctx context.Context, language string, force bool) (*Result, <-chan Result) {
	gen, ctx, cancel := f.begin(ctx)
	id := uuid.NewString()

	var cached *Result
	if !force {
		if r, ok := f.cached(language); ok {
			r.Generation = gen
			r.FetchID = id
			cached = &r
		}
	}

	results := make(chan Result, 1)
	go f.run(ctx, cancel, gen, id, language, results)
	return cached, results
}

func (f *Fetcher) begin(parent context.Context) (uint64, context.Context, context.CancelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	return f.generation, ctx, cancel
}

// cached returns the stored snapshot if it matches language and is recent.
func (f *Fetcher) cached(language string) (Result, bool) {
	if f.cache == nil {
		return Result{}, false
	}
	rows, ts, ok := f.cache.Load(language)
	if !ok {
		return Result{}, false
	}

	age := f.now().Sub(ts)
	if age < 0 {
		age = 0
	}
	if age >= f.maxAge {
		return Result{}, false
	}

	return Result{
		Kind:       KindCached,
		Rows:       rows,
		AgeMinutes: int(age / time.Minute),
	}, true
}

// clientOptions builds the Client options for one fetch, reading the stored
// API key.
func (f *Fetcher) clientOptions() Options {
	opts := f.opts
	var cfg settings.Config
	if f.settings != nil {
		cfg = f.settings.Load()
	}
	opts.APIKey = settings.ResolveAPIKey(f.opts.APIKey, cfg)
	return opts
}

func (f *Fetcher) logf(format string, args ...any) {
	if f.opts.OnLog != nil {
		f.opts.OnLog(format, args...)
	}
}

// run is the background worker of one fetch. It sends exactly one result.
func (f *Fetcher) run(ctx context.Context, cancel context.CancelFunc, gen uint64, id, language string, out chan<- Result) {
	defer close(out)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			out <- Result{Kind: KindFailed, Err: fmt.Errorf("fetch panicked: %v", p), Generation: gen, FetchID: id}
		}
	}()

	fail := func(err error) {
		f.logf("[DEBUG] fetch %s (%s) failed: %v", id, language, err)
		out <- Result{Kind: KindFailed, Err: err, Generation: gen, FetchID: id}
	}

	f.logf("[DEBUG] fetch %s started for %s (generation %d)", id, language, gen)
	client := NewClient(f.clientOptions())
	rows, err := client.FetchRows(ctx, language)
	if err != nil {
		if !f.IsCurrent(gen) && errors.Is(err, context.Canceled) {
			err = ErrSuperseded
		}
		fail(err)
		return
	}

	// Check-and-save under the lock so a newer fetch cannot start between
	// the check and the write.
	f.mu.Lock()
	current := gen == f.generation
	if current && f.cache != nil {
		err = f.cache.Save(language, rows)
	}
	f.mu.Unlock()

	if !current {
		fail(ErrSuperseded)
		return
	}
	if err != nil {
		fail(fmt.Errorf("saving cache: %w", err))
		return
	}

	f.logf("[DEBUG] fetch %s finished: %d rows", id, len(rows))
	out <- Result{Kind: KindFresh, Rows: rows, Generation: gen, FetchID: id}
}
