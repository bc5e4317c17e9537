package weblate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// fakeWeblate is an httptest server that answers for DefaultBaseURL through
// a rewriting transport, so links in responses can use the real host.
type fakeWeblate struct {
	mux    *http.ServeMux
	server *httptest.Server

	mu   sync.Mutex
	hits map[string]int
	auth []string
	ua   []string
}

func newFakeWeblate(t *testing.T) *fakeWeblate {
	t.Helper()
	fw := &fakeWeblate{mux: http.NewServeMux(), hits: make(map[string]int)}
	fw.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fw.mu.Lock()
		fw.hits[r.URL.Path]++
		fw.auth = append(fw.auth, r.Header.Get("Authorization"))
		fw.ua = append(fw.ua, r.Header.Get("User-Agent"))
		fw.mu.Unlock()
		fw.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fw.server.Close)
	return fw
}

func (fw *fakeWeblate) hitCount(path string) int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.hits[path]
}

// RoundTrip sends every request to the test server, keeping path and query.
func (fw *fakeWeblate) RoundTrip(req *http.Request) (*http.Response, error) {
	target, err := url.Parse(fw.server.URL)
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.URL.Scheme = target.Scheme
	out.URL.Host = target.Host
	out.Host = target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func (fw *fakeWeblate) handleJSON(path string, v any) {
	fw.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, v)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pageOf(next string, results ...map[string]any) map[string]any {
	p := map[string]any{"count": len(results), "results": results}
	if next != "" {
		p["next"] = next
	} else {
		p["next"] = nil
	}
	return p
}

func named(name, slug string) map[string]any {
	return map[string]any{"name": name, "slug": slug}
}

// sleepRecorder replaces real sleeps and remembers the requested durations.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func (s *sleepRecorder) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Waits() {
		total += d
	}
	return total
}

func (fw *fakeWeblate) clientOptions(sleeper *sleepRecorder) Options {
	return Options{Transport: fw, Sleep: sleeper.Sleep}
}

// filesCoreSv registers the one-project, one-component installation.
func (fw *fakeWeblate) filesCoreSv() {
	fw.handleJSON("/api/projects/", pageOf("", named("Files", "files")))
	fw.handleJSON("/api/projects/files/components/", pageOf("", named("core", "core")))
	fw.handleJSON("/api/translations/files/core/sv/statistics/", map[string]any{"translated_percent": 87.5})
}
