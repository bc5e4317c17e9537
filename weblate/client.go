// Package weblate is a small client for the Weblate REST API.
//
// It lists projects and components, reads per-language translation
// statistics, and assembles them into Rows. Every request goes through a
// retry wrapper that backs off on HTTP 429 (2s, 4s, 8s, 16s), and the client
// waits RequestDelay between consecutive requests to stay under the server's
// rate limit.
package weblate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the elementary OS Weblate instance.
	DefaultBaseURL = "https://l10n.elementaryos.org"
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "elementary-l10n/0.1.0"
	// DefaultRequestDelay is the pause between consecutive requests.
	DefaultRequestDelay = 600 * time.Millisecond
	// DefaultMaxRetries is the number of attempts that may end in a 429
	// backoff before one last unconditional attempt.
	DefaultMaxRetries = 4
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// BaseURL is the Weblate site root, without the /api suffix.
	BaseURL string
	// APIKey is sent as "Authorization: Token <key>" when non-empty.
	APIKey string
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// RequestDelay is the pause between consecutive requests.
	RequestDelay time.Duration
	// MaxRetries is the number of 429-retryable attempts.
	MaxRetries int
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// Sleep waits for d or until ctx is done. Tests replace it to avoid
	// real waits.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnLog receives debug and warning messages.
	OnLog func(format string, args ...any)
	// Transport overrides the HTTP transport (proxies, tests).
	Transport http.RoundTripper
}

// Client talks to one Weblate instance. Requests made by one Client are
// strictly sequential.
type Client struct {
	baseURL    string
	http       *resty.Client
	delay      time.Duration
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	onLog      func(format string, args ...any)
}

// NewClient builds a Client with an authenticated session.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		hc.SetHeader("Authorization", "Token "+opts.APIKey)
	}
	if opts.Transport != nil {
		hc.SetTransport(opts.Transport)
	}

	c := &Client{
		baseURL:    base,
		http:       hc,
		delay:      opts.RequestDelay,
		maxRetries: opts.MaxRetries,
		sleep:      opts.Sleep,
		onLog:      opts.OnLog,
	}
	if c.delay <= 0 {
		c.delay = DefaultRequestDelay
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

func (c *Client) log(format string, args ...any) {
	if c.onLog != nil {
		c.onLog(format, args...)
	}
}

// sleepContext waits for d unless ctx is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// URLs
// ---------------------------------------------------------------------------

func (c *Client) apiURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/api/" + strings.Join(escaped, "/") + "/"
}

// ComponentURL returns the web page of a component.
func (c *Client) ComponentURL(projectSlug, componentSlug string) string {
	return fmt.Sprintf("%s/projects/%s/%s/", c.baseURL, projectSlug, componentSlug)
}

// TranslateURL returns the web page of a component's translation into lang.
func (c *Client) TranslateURL(projectSlug, componentSlug, lang string) string {
	return fmt.Sprintf("%s/projects/%s/%s/%s/", c.baseURL, projectSlug, componentSlug, lang)
}

// ---------------------------------------------------------------------------
// Request plumbing
// ---------------------------------------------------------------------------

// backoff returns the wait after the given 0-based rate-limited attempt.
func backoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt+1)) * time.Second
}

func (c *Client) get(ctx context.Context, rawURL string) (*resty.Response, error) {
	c.log("[DEBUG] GET %s", rawURL)
	resp, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	return resp, nil
}

func statusError(rawURL string, resp *resty.Response) error {
	return &StatusError{
		StatusCode: resp.StatusCode(),
		URL:        rawURL,
		Body:       truncate(strings.TrimSpace(resp.String()), 200),
	}
}

// requestWithRetry GETs rawURL. A 429 response is retried after 2^(attempt+1)
// seconds, up to maxRetries times; then one final attempt is made whose
// failure is returned. Other non-2xx responses fail immediately.
func (c *Client) requestWithRetry(ctx context.Context, rawURL string) (*resty.Response, error) {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := c.get(ctx, rawURL)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode() == http.StatusTooManyRequests {
			wait := backoff(attempt)
			c.log("[WARN] 429 rate limited, waiting %v before retry (attempt %d/%d)", wait, attempt+1, c.maxRetries)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if !resp.IsSuccess() {
			return nil, statusError(rawURL, resp)
		}
		return resp, nil
	}

	// Final attempt
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusError(rawURL, resp)
	}
	return resp, nil
}

// getOne GETs rawURL and decodes the body into a T.
func getOne[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	var v T
	resp, err := c.requestWithRetry(ctx, rawURL)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	return v, nil
}

// getAll follows the "next" links starting at rawURL and concatenates every
// page's results. It waits the request delay between pages.
func getAll[T any](ctx context.Context, c *Client, rawURL string) ([]T, error) {
	var results []T
	for rawURL != "" {
		p, err := getOne[page[T]](ctx, c, rawURL)
		if err != nil {
			return nil, err
		}
		results = append(results, p.Results...)

		rawURL = p.Next
		if rawURL != "" {
			if err := c.sleep(ctx, c.delay); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// Projects lists every project on the instance.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	return getAll[Project](ctx, c, c.apiURL("projects"))
}

// Components lists the components of a project.
func (c *Client) Components(ctx context.Context, projectSlug string) ([]Component, error) {
	return getAll[Component](ctx, c, c.apiURL("projects", projectSlug, "components"))
}

// TranslationStatistics returns the statistics of one component translated
// into lang. It is a single request with no pagination.
func (c *Client) TranslationStatistics(ctx context.Context, projectSlug, componentSlug, lang string) (*Statistics, error) {
	st, err := getOne[Statistics](ctx, c, c.apiURL("translations", projectSlug, componentSlug, lang, "statistics"))
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ComponentStatistics returns per-language statistics of one component.
func (c *Client) ComponentStatistics(ctx context.Context, projectSlug, componentSlug string) ([]Statistics, error) {
	return getAll[Statistics](ctx, c, c.apiURL("components", projectSlug, componentSlug, "statistics"))
}

// ---------------------------------------------------------------------------
// Full fetch
// ---------------------------------------------------------------------------

// FetchRows walks every project and component and returns one Row per
// component with its translation percentage for lang, in API order.
//
// A non-2xx answer for a single statistics request means the component has
// no translation for lang and yields 0%. Any other error aborts the walk.
func (c *Client) FetchRows(ctx context.Context, lang string) ([]Row, error) {
	projects, err := c.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	c.log("[DEBUG] %d projects", len(projects))

	rows := make([]Row, 0, len(projects))
	for _, proj := range projects {
		if err := c.sleep(ctx, c.delay); err != nil {
			return nil, err
		}
		components, err := c.Components(ctx, proj.Slug)
		if err != nil {
			return nil, fmt.Errorf("fetching components of %s: %w", proj.Slug, err)
		}

		for _, comp := range components {
			if err := c.sleep(ctx, c.delay); err != nil {
				return nil, err
			}
			pct, err := c.translatedPercent(ctx, proj.Slug, comp.Slug, lang)
			if err != nil {
				return nil, fmt.Errorf("fetching statistics of %s/%s: %w", proj.Slug, comp.Slug, err)
			}

			rows = append(rows, Row{
				Project:           proj.Name,
				ProjectSlug:       proj.Slug,
				Component:         comp.Name,
				ComponentSlug:     comp.Slug,
				TranslatedPercent: pct,
				URL:               c.ComponentURL(proj.Slug, comp.Slug),
				TranslateURL:      c.TranslateURL(proj.Slug, comp.Slug, lang),
			})
		}
	}

	return rows, nil
}

func (c *Client) translatedPercent(ctx context.Context, projectSlug, componentSlug, lang string) (float64, error) {
	st, err := c.TranslationStatistics(ctx, projectSlug, componentSlug, lang)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			c.log("[DEBUG] no %s translation for %s/%s (status %d)", lang, projectSlug, componentSlug, se.StatusCode)
			return 0, nil
		}
		return 0, err
	}
	return clampPercent(st.TranslatedPercent), nil
}
