package weblate

import (
	"errors"
	"fmt"
	"math"
)

// Row is the translation status of one component for one language.
type Row struct {
	Project           string  `json:"project" yaml:"project"`
	ProjectSlug       string  `json:"project_slug" yaml:"project_slug"`
	Component         string  `json:"component" yaml:"component"`
	ComponentSlug     string  `json:"component_slug" yaml:"component_slug"`
	TranslatedPercent float64 `json:"translated_percent" yaml:"translated_percent"`
	URL               string  `json:"url" yaml:"url"`
	TranslateURL      string  `json:"translate_url" yaml:"translate_url"`
}

// Project is the subset of a Weblate project object used here.
type Project struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	WebURL string `json:"web_url"`
}

// Component is the subset of a Weblate component object used here.
type Component struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	WebURL string `json:"web_url"`
}

// Statistics is a Weblate statistics object. The translation endpoint returns
// one of these; the component endpoint returns a page of them, one per
// language (Code and Name are only set there).
type Statistics struct {
	Code              string  `json:"code,omitempty"`
	Name              string  `json:"name,omitempty"`
	Total             int     `json:"total"`
	Translated        int     `json:"translated"`
	TranslatedPercent float64 `json:"translated_percent"`
	Fuzzy             int     `json:"fuzzy"`
	FuzzyPercent      float64 `json:"fuzzy_percent"`
	Failing           int     `json:"failing"`
	Approved          int     `json:"approved"`
	LastChange        string  `json:"last_change,omitempty"`
}

// page is one page of a paginated Weblate list response.
type page[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

// ErrSuperseded is reported by a fetch that was replaced by a newer one
// before it could finish.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// StatusError is returned for any non-2xx response that is not retried.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// clampPercent keeps a percentage within [0, 100].
func clampPercent(p float64) float64 {
	switch {
	case p < 0 || math.IsNaN(p):
		return 0
	case p > 100:
		return 100
	}
	return p
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
