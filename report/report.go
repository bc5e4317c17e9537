// Package report turns fetched rows into what the status view shows:
// filtered and sorted rows, the summary line, the low-coverage notice, and
// heatmap colours.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/minios-linux/elementary-l10n/i18n"
	"github.com/minios-linux/elementary-l10n/weblate"
)

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

// Filter selects rows by translation status.
type Filter string

const (
	FilterAll          Filter = "all"
	FilterComplete     Filter = "complete"     // 100%
	FilterPartial      Filter = "partial"      // started, not finished
	FilterUntranslated Filter = "untranslated" // 0%
)

var (
	_ pflag.Value = (*Filter)(nil)
	_ pflag.Value = (*Order)(nil)
)

// Filters lists the valid filters in display order.
var Filters = []Filter{FilterAll, FilterComplete, FilterPartial, FilterUntranslated}

func (f *Filter) String() string { return string(*f) }

// Set implements pflag.Value.
func (f *Filter) Set(s string) error {
	for _, v := range Filters {
		if string(v) == s {
			*f = v
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", joinValues(Filters))
}

// Type implements pflag.Value.
func (f *Filter) Type() string { return "filter" }

// Match reports whether a row with percentage pct passes the filter.
func (f Filter) Match(pct float64) bool {
	switch f {
	case FilterComplete:
		return pct >= 100
	case FilterPartial:
		return pct > 0 && pct < 100
	case FilterUntranslated:
		return pct == 0
	}
	return true
}

// Apply returns the rows passing f, in their original order.
func Apply(rows []weblate.Row, f Filter) []weblate.Row {
	out := make([]weblate.Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r.TranslatedPercent) {
			out = append(out, r)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Sorting
// ---------------------------------------------------------------------------

// Order is the sort direction by percentage.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Orders lists the valid orders.
var Orders = []Order{Ascending, Descending}

func (o *Order) String() string { return string(*o) }

// Set implements pflag.Value.
func (o *Order) Set(s string) error {
	for _, v := range Orders {
		if string(v) == s {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", joinValues(Orders))
}

// Type implements pflag.Value.
func (o *Order) Type() string { return "order" }

// Sort returns a copy of rows ordered by percentage. Equal percentages keep
// their API order.
func Sort(rows []weblate.Row, o Order) []weblate.Row {
	out := append([]weblate.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if o == Descending {
			return out[i].TranslatedPercent > out[j].TranslatedPercent
		}
		return out[i].TranslatedPercent < out[j].TranslatedPercent
	})
	return out
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Summary aggregates a set of rows.
type Summary struct {
	Count    int
	Complete int
	Average  float64
}

// Summarize counts rows, fully translated rows, and the mean percentage.
// The average of no rows is 0.
func Summarize(rows []weblate.Row) Summary {
	s := Summary{Count: len(rows)}
	if len(rows) == 0 {
		return s
	}
	var total float64
	for _, r := range rows {
		total += r.TranslatedPercent
		if r.TranslatedPercent >= 100 {
			s.Complete++
		}
	}
	s.Average = total / float64(len(rows))
	return s
}

// Line renders the summary as
// "N components · M fully translated · Average: X%", adding the cache age
// when the rows came from the cache.
func (s Summary) Line(cached bool, ageMinutes int) string {
	line := fmt.Sprintf(i18n.T("%d components · %d fully translated · Average: %.1f%%"),
		s.Count, s.Complete, s.Average)
	if cached {
		line += " · " + fmt.Sprintf(i18n.T("Cached data (%d min ago)"), ageMinutes)
	}
	return line
}

// ---------------------------------------------------------------------------
// Low coverage
// ---------------------------------------------------------------------------

// LowCoverage returns the rows whose translation has started but is below
// threshold percent. Untranslated rows are not counted.
func LowCoverage(rows []weblate.Row, threshold float64) []weblate.Row {
	var low []weblate.Row
	for _, r := range rows {
		if r.TranslatedPercent > 0 && r.TranslatedPercent < threshold {
			low = append(low, r)
		}
	}
	return low
}

// LowNotice is the one-line message for n low-coverage components, or ""
// when n is 0.
func LowNotice(n int, threshold float64) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(i18n.N("%d component below %g%%", "%d components below %g%%", n), n, threshold)
}

// ---------------------------------------------------------------------------
// Colours
// ---------------------------------------------------------------------------

// RGB is a colour with channels in [0, 1].
type RGB struct {
	R, G, B float64
}

// HeatColor maps 0..100% onto red -> yellow -> green.
func HeatColor(pct float64) RGB {
	pct = math.Max(0, math.Min(100, pct))
	if pct < 50 {
		return RGB{R: 0.9, G: 0.2 + (pct/50)*0.7, B: 0.2}
	}
	return RGB{R: 0.9 - ((pct-50)/50)*0.7, G: 0.9, B: 0.2}
}

// Bytes returns the colour as 8-bit channels.
func (c RGB) Bytes() (r, g, b uint8) {
	return channel(c.R), channel(c.G), channel(c.B)
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ANSIForeground returns the 24-bit SGR sequence selecting c as text colour.
func (c RGB) ANSIForeground() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
}

// ANSIBackground returns the 24-bit SGR sequence selecting c as background.
func (c RGB) ANSIBackground() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("\033[48;2;%d;%d;%dm", r, g, b)
}

// Bar draws a width-cell progress bar for pct.
func Bar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(math.Max(0, math.Min(100, pct)) / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
