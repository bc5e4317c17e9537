package report

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/elementary-l10n/weblate"
)

func rowsWith(pcts ...float64) []weblate.Row {
	rows := make([]weblate.Row, len(pcts))
	for i, p := range pcts {
		rows[i] = weblate.Row{Component: string(rune('a' + i)), TranslatedPercent: p}
	}
	return rows
}

func components(rows []weblate.Row) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r.Component)
	}
	return b.String()
}

func TestApply(t *testing.T) {
	rows := rowsWith(0, 12.5, 100, 99.9, 0, 50)

	cases := []struct {
		filter Filter
		want   string
	}{
		{FilterAll, "abcdef"},
		{FilterComplete, "c"},
		{FilterPartial, "bdf"},
		{FilterUntranslated, "ae"},
	}
	for _, tc := range cases {
		if got := components(Apply(rows, tc.filter)); got != tc.want {
			t.Fatalf("Apply(%s) = %q, want %q", tc.filter, got, tc.want)
		}
	}
}

func TestFilterSet(t *testing.T) {
	var f Filter
	if err := f.Set("partial"); err != nil || f != FilterPartial {
		t.Fatalf("Set(partial) = %v, filter %q", err, f)
	}
	err := f.Set("done")
	if err == nil || !strings.Contains(err.Error(), "all, complete, partial, untranslated") {
		t.Fatalf("Set(done) error = %v", err)
	}
	if f != FilterPartial {
		t.Fatalf("failed Set changed the filter to %q", f)
	}
}

func TestSort(t *testing.T) {
	rows := rowsWith(50, 10, 100, 10)

	if got := components(Sort(rows, Ascending)); got != "bdac" {
		t.Fatalf("Sort(asc) = %q, want bdac", got)
	}
	if got := components(Sort(rows, Descending)); got != "cabd" {
		t.Fatalf("Sort(desc) = %q, want cabd", got)
	}
	if got := components(rows); got != "abcd" {
		t.Fatalf("Sort modified its input: %q", got)
	}

	var o Order
	if err := o.Set("desc"); err != nil || o != Descending {
		t.Fatalf("Set(desc) = %v, order %q", err, o)
	}
	if err := o.Set("up"); err == nil {
		t.Fatal("Set(up) should fail")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(rowsWith(100, 50, 0, 100))
	want := Summary{Count: 4, Complete: 2, Average: 62.5}
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("Summarize = %#v, want %#v", s, want)
	}

	if got := s.Line(false, 0); got != "4 components · 2 fully translated · Average: 62.5%" {
		t.Fatalf("Line() = %q", got)
	}
	if got := s.Line(true, 12); got != "4 components · 2 fully translated · Average: 62.5% · Cached data (12 min ago)" {
		t.Fatalf("Line(cached) = %q", got)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Fatalf("Summarize(nil) = %#v", empty)
	}
}

func TestLowCoverage(t *testing.T) {
	low := LowCoverage(rowsWith(0, 49.9, 50, 12, 100), 50)
	if got := components(low); got != "bd" {
		t.Fatalf("LowCoverage = %q, want bd", got)
	}

	if got := LowNotice(len(low), 50); got != "2 components below 50%" {
		t.Fatalf("LowNotice(2) = %q", got)
	}
	if got := LowNotice(1, 50); got != "1 component below 50%" {
		t.Fatalf("LowNotice(1) = %q", got)
	}
	if got := LowNotice(0, 50); got != "" {
		t.Fatalf("LowNotice(0) = %q, want empty", got)
	}
}

func TestHeatColor(t *testing.T) {
	cases := []struct {
		pct  float64
		want RGB
	}{
		{0, RGB{0.9, 0.2, 0.2}},
		{25, RGB{0.9, 0.55, 0.2}},
		{50, RGB{0.9, 0.9, 0.2}},
		{100, RGB{0.2, 0.9, 0.2}},
		{-10, RGB{0.9, 0.2, 0.2}},
		{120, RGB{0.2, 0.9, 0.2}},
	}
	const eps = 1e-9
	for _, tc := range cases {
		got := HeatColor(tc.pct)
		if math.Abs(got.R-tc.want.R) > eps || math.Abs(got.G-tc.want.G) > eps || math.Abs(got.B-tc.want.B) > eps {
			t.Fatalf("HeatColor(%v) = %#v, want %#v", tc.pct, got, tc.want)
		}
	}

	if got := HeatColor(0).Hex(); got != "#e63333" {
		t.Fatalf("HeatColor(0).Hex() = %q, want #e63333", got)
	}
	if got := HeatColor(100).ANSIBackground(); got != "\033[48;2;51;230;51m" {
		t.Fatalf("ANSIBackground = %q", got)
	}
}

func TestBar(t *testing.T) {
	cases := []struct {
		pct   float64
		width int
		want  string
	}{
		{0, 4, "░░░░"},
		{50, 4, "██░░"},
		{100, 4, "████"},
		{87.5, 8, "███████░"},
		{50, 0, ""},
	}
	for _, tc := range cases {
		if got := Bar(tc.pct, tc.width); got != tc.want {
			t.Fatalf("Bar(%v, %d) = %q, want %q", tc.pct, tc.width, got, tc.want)
		}
	}
}
