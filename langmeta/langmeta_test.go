package langmeta

import (
	"sort"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt-br", want: "pt_BR"},
		{in: " ZH_cn ", want: "zh_CN"},
		{in: "sv", want: "sv"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	seen := make(map[string]bool)
	codes := make([]string, 0, len(Languages))
	for _, l := range Languages {
		if seen[l.Code] {
			t.Fatalf("duplicate code %q", l.Code)
		}
		seen[l.Code] = true
		codes = append(codes, l.Code)
	}
	if !sort.StringsAreSorted(codes) {
		t.Fatal("Languages is not sorted by code")
	}
	if !seen[DefaultCode] {
		t.Fatalf("DefaultCode %q is not in the registry", DefaultCode)
	}
}

func TestLookupAndName(t *testing.T) {
	if l, ok := Lookup("pt-BR"); !ok || l.Code != "pt_BR" {
		t.Fatalf("Lookup(pt-BR) = %#v, %v", l, ok)
	}
	if got := Name("sv"); got != "Swedish" {
		t.Fatalf("Name(sv) = %q, want Swedish", got)
	}
	if got := Name("xx"); got != "xx" {
		t.Fatalf("Name(xx) = %q, want passthrough", got)
	}
}

func TestNativeName(t *testing.T) {
	if got := NativeName("de"); got != "Deutsch" {
		t.Fatalf("NativeName(de) = %q, want Deutsch", got)
	}
	if got := NativeName(""); got != "" {
		t.Fatalf("NativeName(\"\") = %q, want empty", got)
	}
}

func TestFlag(t *testing.T) {
	if got := Flag("pt_BR"); got != "\U0001F1E7\U0001F1F7" {
		t.Fatalf("Flag(pt_BR) = %q", got)
	}
	if got := Flag("sv"); got != "\U0001F1F8\U0001F1EA" {
		t.Fatalf("Flag(sv) = %q", got)
	}
	if got := flagFromRegion("001"); got != "" {
		t.Fatalf("flagFromRegion(001) = %q, want empty", got)
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "sv_SE", want: "sv", wantOK: true},
		{in: "pt_BR", want: "pt_BR", wantOK: true},
		{in: "pt-PT", want: "pt", wantOK: true},
		{in: "zh_TW", want: "zh_TW", wantOK: true},
		{in: "de", want: "de", wantOK: true},
		{in: "", want: "", wantOK: false},
	}

	for _, tc := range cases {
		got, ok := Match(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("Match(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetect(t *testing.T) {
	t.Run("LC_ALL wins", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LC_ALL", "de_DE.UTF-8")
		t.Setenv("LANG", "fr_FR.UTF-8")
		if got := Detect(); got != "de" {
			t.Fatalf("Detect() = %q, want de", got)
		}
	})

	t.Run("region variant", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANG", "pt_BR.UTF-8")
		if got := Detect(); got != "pt_BR" {
			t.Fatalf("Detect() = %q, want pt_BR", got)
		}
	})

	t.Run("C locale is skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LC_ALL", "C")
		t.Setenv("LANG", "fi_FI.UTF-8")
		if got := Detect(); got != "fi" {
			t.Fatalf("Detect() = %q, want fi", got)
		}
	})

	t.Run("falls back to sv", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := Detect(); got != DefaultCode {
			t.Fatalf("Detect() = %q, want %q", got, DefaultCode)
		}
	})
}
