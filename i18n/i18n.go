// Package i18n translates elementary-l10n's own messages.
//
// It wraps gotext with T() and N() helpers. Catalogs are embedded from
// locales/{lang}/LC_MESSAGES/elementary-l10n.po and selected by Init().
//
// Usage:
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("No components found."))
//	fmt.Printf(i18n.N("%d component below %g%%", "%d components below %g%%", n), n, 50.0)
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

// domain is the gettext domain, shared with the desktop application.
const domain = "elementary-l10n"

var (
	po   *gotext.Locale
	lang string
)

// Init selects the catalog for lang, or for the environment when lang is
// empty. Call it once before any T() or N() call.
func Init(l string) {
	if l == "" {
		l = detectLanguage()
	}
	lang = l

	po = gotext.NewLocaleFSWithPath(l, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the language passed to (or detected by) Init.
func Lang() string {
	return lang
}

// T translates msgid, returning it unchanged when no translation exists.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates with plural forms chosen by n.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage follows GNU gettext: LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
