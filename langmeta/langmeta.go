// Package langmeta is the registry of Weblate language codes offered by the
// CLI, with English names, native names and emoji flags.
//
// Weblate spells locale variants with an underscore (pt_BR, zh_CN). Input in
// BCP 47 form (pt-br) is normalized to that spelling before lookup.
package langmeta

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultCode is used when the system language is not a known Weblate code.
const DefaultCode = "sv"

// Language is one Weblate language.
type Language struct {
	Code string
	Name string
}

// Languages lists the common languages on Weblate, sorted by code.
var Languages = []Language{
	{"aa", "Afar"}, {"af", "Afrikaans"}, {"am", "Amharic"}, {"an", "Aragonese"},
	{"ar", "Arabic"}, {"as", "Assamese"}, {"ast", "Asturian"}, {"az", "Azerbaijani"},
	{"be", "Belarusian"}, {"bg", "Bulgarian"}, {"bn", "Bengali"}, {"br", "Breton"},
	{"bs", "Bosnian"}, {"ca", "Catalan"}, {"ckb", "Central Kurdish"},
	{"cs", "Czech"}, {"cy", "Welsh"}, {"da", "Danish"}, {"de", "German"},
	{"el", "Greek"}, {"en_AU", "English (Australia)"}, {"en_GB", "English (UK)"},
	{"eo", "Esperanto"}, {"es", "Spanish"}, {"et", "Estonian"}, {"eu", "Basque"},
	{"fa", "Persian"}, {"fi", "Finnish"}, {"fil", "Filipino"}, {"fo", "Faroese"},
	{"fr", "French"}, {"fy", "Western Frisian"}, {"ga", "Irish"},
	{"gd", "Scottish Gaelic"}, {"gl", "Galician"}, {"gu", "Gujarati"},
	{"he", "Hebrew"}, {"hi", "Hindi"}, {"hr", "Croatian"}, {"hu", "Hungarian"},
	{"hy", "Armenian"}, {"id", "Indonesian"}, {"is", "Icelandic"}, {"it", "Italian"},
	{"ja", "Japanese"}, {"ka", "Georgian"}, {"kk", "Kazakh"}, {"km", "Khmer"},
	{"kn", "Kannada"}, {"ko", "Korean"}, {"ku", "Kurdish"}, {"ky", "Kyrgyz"},
	{"lb", "Luxembourgish"}, {"lo", "Lao"}, {"lt", "Lithuanian"}, {"lv", "Latvian"},
	{"mg", "Malagasy"}, {"mk", "Macedonian"}, {"ml", "Malayalam"},
	{"mn", "Mongolian"}, {"mr", "Marathi"}, {"ms", "Malay"}, {"mt", "Maltese"},
	{"my", "Burmese"}, {"nb_NO", "Norwegian Bokmål"}, {"ne", "Nepali"},
	{"nl", "Dutch"}, {"nn", "Norwegian Nynorsk"}, {"oc", "Occitan"},
	{"or", "Odia"}, {"pa", "Punjabi"}, {"pl", "Polish"},
	{"pt", "Portuguese"}, {"pt_BR", "Portuguese (Brazil)"},
	{"ro", "Romanian"}, {"ru", "Russian"}, {"rw", "Kinyarwanda"},
	{"si", "Sinhala"}, {"sk", "Slovak"}, {"sl", "Slovenian"}, {"sq", "Albanian"},
	{"sr", "Serbian"}, {"sv", "Swedish"}, {"sw", "Swahili"}, {"ta", "Tamil"},
	{"te", "Telugu"}, {"tg", "Tajik"}, {"th", "Thai"}, {"tk", "Turkmen"},
	{"tl", "Tagalog"}, {"tr", "Turkish"}, {"ug", "Uyghur"}, {"uk", "Ukrainian"},
	{"ur", "Urdu"}, {"uz", "Uzbek"}, {"vi", "Vietnamese"},
	{"zh_CN", "Chinese (Simplified)"}, {"zh_TW", "Chinese (Traditional)"},
	{"zu", "Zulu"},
}

var (
	byCode  = make(map[string]Language, len(Languages))
	matcher language.Matcher
)

func init() {
	tags := make([]language.Tag, len(Languages))
	for i, l := range Languages {
		byCode[l.Code] = l
		tags[i] = tag(l.Code)
	}
	matcher = language.NewMatcher(tags)
}

// Normalize converts a code to Weblate's spelling: lower-case language,
// underscore, upper-case region ("pt-br" -> "pt_BR").
func Normalize(code string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "-", "_")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "_")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "_")
}

func tag(code string) language.Tag {
	return language.Make(strings.ReplaceAll(code, "_", "-"))
}

// Lookup returns the registry entry for code, accepting either spelling.
func Lookup(code string) (Language, bool) {
	if l, ok := byCode[code]; ok {
		return l, true
	}
	l, ok := byCode[Normalize(code)]
	return l, ok
}

// Name returns the English name of code, or code itself when unknown.
func Name(code string) string {
	if l, ok := Lookup(code); ok {
		return l.Name
	}
	return code
}

// NativeName returns the language's name in itself ("svenska" for sv), or ""
// when x/text has no name for it.
func NativeName(code string) string {
	t := tag(Normalize(code))
	if t == language.Und {
		return ""
	}
	return display.Self.Name(t)
}

// Flag returns the emoji flag of the language's most likely region, or "".
func Flag(code string) string {
	region, conf := tag(Normalize(code)).Region()
	if conf == language.No {
		return ""
	}
	return flagFromRegion(region.String())
}

// flagFromRegion maps a two-letter ISO 3166 region to its regional indicator
// pair. Numeric regions such as "001" have no flag.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(region) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}

// Match finds the registry code for a locale name such as "sv_SE" or
// "pt-BR": exact match first, then the bare language, then the closest
// registry entry x/text considers a high-confidence match.
func Match(locale string) (string, bool) {
	if l, ok := Lookup(locale); ok {
		return l.Code, true
	}
	normalized := Normalize(locale)
	if normalized == "" {
		return "", false
	}
	if base, _, found := strings.Cut(normalized, "_"); found {
		if l, ok := byCode[base]; ok {
			return l.Code, true
		}
	}

	t, err := language.Parse(strings.ReplaceAll(normalized, "_", "-"))
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(t)
	if conf < language.High {
		return "", false
	}
	return Languages[idx].Code, true
}

// Detect returns the registry code for the system locale, read from LC_ALL,
// LC_MESSAGES and LANG in that order, or DefaultCode.
func Detect() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		// Strip encoding and modifier ("sv_SE.UTF-8@euro" -> "sv_SE")
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		if code, ok := Match(val); ok {
			return code
		}
		return DefaultCode
	}
	return DefaultCode
}
