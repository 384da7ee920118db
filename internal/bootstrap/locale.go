package bootstrap

import (
	"strings"

	"golang.org/x/text/language"
)

// DetectLocale returns the {Site}{Locale} and {Store}{Encoding} values implied
// by the process locale. The C and POSIX locales carry no language and are
// skipped; when nothing usable is set the result is en_US.utf-8.
func DetectLocale(lookup func(string) (string, bool)) (locale, encoding string) {
	for _, name := range localeEnv {
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if lang, codeset, ok := parseLocale(raw); ok {
			return lang + "." + codeset, codeset
		}
	}
	return DefaultLocale, defaultCodeset
}

// parseLocale splits a POSIX locale such as de_DE.UTF-8@euro into a
// canonical language_REGION and a lower-case codeset.
func parseLocale(raw string) (string, string, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '@'); i >= 0 {
		raw = raw[:i]
	}
	name, codeset, _ := strings.Cut(raw, ".")
	if name == "" || name == "C" || name == "POSIX" {
		return "", "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return "", "", false
	}
	base, _ := tag.Base()
	lang := base.String()
	if region, conf := tag.Region(); conf == language.Exact {
		lang += "_" + region.String()
	}
	return lang, normalizeCodeset(codeset), true
}

func normalizeCodeset(codeset string) string {
	cs := strings.ToLower(strings.TrimSpace(codeset))
	switch strings.NewReplacer("-", "", "_", "").Replace(cs) {
	case "":
		return defaultCodeset
	case "utf8":
		return "utf-8"
	case "iso88591":
		return "iso-8859-1"
	case "iso885915":
		return "iso-8859-15"
	default:
		return cs
	}
}
