package bootstrap

import (
	"os"
	"strings"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	cases := []struct {
		name     string
		env      map[string]string
		locale   string
		encoding string
	}{
		{"nothing set", nil, "en_US.utf-8", "utf-8"},
		{"lang", map[string]string{"LANG": "de_DE.UTF-8"}, "de_DE.utf-8", "utf-8"},
		{"lc_all wins", map[string]string{"LC_ALL": "fr_CA.ISO-8859-1", "LANG": "de_DE.UTF-8"}, "fr_CA.iso-8859-1", "iso-8859-1"},
		{"c locale skipped", map[string]string{"LC_ALL": "C.UTF-8", "LC_CTYPE": "pt_BR.utf8"}, "pt_BR.utf-8", "utf-8"},
		{"posix only", map[string]string{"LANG": "POSIX"}, "en_US.utf-8", "utf-8"},
		{"modifier dropped", map[string]string{"LANG": "de_DE.ISO-8859-15@euro"}, "de_DE.iso-8859-15", "iso-8859-15"},
		{"no codeset", map[string]string{"LANG": "nl_NL"}, "nl_NL.utf-8", "utf-8"},
		{"language only", map[string]string{"LANG": "ja"}, "ja.utf-8", "utf-8"},
		{"garbage", map[string]string{"LANG": "!!!"}, "en_US.utf-8", "utf-8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := func(name string) (string, bool) {
				v, ok := tc.env[name]
				return v, ok
			}
			locale, encoding := DetectLocale(lookup)
			if locale != tc.locale || encoding != tc.encoding {
				t.Fatalf("DetectLocale = %q, %q; want %q, %q", locale, encoding, tc.locale, tc.encoding)
			}
		})
	}
}

func TestProbeNormalizationCleansUp(t *testing.T) {
	dir := t.TempDir()
	if _, err := ProbeNormalization(dir); err != nil {
		t.Fatalf("ProbeNormalization: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), probePrefix) {
			t.Fatalf("probe file left behind: %s", e.Name())
		}
	}
}

func TestProbeNormalizationMissingDir(t *testing.T) {
	if _, err := ProbeNormalization(t.TempDir() + "/missing"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
