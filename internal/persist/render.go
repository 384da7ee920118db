package persist

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
	"wikiconfig/internal/units"
)

const header = `# Local site configuration.
# Written by wikiconfig; values here override Foswiki.spec and extension specs.
# The file is rewritten on every save and must end with the completion marker.
`

// Render produces the canonical text of s: the fixed header, one assignment
// per leaf in key-path order, and the completion terminator. Absent leaves
// are left out.
func Render(s *store.Store) []byte {
	var b strings.Builder
	b.WriteString(header)
	for _, line := range renderLines(s) {
		b.WriteString(line.text)
		b.WriteByte('\n')
	}
	b.WriteString(units.TerminatorKey)
	b.WriteString(" = true\n")
	return []byte(b.String())
}

type renderedLine struct {
	path keypath.Path
	text string
}

func renderLines(s *store.Store) []renderedLine {
	leaves := s.Leaves()
	lines := make([]renderedLine, 0, len(leaves))
	for _, leaf := range leaves {
		if store.IsAbsent(leaf.Value) {
			continue
		}
		if len(leaf.Path) == 1 && leaf.Path[0].Name == units.TerminatorKey {
			continue
		}
		text := renderKey(leaf.Path) + " = " + renderValue(leaf.Value)
		lines = append(lines, renderedLine{path: leaf.Path, text: text})
	}
	return lines
}

func renderKey(path keypath.Path) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = renderKeySegment(seg.Name)
	}
	return strings.Join(parts, ".")
}

func renderKeySegment(name string) string {
	if keypath.IsBare(name) {
		return name
	}
	return quote(name)
}

func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return renderFloat(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if store.IsAbsent(item) {
				continue
			}
			items = append(items, renderValue(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		if len(v) == 0 {
			return "{}"
		}
		items := make([]string, 0, len(v))
		for _, name := range slices.Sorted(maps.Keys(v)) {
			if store.IsAbsent(v[name]) {
				continue
			}
			items = append(items, renderKeySegment(name)+" = "+renderValue(v[name]))
		}
		if len(items) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(items, ", ") + " }"
	case fmt.Stringer:
		// go-toml local date and time types render in TOML syntax.
		return v.String()
	default:
		return quote(fmt.Sprint(v))
	}
}

func renderFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
