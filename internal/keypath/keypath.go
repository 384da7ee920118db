package keypath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPath marks key paths that do not match the path grammar.
var ErrMalformedPath = errors.New("malformed key path")

// MalformedPathError reports where parsing a key path failed.
type MalformedPathError struct {
	Input  string
	Offset int
	Reason string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed key path %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

func (e *MalformedPathError) Unwrap() error { return ErrMalformedPath }

// Segment is one element of a key path. Quoted records the textual form the
// segment was written in so rendering reproduces the original text.
type Segment struct {
	Name   string
	Quoted bool
}

func (s Segment) String() string {
	var b strings.Builder
	s.writeTo(&b)
	return b.String()
}

func (s Segment) writeTo(b *strings.Builder) {
	b.WriteByte('{')
	if !s.Quoted {
		b.WriteString(s.Name)
		b.WriteByte('}')
		return
	}
	b.WriteByte('\'')
	for i := 0; i < len(s.Name); i++ {
		c := s.Name[i]
		if c == '\'' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteString("'}")
}

// Path addresses one slot in the configuration store.
type Path []Segment

// New builds a path from raw names, quoting only names that are not bare.
func New(names ...string) Path {
	p := make(Path, len(names))
	for i, name := range names {
		p[i] = Segment{Name: name, Quoted: !IsBare(name)}
	}
	return p
}

// IsBare reports whether name can be written without quotes.
func IsBare(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isBareByte(name[i]) {
			return false
		}
	}
	return true
}

func isBareByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Parse converts the textual form into a Path. The whole input must be consumed.
func Parse(raw string) (Path, error) {
	p, n, err := ParsePrefix(raw)
	if err != nil {
		return nil, err
	}
	if n != len(raw) {
		return nil, &MalformedPathError{Input: raw, Offset: n, Reason: "unexpected trailing text"}
	}
	return p, nil
}

// MustParse is Parse for static paths; it panics on malformed input.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrefix parses the run of segments at the start of raw and returns the
// number of bytes consumed. Parsing stops at the first byte that does not
// open a segment; a segment that opens but is malformed fails the whole
// prefix, as does input with no segment at all.
func ParsePrefix(raw string) (Path, int, error) {
	var path Path
	pos := 0
	for pos < len(raw) && raw[pos] == '{' {
		seg, next, err := parseSegment(raw, pos)
		if err != nil {
			return nil, pos, err
		}
		path = append(path, seg)
		pos = next
	}
	if len(path) == 0 {
		return nil, 0, &MalformedPathError{Input: raw, Offset: 0, Reason: "expected '{'"}
	}
	return path, pos, nil
}

func parseSegment(raw string, start int) (Segment, int, error) {
	pos := start + 1
	if pos >= len(raw) {
		return Segment{}, start, &MalformedPathError{Input: raw, Offset: pos, Reason: "unterminated segment"}
	}
	if raw[pos] == '\'' {
		return parseQuoted(raw, start, pos+1)
	}
	begin := pos
	for pos < len(raw) && isBareByte(raw[pos]) {
		pos++
	}
	if pos == begin {
		return Segment{}, start, &MalformedPathError{Input: raw, Offset: pos, Reason: "empty or invalid bare segment"}
	}
	if pos >= len(raw) || raw[pos] != '}' {
		return Segment{}, start, &MalformedPathError{Input: raw, Offset: pos, Reason: "expected '}'"}
	}
	return Segment{Name: raw[begin:pos]}, pos + 1, nil
}

func parseQuoted(raw string, start, pos int) (Segment, int, error) {
	var name strings.Builder
	for pos < len(raw) {
		c := raw[pos]
		switch c {
		case '\\':
			if pos+1 >= len(raw) || (raw[pos+1] != '\'' && raw[pos+1] != '\\') {
				return Segment{}, start, &MalformedPathError{Input: raw, Offset: pos, Reason: "invalid escape"}
			}
			name.WriteByte(raw[pos+1])
			pos += 2
		case '\'':
			if pos+1 >= len(raw) || raw[pos+1] != '}' {
				return Segment{}, start, &MalformedPathError{Input: raw, Offset: pos + 1, Reason: "expected '}' after quoted segment"}
			}
			return Segment{Name: name.String(), Quoted: true}, pos + 2, nil
		default:
			name.WriteByte(c)
			pos++
		}
	}
	return Segment{}, start, &MalformedPathError{Input: raw, Offset: pos, Reason: "unterminated quoted segment"}
}

// String renders the path; it is the exact inverse of Parse.
func (p Path) String() string {
	var b strings.Builder
	for _, seg := range p {
		seg.writeTo(&b)
	}
	return b.String()
}

// Names returns the raw segment names.
func (p Path) Names() []string {
	names := make([]string, len(p))
	for i, seg := range p {
		names[i] = seg.Name
	}
	return names
}

// Equal compares segment names; quoting style does not matter.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i].Name != other[i].Name {
			return false
		}
	}
	return true
}

// Append returns a new path with names added as segments.
func (p Path) Append(names ...string) Path {
	out := make(Path, 0, len(p)+len(names))
	out = append(out, p...)
	return append(out, New(names...)...)
}

// Key returns a canonical map key for the path, independent of quoting.
func (p Path) Key() string {
	return New(p.Names()...).String()
}

// Compare orders paths segment by segment; a prefix sorts first.
func Compare(a, b Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
