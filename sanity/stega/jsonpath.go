package stega

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind tells which field of a Segment is meaningful.
type SegmentKind int

const (
	FieldSegment SegmentKind = iota
	IndexSegment
	KeySegment
)

// Segment is one step of a path: an object field, an array index, or an
// array member addressed by its _key.
type Segment struct {
	Kind  SegmentKind
	Field string
	Index int
	Key   string
}

// Field returns a field segment.
func Field(name string) Segment { return Segment{Kind: FieldSegment, Field: name} }

// Index returns an array index segment.
func Index(i int) Segment { return Segment{Kind: IndexSegment, Index: i} }

// Keyed returns a segment addressing an array member by _key.
func Keyed(key string) Segment { return Segment{Kind: KeySegment, Key: key} }

// Path is a sequence of segments from the document (or result) root.
type Path []Segment

// Last returns the final field name, or "" when the path ends elsewhere.
func (p Path) Last() string {
	if len(p) == 0 || p[len(p)-1].Kind != FieldSegment {
		return ""
	}
	return p[len(p)-1].Field
}

// FieldAt returns the field name at i counted from the end (1 is the last),
// or "" when that segment is not a field.
func (p Path) FieldAt(fromEnd int) string {
	i := len(p) - fromEnd
	if i < 0 || i >= len(p) || p[i].Kind != FieldSegment {
		return ""
	}
	return p[i].Field
}

func (p Path) clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

var jsonPathEscapes = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// JSONPath formats p the way content source maps key their mappings,
// e.g. $['allPost'][0]['title'].
func (p Path) JSONPath() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p {
		switch s.Kind {
		case FieldSegment:
			b.WriteString("['")
			b.WriteString(jsonPathEscapes.Replace(s.Field))
			b.WriteString("']")
		case IndexSegment:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		case KeySegment:
			b.WriteString("[?(@._key=='")
			b.WriteString(jsonPathEscapes.Replace(s.Key))
			b.WriteString("')]")
		}
	}
	return b.String()
}

// StudioPath formats p as a Studio field path, e.g. content[_key=="a1"].children[0].text.
func (p Path) StudioPath() string {
	var b strings.Builder
	for i, s := range p {
		switch s.Kind {
		case FieldSegment:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Field)
		case IndexSegment:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		case KeySegment:
			b.WriteString(`[_key=="`)
			b.WriteString(s.Key)
			b.WriteString(`"]`)
		}
	}
	return b.String()
}

// ParseJSONPath parses a normalized JSONPath as found in content source maps.
func ParseJSONPath(s string) (Path, error) {
	if !strings.HasPrefix(s, "$") {
		return nil, fmt.Errorf("stega: json path %q must start with $", s)
	}
	var path Path
	rest := s[1:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("stega: json path %q: unexpected %q", s, rest[0])
		}
		switch {
		case strings.HasPrefix(rest, "['"):
			name, n, err := readQuoted(rest[2:])
			if err != nil {
				return nil, fmt.Errorf("stega: json path %q: %w", s, err)
			}
			rest = rest[2+n:]
			if !strings.HasPrefix(rest, "]") {
				return nil, fmt.Errorf("stega: json path %q: unterminated field", s)
			}
			rest = rest[1:]
			path = append(path, Field(name))
		case strings.HasPrefix(rest, "[?(@._key=='"):
			key, n, err := readQuoted(rest[len("[?(@._key=='"):])
			if err != nil {
				return nil, fmt.Errorf("stega: json path %q: %w", s, err)
			}
			rest = rest[len("[?(@._key=='")+n:]
			if !strings.HasPrefix(rest, ")]") {
				return nil, fmt.Errorf("stega: json path %q: unterminated key filter", s)
			}
			rest = rest[2:]
			path = append(path, Keyed(key))
		default:
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("stega: json path %q: unterminated index", s)
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil || i < 0 {
				return nil, fmt.Errorf("stega: json path %q: bad index %q", s, rest[1:end])
			}
			rest = rest[end+1:]
			path = append(path, Index(i))
		}
	}
	return path, nil
}

// readQuoted reads up to the closing single quote and returns the unescaped
// text and the number of bytes consumed, including the quote.
func readQuoted(s string) (string, int, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\'':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("dangling escape")
			}
			i++
			switch s[i] {
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated quote")
}
