package fieldpath

import (
	"strconv"
	"strings"

	"github.com/roach88/docql/internal/qerr"
)

// MetaID is the metadata identifier accessor the reserved "id" path resolves to.
const MetaID = "TOSTRING(META().id)"

// Elem is the variable bound to array elements under a wildcard.
const Elem = "elem"

const reservedID = "id"

// SegmentKind identifies the kind of a path segment.
type SegmentKind int

const (
	// Identifier is a named field.
	Identifier SegmentKind = iota
	// Index is a non-negative array index.
	Index
	// Wildcard marks array traversal.
	Wildcard
)

// Segment is one step of a field path.
type Segment struct {
	Kind  SegmentKind
	Name  string // Identifier only
	Index int    // Index only
}

// Ident returns an Identifier segment.
func Ident(name string) Segment { return Segment{Kind: Identifier, Name: name} }

// At returns an Index segment.
func At(i int) Segment { return Segment{Kind: Index, Index: i} }

// Path is a tokenized field reference.
type Path struct {
	raw      string
	segments []Segment
	meta     bool
}

// Parse tokenizes a field path. Errors are qerr.CodeSyntax.
func Parse(s string) (Path, error) {
	if s == reservedID {
		return Path{raw: s, meta: true}, nil
	}
	if s == "" {
		return Path{}, qerr.Syntax(s, "empty field path")
	}

	var (
		segs       []Segment
		name       strings.Builder
		afterDot   bool // a '.' was just consumed; a segment must follow
		afterClose bool // a ']' or '*' was just consumed; '.', '[' or end must follow
		wildcards  int
	)

	flush := func() {
		segs = append(segs, Ident(name.String()))
		name.Reset()
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '.':
			if name.Len() > 0 {
				flush()
			} else if len(segs) == 0 || afterDot {
				return Path{}, qerr.Syntax(s, "empty path segment")
			}
			afterDot, afterClose = true, false

		case '[':
			if name.Len() > 0 {
				flush()
			} else if len(segs) == 0 || afterDot {
				return Path{}, qerr.Syntax(s, "array index with no preceding segment")
			}
			end := i + 1
			for end < len(runes) && runes[end] != ']' {
				if runes[end] == '[' {
					return Path{}, qerr.Syntax(s, "unbalanced brackets")
				}
				end++
			}
			if end == len(runes) {
				return Path{}, qerr.Syntax(s, "unbalanced brackets")
			}
			idx, err := parseIndex(s, string(runes[i+1:end]))
			if err != nil {
				return Path{}, err
			}
			segs = append(segs, At(idx))
			i = end
			afterDot, afterClose = false, true

		case ']':
			return Path{}, qerr.Syntax(s, "unbalanced brackets")

		case '*':
			if name.Len() > 0 || afterClose {
				return Path{}, qerr.Syntax(s, "wildcard must be a whole path segment")
			}
			if len(segs) == 0 {
				return Path{}, qerr.Syntax(s, "wildcard with no preceding segment")
			}
			wildcards++
			if wildcards > 1 {
				return Path{}, qerr.Syntax(s, "only one wildcard allowed")
			}
			segs = append(segs, Segment{Kind: Wildcard})
			afterDot, afterClose = false, true

		default:
			if afterClose {
				return Path{}, qerr.Syntax(s, "expected '.' or '[' after %q", string(runes[i-1]))
			}
			name.WriteRune(c)
			afterDot = false
		}
	}

	if name.Len() > 0 {
		flush()
	} else if afterDot {
		return Path{}, qerr.Syntax(s, "empty path segment")
	}

	return Path{raw: s, segments: segs}, nil
}

func parseIndex(path, content string) (int, error) {
	if content == "" {
		return 0, qerr.Syntax(path, "array index must be defined")
	}
	for _, c := range content {
		if c < '0' || c > '9' {
			return 0, qerr.Syntax(path, "array index must be a number, got %q", content)
		}
	}
	n, err := strconv.Atoi(content)
	if err != nil {
		return 0, qerr.Syntax(path, "array index out of range: %s", content)
	}
	return n, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path as written.
func (p Path) String() string { return p.raw }

// IsMetaID reports whether p is the reserved "id" path.
func (p Path) IsMetaID() bool { return p.meta }

// HasWildcard reports whether p traverses an array.
func (p Path) HasWildcard() bool {
	_, _, ok := p.Split()
	return ok
}

// Segments returns a copy of the path's segments. Empty for the reserved id path.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Split divides the path at its wildcard: array addresses the traversed
// array from the document root, rest addresses the field relative to each
// element. ok is false when the path has no wildcard.
func (p Path) Split() (array, rest []Segment, ok bool) {
	for i, seg := range p.segments {
		if seg.Kind == Wildcard {
			return p.segments[:i:i], p.segments[i+1:], true
		}
	}
	return nil, nil, false
}

// Quote wraps an identifier in backticks, doubling embedded backticks.
func Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Render renders segments as a field expression. A non-empty root names the
// variable the segments are relative to; an empty root means the document.
// Wildcard segments are skipped; callers split on them first.
func Render(root string, segs []Segment) string {
	var b strings.Builder
	if root != "" {
		b.WriteString(Quote(root))
	}
	for _, seg := range segs {
		switch seg.Kind {
		case Identifier:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(Quote(seg.Name))
		case Index:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}
