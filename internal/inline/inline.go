// Package inline substitutes bound parameter values into query text.
//
// It is the only place raw values become query text. Strings are rendered as
// single-quoted literals with every ' and every backtick doubled and every
// backslash escaped; all other
// values use their structural literal (numbers, booleans, null, arrays and
// objects in JSON literal syntax).
package inline

import (
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/value"
)

// Table resolves parameter names to values. *queryir.Params implements it.
type Table interface {
	Get(name string) (value.Value, bool)
}

// Map adapts a plain map to Table.
type Map map[string]value.Value

// Get implements Table.
func (m Map) Get(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Inline replaces every $name placeholder with the literal for its value
// in params. A placeholder whose name is not bound is an error, so text is
// either fully substituted or not returned at all.
//
// The text is scanned once, left to right. A placeholder name runs to the
// first character outside [A-Za-z0-9_], so $param_1 never matches inside
// $param_10. Placeholders inside quoted identifiers (`...`) and string
// literals ('...' or "...") are left alone, as is a bare $.
// Substituted literals are never rescanned, so inlining already-inlined text
// returns it unchanged.
func Inline(text string, params Table) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '`', '\'', '"':
			end := closing(text, i)
			b.WriteString(text[i:end])
			i = end
		case '$':
			j := i + 1
			for j < len(text) && isNameByte(text[j]) {
				j++
			}
			name := text[i+1 : j]
			if name == "" {
				b.WriteByte(c)
				i++
				continue
			}
			v, ok := lookup(params, name)
			if !ok {
				return "", fmt.Errorf("inline $%s: parameter is not bound", name)
			}
			lit, err := Literal(v)
			if err != nil {
				return "", fmt.Errorf("inline $%s: %w", name, err)
			}
			b.WriteString(lit)
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// Literal renders v as query text.
func Literal(v value.Value) (string, error) {
	switch val := v.(type) {
	case value.String:
		return Escape(string(val)), nil
	case value.Pattern:
		return Escape(string(val)), nil
	case nil:
		return "null", nil
	default:
		return value.Literal(v)
	}
}

// Escape renders s as a single-quoted string literal, doubling every
// embedded ' and every embedded backtick. Backslashes start escape sequences
// in N1QL strings, so each one is written as \\.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("''")
		case '`':
			b.WriteString("``")
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func lookup(params Table, name string) (value.Value, bool) {
	if params == nil {
		return nil, false
	}
	return params.Get(name)
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// closing returns the index just past the quoted run starting at text[start].
// A doubled quote character continues the run; inside '...' and "..." a
// backslash escapes the next byte. An unterminated run extends to the end of
// text.
func closing(text string, start int) int {
	q := text[start]
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if q != '`' {
				i++
			}
		case q:
			if i+1 < len(text) && text[i+1] == q {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(text)
}
