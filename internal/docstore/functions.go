package docstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/docql/internal/querysql"
)

// sqlFunctions holds per-connection state for the registered functions.
type sqlFunctions struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// registerFunctions installs the N1QL functions on conn. All are pure so
// SQLite may fold them on constant arguments.
func registerFunctions(conn *sqlite3.SQLiteConn) error {
	fns := &sqlFunctions{patterns: make(map[string]*regexp.Regexp)}
	impls := []struct {
		name string
		impl any
	}{
		{querysql.FuncRegexLike, fns.regexLike},
		{querysql.FuncLower, lower},
		{querysql.FuncSuffixes, suffixes},
		{querysql.FuncArrayContains, arrayContains},
	}
	for _, fn := range impls {
		if err := conn.RegisterFunc(fn.name, fn.impl, true); err != nil {
			return fmt.Errorf("register %s: %w", fn.name, err)
		}
	}
	return nil
}

// text reports the string form of a SQLite text argument. NULL arrives as a
// nil byte slice.
func text(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		if s == nil {
			return "", false
		}
		return string(s), true
	default:
		return "", false
	}
}

// regexLike reports whether the whole of s matches pattern. Non-string
// inputs never match; a malformed pattern fails the query.
func (f *sqlFunctions) regexLike(s, pattern any) (any, error) {
	str, ok := text(s)
	if !ok {
		return nil, nil
	}
	src, ok := text(pattern)
	if !ok {
		return nil, nil
	}
	re, err := f.compile(src)
	if err != nil {
		return nil, err
	}
	if re.MatchString(str) {
		return int64(1), nil
	}
	return int64(0), nil
}

func (f *sqlFunctions) compile(src string) (*regexp.Regexp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if re, ok := f.patterns[src]; ok {
		return re, nil
	}
	re, err := regexp.Compile(`^(?:` + src + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", src, err)
	}
	f.patterns[src] = re
	return re, nil
}

// lower lowercases text; other values yield NULL.
func lower(s any) any {
	str, ok := text(s)
	if !ok {
		return nil
	}
	return cases.Lower(language.Und).String(str)
}

// suffixes returns a JSON array holding every suffix of s, longest first.
func suffixes(s any) (any, error) {
	str, ok := text(s)
	if !ok {
		return nil, nil
	}
	runes := []rune(str)
	out := make([]string, len(runes))
	for i := range runes {
		out[i] = string(runes[i:])
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// arrayContains reports whether the JSON array holds an element equal to
// the JSON value. A non-array yields NULL.
func arrayContains(array, val any) any {
	src, ok := text(array)
	if !ok || !gjson.Valid(src) {
		return nil
	}
	arr := gjson.Parse(src)
	if !arr.IsArray() {
		return nil
	}
	needle, ok := text(val)
	if !ok {
		needle = "null"
	}
	if !gjson.Valid(needle) {
		return nil
	}
	want := gjson.Parse(needle)
	found := false
	arr.ForEach(func(_, elem gjson.Result) bool {
		found = jsonEqual(elem, want)
		return !found
	})
	if found {
		return int64(1)
	}
	return int64(0)
}

// jsonEqual compares two JSON values structurally. Object member order is
// ignored; numbers compare by value.
func jsonEqual(a, b gjson.Result) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case gjson.Null, gjson.True, gjson.False:
		return true
	case gjson.Number:
		return a.Num == b.Num
	case gjson.String:
		return a.Str == b.Str
	}
	if a.IsArray() != b.IsArray() {
		return false
	}
	if a.IsArray() {
		as, bs := a.Array(), b.Array()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !jsonEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	am, bm := a.Map(), b.Map()
	if len(am) != len(bm) {
		return false
	}
	for k, av := range am {
		bv, ok := bm[k]
		if !ok || !jsonEqual(av, bv) {
			return false
		}
	}
	return true
}
