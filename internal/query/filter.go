package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/value"
)

// Filter document keys.
const (
	KeyWhere  = "where"
	KeyFields = "fields"
	KeyOrder  = "order"
	KeyLimit  = "limit"
	KeySkip   = "skip"
	KeyOffset = "offset" // alias of skip
)

// Filter is a parsed filter document.
type Filter struct {
	// Where selects documents. Never nil after ParseFilter.
	Where filter.Expression

	// Fields restricts the projection. Empty means every field.
	Fields []fieldpath.Path

	// Order lists sort terms, most significant first.
	Order []OrderTerm

	// Limit caps the number of results. Zero means no limit.
	Limit int

	// Skip drops leading results. Zero means none.
	Skip int
}

// OrderTerm is one ORDER BY term.
type OrderTerm struct {
	Path fieldpath.Path
	Desc bool
}

// String renders the term as N1QL.
func (o OrderTerm) String() string {
	field, _ := o.Path.Plain()
	if o.Desc {
		return field + " DESC"
	}
	return field + " ASC"
}

// ParseFilter validates a decoded filter document.
func ParseFilter(v value.Value) (*Filter, error) {
	f := &Filter{Where: &filter.Leaf{}}
	switch doc := v.(type) {
	case nil, value.Null:
		return f, nil
	case value.Object:
		for _, m := range doc {
			var err error
			switch m.Key {
			case KeyWhere:
				f.Where, err = filter.Parse(m.Value)
			case KeyFields:
				f.Fields, err = parseFields(m.Value)
			case KeyOrder:
				f.Order, err = ParseOrder(m.Value)
			case KeyLimit:
				f.Limit, err = ParsePagination(KeyLimit, m.Value)
			case KeySkip, KeyOffset:
				f.Skip, err = ParsePagination(m.Key, m.Value)
			default:
				err = qerr.New(qerr.CodeInvalidFilter, m.Key, "unknown filter key")
			}
			if err != nil {
				return nil, err
			}
		}
		return f, nil
	default:
		return nil, qerr.New(qerr.CodeInvalidFilter, "",
			"filter must be an object, got %s", value.Kind(v))
	}
}

// ParseFilterJSON decodes and validates a JSON filter document.
func ParseFilterJSON(data []byte) (*Filter, error) {
	v, err := value.Decode(data)
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidFilter, "", "decode filter: %v", err)
	}
	return ParseFilter(v)
}

// ParseFilterYAML decodes and validates a YAML filter document.
func ParseFilterYAML(data []byte) (*Filter, error) {
	v, err := value.DecodeYAML(data)
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidFilter, "", "decode filter: %v", err)
	}
	return ParseFilter(v)
}

// ParseOrder validates an order value: a string or a list of strings, each
// a field path followed by whitespace and ASC or DESC (any case).
func ParseOrder(v value.Value) ([]OrderTerm, error) {
	var raw []string
	switch order := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.String:
		raw = []string{string(order)}
	case value.Array:
		for _, item := range order {
			s, ok := item.(value.String)
			if !ok {
				return nil, qerr.New(qerr.CodeInvalidOrderSyntax, "",
					"order terms must be strings, got %s", value.Kind(item))
			}
			raw = append(raw, string(s))
		}
	default:
		return nil, qerr.New(qerr.CodeInvalidOrderSyntax, "",
			"order must be a string or a list of strings, got %s", value.Kind(v))
	}

	terms := make([]OrderTerm, 0, len(raw))
	for _, s := range raw {
		term, err := parseOrderTerm(s)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func parseOrderTerm(s string) (OrderTerm, error) {
	trimmed := strings.TrimSpace(s)
	cut := strings.LastIndexAny(trimmed, " \t\n")
	if cut < 0 {
		return OrderTerm{}, qerr.New(qerr.CodeInvalidOrderSyntax, s, "order term must end with ASC or DESC")
	}
	var desc bool
	switch strings.ToUpper(trimmed[cut+1:]) {
	case "ASC":
	case "DESC":
		desc = true
	default:
		return OrderTerm{}, qerr.New(qerr.CodeInvalidOrderSyntax, s, "order term must end with ASC or DESC")
	}
	path, err := fieldpath.Parse(strings.TrimSpace(trimmed[:cut]))
	if err != nil {
		return OrderTerm{}, err
	}
	if _, err := path.Plain(); err != nil {
		return OrderTerm{}, err
	}
	return OrderTerm{Path: path, Desc: desc}, nil
}

// ParsePagination validates a limit or skip value: a non-negative integer or
// a string holding one. Null means zero.
func ParsePagination(key string, v value.Value) (int, error) {
	var n int64
	switch val := v.(type) {
	case nil, value.Null:
		return 0, nil
	case value.Int:
		n = int64(val)
	case value.Float:
		f := float64(val)
		if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, qerr.New(qerr.CodeInvalidPagination, key, "%v is not an integer", f)
		}
		n = int64(f)
	case value.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		if err != nil {
			return 0, qerr.New(qerr.CodeInvalidPagination, key, "%q is not an integer", string(val))
		}
		n = parsed
	default:
		return 0, qerr.New(qerr.CodeInvalidPagination, key, "expected an integer, got %s", value.Kind(v))
	}
	if n < 0 {
		return 0, qerr.New(qerr.CodeInvalidPagination, key, "must not be negative, got %d", n)
	}
	if n > math.MaxInt32 {
		return 0, qerr.New(qerr.CodeInvalidPagination, key, "%d is out of range", n)
	}
	return int(n), nil
}

// parseFields accepts a list of paths or an object of path → boolean, where
// true includes the field.
func parseFields(v value.Value) ([]fieldpath.Path, error) {
	var names []string
	switch fields := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.String:
		names = []string{string(fields)}
	case value.Array:
		for _, item := range fields {
			s, ok := item.(value.String)
			if !ok {
				return nil, qerr.New(qerr.CodeInvalidFilter, KeyFields,
					"field names must be strings, got %s", value.Kind(item))
			}
			names = append(names, string(s))
		}
	case value.Object:
		for _, m := range fields {
			include, ok := m.Value.(value.Bool)
			if !ok {
				return nil, qerr.New(qerr.CodeInvalidFilter, m.Key,
					"field selection must be a boolean, got %s", value.Kind(m.Value))
			}
			if include {
				names = append(names, m.Key)
			}
		}
	default:
		return nil, qerr.New(qerr.CodeInvalidFilter, KeyFields,
			"fields must be a list of strings, got %s", value.Kind(v))
	}

	paths := make([]fieldpath.Path, 0, len(names))
	for _, name := range names {
		p, err := fieldpath.Parse(name)
		if err != nil {
			return nil, err
		}
		if _, err := p.Plain(); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
