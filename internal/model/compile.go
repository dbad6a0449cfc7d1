package model

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/docql/internal/fieldpath"
)

// indexSuffix marks the <field>_index: true shorthand.
const indexSuffix = "_index"

// CompileModel parses a CUE value into a Model.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: Book: { ... }`)
//	m, err := CompileModel(v.LookupPath(cue.ParsePath("model.Book")))
func CompileModel(v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Model{Primary: true, Deferred: true}

	// Model name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		m.Name = labels[len(labels)-1].String()
	}

	var err error
	if m.TypeKey, err = optionalString(v, "typeKey"); err != nil {
		return nil, err
	}

	for _, opt := range []struct {
		name string
		dst  *bool
	}{
		{"primary", &m.Primary},
		{"deferred", &m.Deferred},
		{"drop", &m.Drop},
	} {
		if err := optionalBool(v, opt.name, opt.dst); err != nil {
			return nil, err
		}
	}

	m.Hidden, err = parseHidden(v)
	if err != nil {
		return nil, err
	}

	m.Indexes, err = parseIndexes(v)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string, dst *bool) error {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil
	}
	b, err := fv.Bool()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = b
	return nil
}

// parseHidden extracts the hidden field list (optional).
func parseHidden(v cue.Value) ([]string, error) {
	hiddenVal := v.LookupPath(cue.ParsePath("hidden"))
	if !hiddenVal.Exists() {
		return nil, nil
	}
	iter, err := hiddenVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var hidden []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		hidden = append(hidden, s)
	}
	return hidden, nil
}

// parseIndexes extracts index definitions in declaration order.
// Supports:
// - Shorthand: <field>_index: true
// - Keys struct: name: keys: {field: 1, other: -1}
// - Bare keys: name: {field: 1}
func parseIndexes(v cue.Value) ([]Index, error) {
	indexesVal := v.LookupPath(cue.ParsePath("indexes"))
	if !indexesVal.Exists() {
		return nil, nil
	}

	iter, err := indexesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var indexes []Index
	for iter.Next() {
		name := iter.Label()
		idxVal := iter.Value()

		if idxVal.IncompleteKind() == cue.BoolKind {
			idx, err := parseShorthand(name, idxVal)
			if err != nil {
				return nil, err
			}
			if idx != nil {
				indexes = append(indexes, *idx)
			}
			continue
		}

		keysVal := idxVal
		if k := idxVal.LookupPath(cue.ParsePath("keys")); k.Exists() {
			keysVal = k
		}
		keys, err := parseKeys(name, keysVal)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, Index{Name: name, Keys: keys})
	}

	return indexes, nil
}

// parseShorthand handles <field>_index: true. False disables the index.
func parseShorthand(name string, v cue.Value) (*Index, error) {
	enabled, err := v.Bool()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if !enabled {
		return nil, nil
	}
	field, ok := strings.CutSuffix(name, indexSuffix)
	if !ok || field == "" {
		return nil, &CompileError{
			Field:   "indexes." + name,
			Message: fmt.Sprintf("boolean index shorthand must be named <field>%s", indexSuffix),
			Pos:     v.Pos(),
		}
	}
	path, err := fieldpath.Parse(field)
	if err != nil {
		return nil, &CompileError{Field: "indexes." + name, Message: err.Error(), Pos: v.Pos()}
	}
	return &Index{Name: name, Keys: []IndexKey{{Path: path, Order: Asc}}}, nil
}

// parseKeys extracts ordered index keys from a struct of field: order.
func parseKeys(name string, v cue.Value) ([]IndexKey, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   "indexes." + name,
			Message: "index must be true, a struct of keys, or {keys: {...}}",
			Pos:     v.Pos(),
		}
	}

	var keys []IndexKey
	for iter.Next() {
		field := iter.Label()
		keyVal := iter.Value()
		loc := fmt.Sprintf("indexes.%s.%s", name, field)

		path, err := fieldpath.Parse(field)
		if err != nil {
			return nil, &CompileError{Field: loc, Message: err.Error(), Pos: keyVal.Pos()}
		}
		order, err := parseKeyOrder(loc, keyVal)
		if err != nil {
			return nil, err
		}
		keys = append(keys, IndexKey{Path: path, Order: order})
	}
	return keys, nil
}

func parseKeyOrder(loc string, v cue.Value) (KeyOrder, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return 0, formatCUEError(err)
		}
		switch n {
		case 1:
			return Asc, nil
		case -1:
			return Desc, nil
		}
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return 0, formatCUEError(err)
		}
		if s == "xlike" {
			return XLike, nil
		}
	}
	return 0, &CompileError{
		Field:   loc,
		Message: `index key order must be 1, -1 or "xlike"`,
		Pos:     v.Pos(),
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
