package compiler

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/queryir"
	"github.com/roach88/docql/internal/value"
)

// suffixVar is the element variable of an xlike quantifier when the field
// itself is already relative to the wildcard element.
const suffixVar = "suffix"

// Binder binds an operator's operand under the parameter name reserved for
// that operator.
type Binder struct {
	name   string
	params *queryir.Params
}

// Bind stores v and returns the Param operand referencing it.
func (b Binder) Bind(v value.Value) *queryir.Param {
	b.params.Bind(b.name, v)
	return &queryir.Param{Name: b.name}
}

// Name returns the reserved parameter name.
func (b Binder) Name() string { return b.name }

// OperatorFunc builds the predicate for one operator applied to field.
// Operators that bind a value must do so through b.
type OperatorFunc func(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error)

// Registry maps operator keys to their builders.
type Registry map[filter.Operator]OperatorFunc

// DefaultRegistry returns a fresh registry holding the whole operator
// vocabulary. Callers may replace or remove entries on the returned map.
// The vocabulary itself is fixed by the filter package: filters naming any
// other key fail to parse, so entries added under new keys are never used.
func DefaultRegistry() Registry {
	return Registry{
		filter.OpLike:          comparison(queryir.OpLike),
		filter.OpNotLike:       comparison(queryir.OpNotLike),
		filter.OpGt:            comparison(queryir.OpGt),
		filter.OpGte:           comparison(queryir.OpGte),
		filter.OpLt:            comparison(queryir.OpLt),
		filter.OpLte:           comparison(queryir.OpLte),
		filter.OpInq:           membership,
		filter.OpNeq:           notEqual,
		filter.OpNe:            notEqual,
		filter.OpRegexp:        regexLike,
		filter.OpArrayContains: arrayContains,
		filter.OpXLike:         suffixLike,
	}
}

// Lookup returns the builder for op.
func (r Registry) Lookup(op filter.Operator) (OperatorFunc, error) {
	fn, ok := r[op]
	if !ok || fn == nil {
		return nil, qerr.New(qerr.CodeInvalidOperator, string(op), "invalid comparison operator")
	}
	return fn, nil
}

func comparison(op queryir.CompareOp) OperatorFunc {
	return func(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error) {
		return &queryir.Compare{Left: field, Op: op, Right: b.Bind(operand)}, nil
	}
}

func membership(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error) {
	list, ok := operand.(value.Array)
	if !ok {
		return nil, qerr.New(qerr.CodeInvalidFilter, queryir.RenderOperand(field),
			"inq operand must be a list, got %s", value.Kind(operand))
	}
	return &queryir.Compare{Left: field, Op: queryir.OpIn, Right: b.Bind(list)}, nil
}

// notEqual tests IS NOT NULL for a null operand and binds nothing.
func notEqual(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error) {
	if _, isNull := operand.(value.Null); isNull || operand == nil {
		return &queryir.NullCheck{Operand: field, Not: true}, nil
	}
	return &queryir.Compare{Left: field, Op: queryir.OpNe, Right: b.Bind(operand)}, nil
}

// regexLike binds the pattern source text.
func regexLike(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error) {
	var source string
	switch v := operand.(type) {
	case value.String:
		source = string(v)
	case value.Pattern:
		source = string(v)
	default:
		return nil, qerr.New(qerr.CodeInvalidRegexp, queryir.RenderOperand(field),
			"regexp operand must be a string or pattern, got %s", value.Kind(operand))
	}
	return &queryir.RegexLike{Operand: field, Pattern: b.Bind(value.String(source))}, nil
}

func arrayContains(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error) {
	return &queryir.ArrayContains{Array: field, Value: b.Bind(operand)}, nil
}

// suffixLike matches when some suffix of the lowercased field starts with the
// lowercased operand, i.e. the operand occurs anywhere in the field ignoring
// case.
func suffixLike(field queryir.Operand, operand value.Value, b Binder) (queryir.Predicate, error) {
	s, ok := operand.(value.String)
	if !ok {
		return nil, qerr.New(qerr.CodeInvalidFilter, queryir.RenderOperand(field),
			"xlike operand must be a string, got %s", value.Kind(operand))
	}
	elem := fieldpath.Elem
	if f, ok := field.(*queryir.Field); ok && f.Var == fieldpath.Elem {
		elem = suffixVar
	}
	pattern := cases.Lower(language.Und).String(string(s)) + "%"
	return &queryir.Any{
		Var: elem,
		In: &queryir.Call{Func: queryir.FuncSuffixes, Args: []queryir.Operand{
			&queryir.Call{Func: queryir.FuncLower, Args: []queryir.Operand{field}},
		}},
		Satisfies: &queryir.Compare{
			Left:  queryir.ElemRef(elem, nil),
			Op:    queryir.OpLike,
			Right: b.Bind(value.String(pattern)),
		},
	}, nil
}
