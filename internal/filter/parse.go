package filter

import (
	"fmt"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/value"
)

// Keys reserved for grouping.
const (
	KeyAnd = "and"
	KeyOr  = "or"
)

// Parse validates a decoded filter document and returns its typed form.
//
// A null document parses to an empty Leaf. Any other non-object is an
// INVALID_FILTER error. Field paths are tokenized eagerly so path syntax
// errors surface here rather than during compilation.
func Parse(v value.Value) (Expression, error) {
	switch doc := v.(type) {
	case nil, value.Null:
		return &Leaf{}, nil
	case value.Object:
		return parseObject(doc, "where")
	default:
		return nil, qerr.New(qerr.CodeInvalidFilter, "",
			"filter must be an object, got %s", value.Kind(v))
	}
}

// ParseJSON decodes and parses a JSON filter document.
func ParseJSON(data []byte) (Expression, error) {
	v, err := value.Decode(data)
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidFilter, "", "decode filter: %v", err)
	}
	return Parse(v)
}

// ParseYAML decodes and parses a YAML filter document.
func ParseYAML(data []byte) (Expression, error) {
	v, err := value.DecodeYAML(data)
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidFilter, "", "decode filter: %v", err)
	}
	return Parse(v)
}

// FromAny converts a Go value (maps, slices, scalars, *regexp.Regexp) and
// parses it. Map keys are visited in sorted order.
func FromAny(v any) (Expression, error) {
	val, err := value.FromAny(v)
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidFilter, "", "convert filter: %v", err)
	}
	return Parse(val)
}

func parseObject(obj value.Object, at string) (Expression, error) {
	var (
		fields   []Field
		and, or  []Expression
		grouping bool
	)
	for _, m := range obj {
		switch m.Key {
		case KeyAnd:
			grouping = true
			list, err := parseList(m.Value, at+"."+KeyAnd)
			if err != nil {
				return nil, err
			}
			and = list
		case KeyOr:
			grouping = true
			list, err := parseList(m.Value, at+"."+KeyOr)
			if err != nil {
				return nil, err
			}
			or = list
		default:
			f, err := parseField(m.Key, m.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}
	if grouping {
		return &Group{And: and, Or: or, Fields: fields}, nil
	}
	return &Leaf{Fields: fields}, nil
}

func parseList(v value.Value, at string) ([]Expression, error) {
	switch list := v.(type) {
	case value.Null:
		return nil, nil
	case value.Array:
		out := make([]Expression, 0, len(list))
		for i, item := range list {
			obj, ok := item.(value.Object)
			if !ok {
				return nil, qerr.New(qerr.CodeInvalidFilter, at,
					"element %d must be an object, got %s", i, value.Kind(item))
			}
			child, err := parseObject(obj, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	default:
		return nil, qerr.New(qerr.CodeInvalidFilter, at,
			"expected a list of filter objects, got %s", value.Kind(v))
	}
}

func parseField(key string, v value.Value) (Field, error) {
	path, err := fieldpath.Parse(key)
	if err != nil {
		return Field{}, err
	}
	spec, err := parseSpec(key, v)
	if err != nil {
		return Field{}, err
	}
	return Field{Path: path, Spec: spec}, nil
}

func parseSpec(key string, v value.Value) (ValueSpec, error) {
	switch val := v.(type) {
	case nil, value.Null:
		return Null{}, nil
	case value.Array:
		return In{Values: val}, nil
	case value.Pattern:
		// A bare pattern is shorthand for {"regexp": pattern}.
		return OperatorMap{{Op: OpRegexp, Operand: val}}, nil
	case value.Object:
		return parseOperators(key, val)
	default:
		return Equal{Value: v}, nil
	}
}

func parseOperators(key string, obj value.Object) (OperatorMap, error) {
	if len(obj) == 0 {
		return nil, qerr.New(qerr.CodeInvalidFilter, key, "operator map is empty")
	}
	ops := make(OperatorMap, 0, len(obj))
	for _, m := range obj {
		op := Operator(m.Key)
		if !op.Valid() {
			return nil, qerr.New(qerr.CodeInvalidOperator, m.Key,
				"invalid comparison operator on field %q", key)
		}
		if err := checkOperand(key, op, m.Value); err != nil {
			return nil, err
		}
		ops = append(ops, Operation{Op: op, Operand: m.Value})
	}
	return ops, nil
}

func checkOperand(key string, op Operator, operand value.Value) error {
	switch op {
	case OpRegexp:
		switch operand.(type) {
		case value.String, value.Pattern:
			return nil
		}
		return qerr.New(qerr.CodeInvalidRegexp, key,
			"regexp operand must be a string or pattern, got %s", value.Kind(operand))
	case OpInq:
		if _, ok := operand.(value.Array); !ok {
			return qerr.New(qerr.CodeInvalidFilter, key,
				"inq operand must be a list, got %s", value.Kind(operand))
		}
	case OpXLike:
		if _, ok := operand.(value.String); !ok {
			return qerr.New(qerr.CodeInvalidFilter, key,
				"xlike operand must be a string, got %s", value.Kind(operand))
		}
	}
	return nil
}
