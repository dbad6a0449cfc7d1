package filter

import (
	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/value"
)

// Expression is a sealed interface: either a *Group or a *Leaf.
type Expression interface {
	expression() // Marker method - seals interface to this package
}

// Group is a filter object carrying "and" and/or "or" keys. Field predicates
// written next to those keys are kept in Fields.
type Group struct {
	And    []Expression
	Or     []Expression
	Fields []Field
}

func (*Group) expression() {}

// Leaf is a filter object made only of field predicates. An empty Leaf
// contributes nothing to a compiled clause.
type Leaf struct {
	Fields []Field
}

func (*Leaf) expression() {}

// Field is one field predicate: a tokenized path and what to test it against.
type Field struct {
	Path fieldpath.Path
	Spec ValueSpec
}

// ValueSpec is a sealed interface: Equal, Null, In or OperatorMap.
type ValueSpec interface {
	valueSpec() // Marker method - seals interface to this package
}

// Equal tests the field for equality with a scalar value.
type Equal struct {
	Value value.Value
}

func (Equal) valueSpec() {}

// Null tests the field for IS NULL. It never binds a parameter.
type Null struct{}

func (Null) valueSpec() {}

// In tests the field for membership in a literal list.
type In struct {
	Values value.Array
}

func (In) valueSpec() {}

// OperatorMap applies one or more operators to the field. Operations keep
// the order they were written in and are AND-combined.
type OperatorMap []Operation

func (OperatorMap) valueSpec() {}

// Operation is a single operator applied to an operand.
type Operation struct {
	Op      Operator
	Operand value.Value
}

// Operator is an operator key of the filter vocabulary.
type Operator string

// Operator vocabulary. Equality is implicit (a bare scalar value).
const (
	OpLike          Operator = "like"
	OpNotLike       Operator = "nlike"
	OpGt            Operator = "gt"
	OpGte           Operator = "gte"
	OpLt            Operator = "lt"
	OpLte           Operator = "lte"
	OpInq           Operator = "inq"
	OpNeq           Operator = "neq"
	OpNe            Operator = "ne"
	OpRegexp        Operator = "regexp"
	OpArrayContains Operator = "array_contains"
	OpXLike         Operator = "xlike"
)

var vocabulary = []Operator{
	OpLike, OpNotLike,
	OpGt, OpGte, OpLt, OpLte,
	OpInq, OpNeq, OpNe,
	OpRegexp, OpArrayContains, OpXLike,
}

// Vocabulary returns the operator keys accepted in value specs.
func Vocabulary() []Operator {
	out := make([]Operator, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Valid reports whether op is part of the vocabulary.
func (op Operator) Valid() bool {
	for _, known := range vocabulary {
		if op == known {
			return true
		}
	}
	return false
}

// IsEmpty reports whether e contributes nothing: an empty Leaf, or a Group
// whose children and fields are all empty.
func IsEmpty(e Expression) bool {
	switch node := e.(type) {
	case nil:
		return true
	case *Leaf:
		return len(node.Fields) == 0
	case *Group:
		if len(node.Fields) > 0 {
			return false
		}
		for _, child := range node.And {
			if !IsEmpty(child) {
				return false
			}
		}
		for _, child := range node.Or {
			if !IsEmpty(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
