package queryir

import "github.com/roach88/docql/internal/fieldpath"

// Operand is a value-producing expression.
//
// This is a sealed interface - only types in this package implement it.
//
// Operand types:
//   - Field: a document field, or a field of a bound element variable
//   - MetaID: the document's metadata identifier
//   - Param: a bound parameter
//   - Call: a scalar function applied to operands
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Predicate is a boolean expression.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Compare: binary comparison, LIKE or IN
//   - NullCheck: IS NULL / IS NOT NULL
//   - RegexLike: REGEX_LIKE(operand, pattern)
//   - ArrayContains: ARRAY_CONTAINS(array, value)
//   - Any: ANY var IN array SATISFIES predicate END
//   - Junction: terms joined with AND or OR
//   - Paren: an explicitly parenthesized predicate
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Field addresses a field. Var names the element variable the segments are
// relative to; an empty Var addresses the document itself. Segments never
// contain wildcards: the compiler splits wildcard paths into an Any.
type Field struct {
	Var      string
	Segments []fieldpath.Segment
}

func (*Field) operandNode() {}

// MetaID is the document's metadata identifier, rendered as
// TOSTRING(META().id).
type MetaID struct{}

func (*MetaID) operandNode() {}

// Param references a bound parameter by name (without the leading $).
type Param struct {
	Name string
}

func (*Param) operandNode() {}

// Func names a scalar function a Call may apply.
type Func string

// Scalar functions.
const (
	// FuncLower lowercases a string.
	FuncLower Func = "LOWER"

	// FuncSuffixes returns every suffix of a string, longest first.
	FuncSuffixes Func = "SUFFIXES"
)

// Call applies a scalar function to its arguments.
type Call struct {
	Func Func
	Args []Operand
}

func (*Call) operandNode() {}

// CompareOp is a comparison operator.
type CompareOp string

// Comparison operators.
const (
	OpEq      CompareOp = "="
	OpNe      CompareOp = "!="
	OpGt      CompareOp = ">"
	OpGte     CompareOp = ">="
	OpLt      CompareOp = "<"
	OpLte     CompareOp = "<="
	OpLike    CompareOp = "LIKE"
	OpNotLike CompareOp = "NOT LIKE"
	OpIn      CompareOp = "IN"
)

// Compare is Left <Op> Right. For OpIn, Right is a list-valued operand.
type Compare struct {
	Left  Operand
	Op    CompareOp
	Right Operand
}

func (*Compare) predicateNode() {}

// NullCheck is Operand IS NULL, or IS NOT NULL when Not is set. A missing
// field satisfies neither.
type NullCheck struct {
	Operand Operand
	Not     bool
}

func (*NullCheck) predicateNode() {}

// RegexLike matches Operand against the regular expression Pattern. The
// whole string must match.
type RegexLike struct {
	Operand Operand
	Pattern Operand
}

func (*RegexLike) predicateNode() {}

// ArrayContains is true when Array holds an element equal to Value.
type ArrayContains struct {
	Array Operand
	Value Operand
}

func (*ArrayContains) predicateNode() {}

// Any is true when some element of In satisfies Satisfies, with the element
// bound to Var. In is evaluated in the enclosing scope.
type Any struct {
	Var       string
	In        Operand
	Satisfies Predicate
}

func (*Any) predicateNode() {}

// Conj is a boolean connective.
type Conj string

// Connectives.
const (
	And Conj = "AND"
	Or  Conj = "OR"
)

// Junction joins its terms with Op. A Junction with a single term is that
// term. Rendering parenthesizes a nested OR junction inside an AND junction
// so the tree and its text never disagree on precedence.
type Junction struct {
	Op    Conj
	Terms []Predicate
}

func (*Junction) predicateNode() {}

// Paren wraps Inner in parentheses.
type Paren struct {
	Inner Predicate
}

func (*Paren) predicateNode() {}

// Ref builds a document Field operand from segments.
func Ref(segs []fieldpath.Segment) *Field {
	return &Field{Segments: segs}
}

// ElemRef builds a Field operand relative to the element variable name.
func ElemRef(name string, segs []fieldpath.Segment) *Field {
	return &Field{Var: name, Segments: segs}
}

// Join combines terms with op, dropping nil terms. It returns nil when no
// terms remain and the term itself when exactly one remains.
func Join(op Conj, terms ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(terms))
	for _, t := range terms {
		if t != nil {
			kept = append(kept, t)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &Junction{Op: op, Terms: kept}
	}
}
