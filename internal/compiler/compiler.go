package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/queryir"
)

// ParamPrefix prefixes every generated parameter name.
const ParamPrefix = "param_"

// ParamName returns the parameter name for counter value n.
func ParamName(n int) string {
	return ParamPrefix + strconv.Itoa(n)
}

// Clause is a compiled WHERE clause.
type Clause struct {
	// Where is the predicate tree, nil when the filter selects everything.
	Where queryir.Predicate

	// Params holds every value Where references.
	Params *queryir.Params
}

// Text renders the clause as N1QL, "" when the filter is empty.
func (c *Clause) Text() string {
	return queryir.Render(c.Where)
}

// ParamsUsed returns the parameter names the clause text references.
func (c *Clause) ParamsUsed() []string {
	return queryir.ParamsUsed(c.Where)
}

// Empty reports whether the clause constrains nothing.
func (c *Clause) Empty() bool {
	return c.Where == nil
}

// Compiler compiles filter expressions with a fixed operator registry.
// A Compiler is immutable and safe for concurrent use.
type Compiler struct {
	ops Registry
}

// New creates a Compiler. A nil registry means DefaultRegistry.
func New(ops Registry) *Compiler {
	if ops == nil {
		ops = DefaultRegistry()
	}
	return &Compiler{ops: ops}
}

// Compile compiles e with the default operator registry.
func Compile(e filter.Expression) (*Clause, error) {
	return New(nil).Compile(e)
}

// Compile compiles e. Compilation either fully succeeds or fails with the
// first client-input error; no partial clause is returned.
func (c *Compiler) Compile(e filter.Expression) (*Clause, error) {
	ctx := &compileContext{ops: c.ops, params: queryir.NewParams()}
	where, err := ctx.walk(e, queryir.And)
	if err != nil {
		return nil, err
	}
	return &Clause{Where: where, Params: ctx.params}, nil
}

// compileContext owns the mutable state of one compile call.
type compileContext struct {
	ops    Registry
	n      int
	params *queryir.Params
}

func (c *compileContext) next() string {
	c.n++
	return ParamName(c.n)
}

func (c *compileContext) walk(e filter.Expression, comb queryir.Conj) (queryir.Predicate, error) {
	switch node := e.(type) {
	case nil:
		return nil, nil
	case *filter.Group:
		ands, ors := Normalize(node)
		andPred, err := c.walkSeq(ands, queryir.And)
		if err != nil {
			return nil, err
		}
		orPred, err := c.walkSeq(ors, queryir.Or)
		if err != nil {
			return nil, err
		}
		joined := queryir.Join(comb, andPred, orPred)
		if joined == nil {
			return nil, nil
		}
		return &queryir.Paren{Inner: joined}, nil
	case *filter.Leaf:
		if len(node.Fields) == 0 {
			return nil, nil
		}
		terms := make([]queryir.Predicate, 0, len(node.Fields))
		for _, f := range node.Fields {
			pred, err := c.field(f)
			if err != nil {
				return nil, err
			}
			terms = append(terms, pred)
		}
		return &queryir.Paren{Inner: queryir.Join(comb, terms...)}, nil
	default:
		return nil, fmt.Errorf("unsupported filter expression: %T", e)
	}
}

func (c *compileContext) walkSeq(seq []filter.Expression, comb queryir.Conj) (queryir.Predicate, error) {
	terms := make([]queryir.Predicate, 0, len(seq))
	for _, e := range seq {
		pred, err := c.walk(e, comb)
		if err != nil {
			return nil, err
		}
		terms = append(terms, pred)
	}
	return queryir.Join(comb, terms...), nil
}

func (c *compileContext) field(f filter.Field) (queryir.Predicate, error) {
	name := c.next()
	target, wrap := resolve(f.Path)

	var pred queryir.Predicate
	switch spec := f.Spec.(type) {
	case filter.Equal:
		c.params.Bind(name, spec.Value)
		pred = &queryir.Compare{Left: target, Op: queryir.OpEq, Right: &queryir.Param{Name: name}}
	case filter.Null:
		pred = &queryir.NullCheck{Operand: target}
	case filter.In:
		c.params.Bind(name, spec.Values)
		pred = &queryir.Compare{Left: target, Op: queryir.OpIn, Right: &queryir.Param{Name: name}}
	case filter.OperatorMap:
		terms := make([]queryir.Predicate, 0, len(spec))
		for _, op := range spec {
			fn, err := c.ops.Lookup(op.Op)
			if err != nil {
				return nil, err
			}
			term, err := fn(target, op.Operand, Binder{name: c.next(), params: c.params})
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
		}
		pred = queryir.Join(queryir.And, terms...)
	default:
		return nil, fmt.Errorf("unsupported value spec for %q: %T", f.Path.String(), f.Spec)
	}
	return wrap(pred), nil
}

// resolve returns the operand a field's predicates compare against and the
// wrapper that places them in the path's context. Wildcard paths compare
// against the element variable inside ANY ... SATISFIES ... END.
func resolve(p fieldpath.Path) (queryir.Operand, func(queryir.Predicate) queryir.Predicate) {
	identity := func(pred queryir.Predicate) queryir.Predicate { return pred }
	if p.IsMetaID() {
		return &queryir.MetaID{}, identity
	}
	array, rest, ok := p.Split()
	if !ok {
		return queryir.Ref(p.Segments()), identity
	}
	return queryir.ElemRef(fieldpath.Elem, rest), func(pred queryir.Predicate) queryir.Predicate {
		if pred == nil {
			return nil
		}
		return &queryir.Any{Var: fieldpath.Elem, In: queryir.Ref(array), Satisfies: pred}
	}
}
