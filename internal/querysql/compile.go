package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/queryir"
	"github.com/roach88/docql/internal/value"
)

// Documents table layout.
const (
	Table          = "documents"
	ColumnID       = "id"
	ColumnKeyspace = "keyspace"
	ColumnBody     = "body"
)

// SQL function names registered by the docstore.
const (
	FuncRegexLike     = "regex_like"
	FuncArrayContains = "array_contains"
	FuncLower         = "n1ql_lower"
	FuncSuffixes      = "suffixes"
)

// SQLCompiler compiles statements and predicates to SQLite SQL.
//
// CRITICAL: every SELECT ends with a stable tiebreaker on id so results are
// deterministic.
// CRITICAL: all values are parameterized, never interpolated.
type SQLCompiler struct {
	// Params resolves Param operands.
	Params *queryir.Params

	aliases int
	scopes  []scope
	b       strings.Builder
	args    []any
}

// scope binds an ANY variable to its json_each alias. docBound is set when
// the iterated array lives in the document body, so element fields can be
// addressed through the alias's fullkey.
type scope struct {
	name     string
	alias    string
	docBound bool
}

// NewSQLCompiler creates a compiler resolving parameters from params.
func NewSQLCompiler(params *queryir.Params) *SQLCompiler {
	return &SQLCompiler{Params: params}
}

// Compile translates an assembled statement. Select statements yield
// (id, body) rows; count statements yield a single total.
// The index hint has no SQLite equivalent and is ignored.
func Compile(s *query.Statement) (string, []any, error) {
	if s == nil {
		return "", nil, fmt.Errorf("cannot compile nil statement")
	}
	c := NewSQLCompiler(s.Params)
	switch s.Kind {
	case query.KindCount:
		c.b.WriteString("SELECT COUNT(*) FROM " + Table)
		if err := c.writeFilter(s); err != nil {
			return "", nil, err
		}
	case query.KindSelect:
		c.b.WriteString("SELECT " + ColumnID + ", " + ColumnBody + " FROM " + Table)
		if err := c.writeFilter(s); err != nil {
			return "", nil, err
		}
		if err := c.writeOrder(s.Order); err != nil {
			return "", nil, err
		}
		c.writePagination(s.Limit, s.Offset)
	default:
		return "", nil, fmt.Errorf("unsupported statement kind: %d", s.Kind)
	}
	return c.b.String(), c.args, nil
}

// CompilePredicate translates a single predicate to a SQL boolean
// expression.
func (c *SQLCompiler) CompilePredicate(p queryir.Predicate) (string, []any, error) {
	c.b.Reset()
	c.args = nil
	if p == nil {
		return "1 = 1", nil, nil
	}
	if err := c.predicate(p); err != nil {
		return "", nil, err
	}
	return c.b.String(), c.args, nil
}

func (c *SQLCompiler) writeFilter(s *query.Statement) error {
	c.b.WriteString(" WHERE " + ColumnKeyspace + " = ?")
	c.args = append(c.args, s.Keyspace)
	if s.Where == nil {
		return nil
	}
	c.b.WriteString(" AND (")
	if err := c.predicate(s.Where); err != nil {
		return fmt.Errorf("compile where: %w", err)
	}
	c.b.WriteByte(')')
	return nil
}

// writeOrder sorts by N1QL collation: missing, null, false, true, numbers,
// strings, arrays, objects. The id tiebreaker is always appended.
func (c *SQLCompiler) writeOrder(terms []query.OrderTerm) error {
	c.b.WriteString(" ORDER BY ")
	for _, term := range terms {
		dir := " ASC"
		if term.Desc {
			dir = " DESC"
		}
		if term.Path.IsMetaID() {
			c.b.WriteString(ColumnID + dir + ", ")
			continue
		}
		path, err := jsonPath(term.Path.Segments())
		if err != nil {
			return err
		}
		c.b.WriteString("CASE json_type(" + ColumnBody + ", ?)" +
			" WHEN 'null' THEN 1 WHEN 'false' THEN 2 WHEN 'true' THEN 3" +
			" WHEN 'integer' THEN 4 WHEN 'real' THEN 4 WHEN 'text' THEN 5" +
			" WHEN 'array' THEN 6 WHEN 'object' THEN 7 ELSE 0 END" + dir)
		c.b.WriteString(", json_extract(" + ColumnBody + ", ?)" + dir + ", ")
		c.args = append(c.args, path, path)
	}
	c.b.WriteString(stableOrderKey())
	return nil
}

// stableOrderKey is the deterministic tiebreaker every SELECT ends with.
func stableOrderKey() string {
	return ColumnID + " COLLATE BINARY ASC"
}

func (c *SQLCompiler) writePagination(limit, offset int) {
	if limit <= 0 && offset <= 0 {
		return
	}
	c.b.WriteString(" LIMIT ?")
	if limit > 0 {
		c.args = append(c.args, limit)
	} else {
		c.args = append(c.args, -1)
	}
	if offset > 0 {
		c.b.WriteString(" OFFSET ?")
		c.args = append(c.args, offset)
	}
}

func (c *SQLCompiler) predicate(p queryir.Predicate) error {
	switch pred := p.(type) {
	case *queryir.Compare:
		return c.compare(pred)
	case *queryir.NullCheck:
		return c.nullCheck(pred)
	case *queryir.RegexLike:
		c.b.WriteString(FuncRegexLike + "(")
		if err := c.value(pred.Operand); err != nil {
			return err
		}
		c.b.WriteString(", ")
		if err := c.value(pred.Pattern); err != nil {
			return err
		}
		c.b.WriteString(") = 1")
		return nil
	case *queryir.ArrayContains:
		c.b.WriteString(FuncArrayContains + "(")
		if err := c.jsonValue(pred.Array); err != nil {
			return err
		}
		c.b.WriteString(", ")
		if err := c.jsonValue(pred.Value); err != nil {
			return err
		}
		c.b.WriteString(") = 1")
		return nil
	case *queryir.Any:
		return c.any(pred)
	case *queryir.Junction:
		sep := " AND "
		if pred.Op == queryir.Or {
			sep = " OR "
		}
		for i, term := range pred.Terms {
			if i > 0 {
				c.b.WriteString(sep)
			}
			c.b.WriteByte('(')
			if err := c.predicate(term); err != nil {
				return err
			}
			c.b.WriteByte(')')
		}
		return nil
	case *queryir.Paren:
		c.b.WriteByte('(')
		if err := c.predicate(pred.Inner); err != nil {
			return err
		}
		c.b.WriteByte(')')
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compare(cmp *queryir.Compare) error {
	switch cmp.Op {
	case queryir.OpIn:
		if err := c.value(cmp.Left); err != nil {
			return err
		}
		c.b.WriteString(" IN (SELECT value FROM json_each(")
		if err := c.jsonValue(cmp.Right); err != nil {
			return err
		}
		c.b.WriteString("))")
		return nil
	case queryir.OpLike, queryir.OpNotLike:
		if err := c.binary(cmp); err != nil {
			return err
		}
		c.b.WriteString(` ESCAPE '\'`)
		return nil
	case queryir.OpEq, queryir.OpNe, queryir.OpGt, queryir.OpGte, queryir.OpLt, queryir.OpLte:
		family, err := c.typeFamily(cmp)
		if err != nil {
			return err
		}
		switch {
		case family == "":
			return c.binary(cmp)
		case cmp.Op == queryir.OpNe:
			// A value of another type is unequal; null and missing never match.
			c.b.WriteByte('(')
			if err := c.jsonType(cmp.Left); err != nil {
				return err
			}
			c.b.WriteString(" NOT IN ('null', " + family + ") OR ")
			if err := c.binary(cmp); err != nil {
				return err
			}
			c.b.WriteByte(')')
			return nil
		default:
			if err := c.jsonType(cmp.Left); err != nil {
				return err
			}
			c.b.WriteString(" IN (" + family + ") AND ")
			return c.binary(cmp)
		}
	default:
		return fmt.Errorf("unsupported comparison operator: %q", cmp.Op)
	}
}

func (c *SQLCompiler) binary(cmp *queryir.Compare) error {
	if err := c.value(cmp.Left); err != nil {
		return err
	}
	c.b.WriteString(" " + string(cmp.Op) + " ")
	return c.value(cmp.Right)
}

// typeFamily returns the json_type names a field must have to be compared
// with a bound boolean or number, "" when no check applies. Booleans bind
// as 1/0, so without the check true would equal 1. Numbers are only checked
// for equality: ordering already ranks numbers below text.
func (c *SQLCompiler) typeFamily(cmp *queryir.Compare) (string, error) {
	if _, ok := cmp.Left.(*queryir.Field); !ok {
		return "", nil
	}
	p, ok := cmp.Right.(*queryir.Param)
	if !ok {
		return "", nil
	}
	v, err := c.param(p)
	if err != nil {
		return "", err
	}
	switch v.(type) {
	case value.Bool:
		return "'true', 'false'", nil
	case value.Int, value.Float:
		if cmp.Op == queryir.OpEq || cmp.Op == queryir.OpNe {
			return "'integer', 'real'", nil
		}
	}
	return "", nil
}

func (c *SQLCompiler) nullCheck(n *queryir.NullCheck) error {
	if _, ok := n.Operand.(*queryir.MetaID); ok {
		if n.Not {
			c.b.WriteString("1 = 1")
		} else {
			c.b.WriteString("1 = 0")
		}
		return nil
	}
	if err := c.jsonType(n.Operand); err != nil {
		return err
	}
	if n.Not {
		c.b.WriteString(" != 'null'")
	} else {
		c.b.WriteString(" = 'null'")
	}
	return nil
}

// any renders EXISTS over json_each. A document array must actually be an
// array; N1QL's ANY over any other value is false.
func (c *SQLCompiler) any(a *queryir.Any) error {
	c.aliases++
	alias := "je" + strconv.Itoa(c.aliases)
	field, docBound := a.In.(*queryir.Field)

	if docBound {
		c.b.WriteByte('(')
		if err := c.jsonType(field); err != nil {
			return err
		}
		c.b.WriteString(" = 'array' AND ")
	}
	c.b.WriteString("EXISTS (SELECT 1 FROM json_each(")
	if docBound {
		if err := c.docPath(field); err != nil {
			return err
		}
	} else if err := c.value(a.In); err != nil {
		return err
	}
	c.b.WriteString(") AS " + alias + " WHERE ")

	c.scopes = append(c.scopes, scope{name: a.Var, alias: alias, docBound: docBound})
	err := c.predicate(a.Satisfies)
	c.scopes = c.scopes[:len(c.scopes)-1]
	if err != nil {
		return err
	}
	c.b.WriteByte(')')
	if docBound {
		c.b.WriteByte(')')
	}
	return nil
}

func (c *SQLCompiler) lookup(name string) (scope, error) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].name == name {
			return c.scopes[i], nil
		}
	}
	return scope{}, fmt.Errorf("unbound variable %q", name)
}

// docPath writes the "body, <path>" argument pair addressing a document
// field, for use inside json_extract, json_type and json_each.
func (c *SQLCompiler) docPath(f *queryir.Field) error {
	rel, err := relPath(f.Segments)
	if err != nil {
		return err
	}
	if f.Var == "" {
		c.b.WriteString(ColumnBody + ", ?")
		c.args = append(c.args, "$"+rel)
		return nil
	}
	sc, err := c.lookup(f.Var)
	if err != nil {
		return err
	}
	if !sc.docBound {
		return fmt.Errorf("variable %q is not bound to a document array", f.Var)
	}
	c.b.WriteString(ColumnBody + ", " + sc.alias + ".fullkey")
	if rel != "" {
		c.b.WriteString(" || ?")
		c.args = append(c.args, rel)
	}
	return nil
}

// value writes an SQL expression producing the operand's value.
func (c *SQLCompiler) value(o queryir.Operand) error {
	switch op := o.(type) {
	case *queryir.Field:
		if op.Var != "" {
			sc, err := c.lookup(op.Var)
			if err != nil {
				return err
			}
			if !sc.docBound {
				return c.elemValue(sc, op.Segments)
			}
		}
		c.b.WriteString("json_extract(")
		if err := c.docPath(op); err != nil {
			return err
		}
		c.b.WriteByte(')')
		return nil
	case *queryir.MetaID:
		c.b.WriteString(ColumnID)
		return nil
	case *queryir.Param:
		v, err := c.param(op)
		if err != nil {
			return err
		}
		arg, err := Arg(v)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", op.Name, err)
		}
		c.b.WriteByte('?')
		c.args = append(c.args, arg)
		return nil
	case *queryir.Call:
		var fn string
		switch op.Func {
		case queryir.FuncLower:
			fn = FuncLower
		case queryir.FuncSuffixes:
			fn = FuncSuffixes
		default:
			return fmt.Errorf("unsupported function: %s", op.Func)
		}
		c.b.WriteString(fn + "(")
		for i, arg := range op.Args {
			if i > 0 {
				c.b.WriteString(", ")
			}
			if err := c.value(arg); err != nil {
				return err
			}
		}
		c.b.WriteByte(')')
		return nil
	default:
		return fmt.Errorf("unsupported operand type: %T", o)
	}
}

// jsonValue writes an expression producing the operand as JSON text.
func (c *SQLCompiler) jsonValue(o queryir.Operand) error {
	switch op := o.(type) {
	case *queryir.Param:
		v, err := c.param(op)
		if err != nil {
			return err
		}
		lit, err := value.Literal(v)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", op.Name, err)
		}
		c.b.WriteByte('?')
		c.args = append(c.args, lit)
		return nil
	case *queryir.Field:
		if op.Var != "" {
			sc, err := c.lookup(op.Var)
			if err != nil {
				return err
			}
			if !sc.docBound {
				c.b.WriteString("json_quote(")
				if err := c.elemValue(sc, op.Segments); err != nil {
					return err
				}
				c.b.WriteByte(')')
				return nil
			}
		}
		// json_quote keeps objects and arrays as JSON and quotes scalars.
		c.b.WriteString("json_quote(json_extract(")
		if err := c.docPath(op); err != nil {
			return err
		}
		c.b.WriteString("))")
		return nil
	default:
		c.b.WriteString("json_quote(")
		if err := c.value(o); err != nil {
			return err
		}
		c.b.WriteByte(')')
		return nil
	}
}

// jsonType writes an expression yielding the JSON type name of the operand,
// NULL when it is missing.
func (c *SQLCompiler) jsonType(o queryir.Operand) error {
	f, ok := o.(*queryir.Field)
	if !ok {
		c.b.WriteString("CASE WHEN ")
		if err := c.value(o); err != nil {
			return err
		}
		c.b.WriteString(" IS NULL THEN 'null' ELSE 'text' END")
		return nil
	}
	if f.Var != "" {
		sc, err := c.lookup(f.Var)
		if err != nil {
			return err
		}
		if !sc.docBound {
			if len(f.Segments) == 0 {
				c.b.WriteString(sc.alias + ".type")
				return nil
			}
			rel, err := relPath(f.Segments)
			if err != nil {
				return err
			}
			c.b.WriteString("json_type(" + sc.alias + ".value, ?)")
			c.args = append(c.args, "$"+rel)
			return nil
		}
	}
	c.b.WriteString("json_type(")
	if err := c.docPath(f); err != nil {
		return err
	}
	c.b.WriteByte(')')
	return nil
}

// elemValue writes the value of an element of a computed array, such as
// SUFFIXES, or of a field within it.
func (c *SQLCompiler) elemValue(sc scope, segs []fieldpath.Segment) error {
	if len(segs) == 0 {
		c.b.WriteString(sc.alias + ".value")
		return nil
	}
	rel, err := relPath(segs)
	if err != nil {
		return err
	}
	c.b.WriteString("json_extract(" + sc.alias + ".value, ?)")
	c.args = append(c.args, "$"+rel)
	return nil
}

func (c *SQLCompiler) param(p *queryir.Param) (value.Value, error) {
	v, ok := c.Params.Get(p.Name)
	if !ok {
		return nil, fmt.Errorf("parameter %s is not bound", p.Name)
	}
	return v, nil
}

// Arg converts a bound value to a SQLite argument. Booleans become 1/0 to
// match json_extract, with comparisons checking the stored JSON type; arrays
// and objects become JSON text.
func Arg(v value.Value) (any, error) {
	switch val := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.String:
		return string(val), nil
	case value.Pattern:
		return string(val), nil
	case value.Int:
		return int64(val), nil
	case value.Float:
		return float64(val), nil
	case value.Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case value.Array, value.Object:
		return value.Literal(val)
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// jsonPath renders segments as an absolute SQLite JSON path.
func jsonPath(segs []fieldpath.Segment) (string, error) {
	rel, err := relPath(segs)
	if err != nil {
		return "", err
	}
	return "$" + rel, nil
}

// relPath renders segments as a JSON path suffix such as ."a"[0]."b".
func relPath(segs []fieldpath.Segment) (string, error) {
	var b strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case fieldpath.Identifier:
			if strings.ContainsRune(seg.Name, '"') {
				return "", fmt.Errorf("field name %q cannot be addressed in a JSON path", seg.Name)
			}
			b.WriteString(`."`)
			b.WriteString(seg.Name)
			b.WriteByte('"')
		case fieldpath.Index:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		default:
			return "", fmt.Errorf("wildcard cannot be addressed in a JSON path")
		}
	}
	return b.String(), nil
}
