package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/docql/internal/compiler"
	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/inline"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/queryir"
	"github.com/roach88/docql/internal/value"
)

// DefaultTypeKey is the document field holding the model name.
const DefaultTypeKey = "_type"

// DocTypeParam is the parameter the model name is bound to.
const DocTypeParam = "doctype"

// Kind distinguishes statement shapes.
type Kind int

const (
	// KindSelect returns matching documents.
	KindSelect Kind = iota
	// KindCount returns the number of matching documents as "total".
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindCount:
		return "count"
	default:
		return "unknown"
	}
}

// ErrNoKeyspace is returned when Options carries no keyspace.
var ErrNoKeyspace = errors.New("query: keyspace is required")

// Options describe where a statement reads from.
type Options struct {
	// Keyspace is the bucket name.
	Keyspace string

	// TypeKey is the discriminator field. Defaults to DefaultTypeKey.
	TypeKey string

	// TypeName is the model name. Empty disables type discrimination.
	TypeName string

	// Index names a secondary index the statement should use.
	Index string

	// Compiler compiles WHERE clauses. Nil uses the default registry.
	Compiler *compiler.Compiler
}

func (o Options) typeKey() string {
	if o.TypeKey == "" {
		return DefaultTypeKey
	}
	return o.TypeKey
}

func (o Options) compiler() *compiler.Compiler {
	if o.Compiler == nil {
		return compiler.New(nil)
	}
	return o.Compiler
}

// Statement is an assembled query. Text holds $name placeholders; every
// placeholder is bound in Params.
type Statement struct {
	Kind     Kind
	Keyspace string
	TypeKey  string
	TypeName string
	Index    string

	// Fields is the explicit projection; empty selects whole documents.
	Fields []fieldpath.Path

	// Clause is the compiled user filter.
	Clause *compiler.Clause

	// Where is the full predicate: type discrimination AND Clause.
	Where queryir.Predicate

	// Params binds the model name and every clause parameter.
	Params *queryir.Params

	Order  []OrderTerm
	Limit  int
	Offset int

	text string
}

// Text returns the parameterized statement text.
func (s *Statement) Text() string { return s.text }

// String implements fmt.Stringer.
func (s *Statement) String() string { return s.text }

// Inline returns the executable statement text with every parameter replaced
// by its literal.
func (s *Statement) Inline() (string, error) {
	return inline.Inline(s.text, s.Params)
}

// Select assembles a SELECT statement for f.
func Select(opts Options, f *Filter) (*Statement, error) {
	if f == nil {
		f = &Filter{}
	}
	if f.Limit < 0 {
		return nil, qerr.New(qerr.CodeInvalidPagination, KeyLimit, "must not be negative, got %d", f.Limit)
	}
	if f.Skip < 0 {
		return nil, qerr.New(qerr.CodeInvalidPagination, KeySkip, "must not be negative, got %d", f.Skip)
	}
	for _, term := range f.Order {
		if _, err := term.Path.Plain(); err != nil {
			return nil, err
		}
	}

	s, err := prepare(opts, KindSelect, f.Where)
	if err != nil {
		return nil, err
	}
	s.Fields = f.Fields
	s.Order = f.Order
	s.Limit = f.Limit
	s.Offset = f.Skip

	projection, err := projection(f.Fields)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(projection)
	writeSource(&b, s)
	if len(s.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, term := range s.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(term.String())
		}
	}
	if s.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.Limit))
	}
	if s.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(s.Offset))
	}
	s.text = b.String()
	return s, nil
}

// Count assembles a statement counting the documents where selects. The
// result has a single row with a "total" field.
func Count(opts Options, where filter.Expression) (*Statement, error) {
	s, err := prepare(opts, KindCount, where)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT COUNT(META().id) AS total")
	writeSource(&b, s)
	s.text = b.String()
	return s, nil
}

func prepare(opts Options, kind Kind, where filter.Expression) (*Statement, error) {
	if opts.Keyspace == "" {
		return nil, ErrNoKeyspace
	}
	if where == nil {
		where = &filter.Leaf{}
	}
	clause, err := opts.compiler().Compile(where)
	if err != nil {
		return nil, err
	}

	s := &Statement{
		Kind:     kind,
		Keyspace: opts.Keyspace,
		TypeKey:  opts.typeKey(),
		TypeName: opts.TypeName,
		Index:    opts.Index,
		Clause:   clause,
		Params:   queryir.NewParams(),
	}

	var typePred queryir.Predicate
	if opts.TypeName != "" {
		s.Params.Bind(DocTypeParam, value.String(opts.TypeName))
		typePred = &queryir.Compare{
			Left:  queryir.Ref([]fieldpath.Segment{fieldpath.Ident(s.TypeKey)}),
			Op:    queryir.OpEq,
			Right: &queryir.Param{Name: DocTypeParam},
		}
	}
	s.Params.Merge(clause.Params)
	s.Where = queryir.Join(queryir.And, typePred, clause.Where)
	return s, nil
}

func writeSource(b *strings.Builder, s *Statement) {
	b.WriteString(" FROM ")
	b.WriteString(fieldpath.Quote(s.Keyspace))
	if s.Index != "" {
		b.WriteString(" USE INDEX (")
		b.WriteString(fieldpath.Quote(s.Index))
		b.WriteString(" USING GSI)")
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(queryir.Render(s.Where))
	}
}

// projection renders the select list. The metadata identifier is always
// projected as id, so an explicit "id" field is skipped.
func projection(fields []fieldpath.Path) (string, error) {
	idAlias := fieldpath.MetaID + " AS id"
	if len(fields) == 0 {
		return "*, " + idAlias, nil
	}
	parts := make([]string, 0, len(fields)+1)
	for _, p := range fields {
		if p.IsMetaID() {
			continue
		}
		field, err := p.Plain()
		if err != nil {
			return "", fmt.Errorf("projection: %w", err)
		}
		parts = append(parts, field)
	}
	parts = append(parts, idAlias)
	return strings.Join(parts, ", "), nil
}
