package model

import (
	"errors"
	"strings"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/inline"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/queryir"
	"github.com/roach88/docql/internal/value"
)

// DeferBuild is the WITH clause of deferred index definitions.
const DeferBuild = `WITH {"defer_build":true}`

// DDLKind distinguishes index statements.
type DDLKind int

const (
	DDLDrop DDLKind = iota
	DDLCreatePrimary
	DDLCreate
	DDLBuild
)

func (k DDLKind) String() string {
	switch k {
	case DDLDrop:
		return "drop"
	case DDLCreatePrimary:
		return "create-primary"
	case DDLCreate:
		return "create"
	case DDLBuild:
		return "build"
	default:
		return "unknown"
	}
}

// DDL is one index statement. Text may hold $doctype; Inline yields the
// executable form.
type DDL struct {
	Kind   DDLKind
	Index  string
	Text   string
	Params *queryir.Params
}

// Inline returns the executable statement text.
func (d DDL) Inline() (string, error) {
	return inline.Inline(d.Text, d.Params)
}

// Plan renders the statements that create the model's indexes in keyspace,
// in execution order: drops, the primary index, secondary indexes, and a
// single BUILD INDEX when creation is deferred.
func (m *Model) Plan(keyspace string) ([]DDL, error) {
	if keyspace == "" {
		return nil, query.ErrNoKeyspace
	}
	if errs := Validate(m); len(errs) > 0 {
		return nil, errors.Join(validationErrors(errs)...)
	}

	params := queryir.NewParams()
	params.Bind(query.DocTypeParam, value.String(m.Name))
	ks := fieldpath.Quote(keyspace)

	var plan []DDL
	if m.Drop {
		for _, idx := range m.Indexes {
			plan = append(plan, DDL{
				Kind:  DDLDrop,
				Index: idx.Name,
				Text:  "DROP INDEX " + ks + "." + fieldpath.Quote(idx.Name),
			})
		}
	}

	var built []string
	if m.Primary {
		text := "CREATE PRIMARY INDEX " + fieldpath.Quote(m.Name) + " ON " + ks
		if m.Deferred {
			text += " " + DeferBuild
		}
		plan = append(plan, DDL{Kind: DDLCreatePrimary, Index: m.Name, Text: text})
		built = append(built, fieldpath.Quote(m.Name))
	}

	discriminator := fieldpath.Quote(m.typeKey()) + " = $" + query.DocTypeParam
	for _, idx := range m.Indexes {
		var b strings.Builder
		b.WriteString("CREATE INDEX ")
		b.WriteString(fieldpath.Quote(idx.Name))
		b.WriteString(" ON ")
		b.WriteString(ks)
		b.WriteByte('(')
		for i, key := range idx.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(KeyExpr(key))
		}
		b.WriteString(") WHERE ")
		b.WriteString(discriminator)
		if m.Deferred {
			b.WriteString(" " + DeferBuild)
		}
		plan = append(plan, DDL{Kind: DDLCreate, Index: idx.Name, Text: b.String(), Params: params})
		built = append(built, fieldpath.Quote(idx.Name))
	}

	if m.Deferred && len(built) > 0 {
		plan = append(plan, DDL{
			Kind: DDLBuild,
			Text: "BUILD INDEX ON " + ks + "(" + strings.Join(built, ", ") + ")",
		})
	}
	return plan, nil
}

// KeyExpr renders an index key in index-definition mode.
func KeyExpr(key IndexKey) string {
	expr := key.Path.IndexKey()
	switch key.Order {
	case Desc:
		return expr + " DESC"
	case XLike:
		elem := fieldpath.Quote(fieldpath.Elem)
		return "DISTINCT ARRAY " + elem + " FOR " + elem +
			" IN " + string(queryir.FuncSuffixes) + "(" + string(queryir.FuncLower) + "(" + expr + ")) END"
	default:
		return expr
	}
}

func validationErrors(errs []ValidationError) []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}
