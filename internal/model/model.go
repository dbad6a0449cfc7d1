package model

import (
	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/query"
)

// KeyOrder is how an index key is stored.
type KeyOrder int

const (
	// Asc indexes the field value ascending.
	Asc KeyOrder = iota
	// Desc indexes the field value descending.
	Desc
	// XLike indexes every lowercased suffix of the field, serving xlike
	// predicates.
	XLike
)

// String returns the CUE spelling of the order.
func (o KeyOrder) String() string {
	switch o {
	case Asc:
		return "1"
	case Desc:
		return "-1"
	case XLike:
		return `"xlike"`
	default:
		return "unknown"
	}
}

// IndexKey is one key of a secondary index.
type IndexKey struct {
	Path  fieldpath.Path
	Order KeyOrder
}

// Index is a secondary index definition.
type Index struct {
	Name string
	Keys []IndexKey
}

// Model is a document type definition.
type Model struct {
	Name string

	// TypeKey is the discriminator field. Empty means query.DefaultTypeKey.
	TypeKey string

	// Hidden fields are stripped from query results.
	Hidden []string

	// Primary requests a primary index named after the model.
	Primary bool

	// Deferred creates indexes with defer_build; they need a BUILD INDEX.
	Deferred bool

	// Drop re-creates secondary indexes by dropping them first.
	Drop bool

	Indexes []Index
}

// QueryOptions returns statement options selecting this model's documents
// in keyspace.
func (m *Model) QueryOptions(keyspace string) query.Options {
	return query.Options{
		Keyspace: keyspace,
		TypeKey:  m.typeKey(),
		TypeName: m.Name,
	}
}

func (m *Model) typeKey() string {
	if m.TypeKey == "" {
		return query.DefaultTypeKey
	}
	return m.TypeKey
}

// Index returns the named index.
func (m *Model) Index(name string) (Index, bool) {
	for _, idx := range m.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}
