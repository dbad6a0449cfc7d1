package query

import "github.com/roach88/docql/internal/value"

// Document is one result row: the metadata identifier and the document
// fields, or the projected subset when the statement selects fields.
type Document struct {
	ID     string
	Fields value.Object
}

// Object returns the document as a single object with "id" last, the shape
// a SELECT *, TOSTRING(META().id) AS id row has once unwrapped.
func (d Document) Object() value.Object {
	out := d.Fields.Without("id")
	return append(out, value.M("id", value.String(d.ID)))
}

// Without returns a copy of d lacking the given fields.
func (d Document) Without(fields ...string) Document {
	return Document{ID: d.ID, Fields: d.Fields.Without(fields...)}
}
