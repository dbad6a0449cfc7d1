// Package filter models the declarative filter document as an explicit
// tagged union and validates its shape at parse time.
//
// A filter document is a JSON object. Keys "and" and "or" hold lists of
// nested filter objects; every other key is a field path mapped to a value
// spec:
//
//	{"name": "foo"}                      equality
//	{"deleted": null}                    IS NULL
//	{"user": ["a", "b"]}                 membership
//	{"age": {"gte": 1, "lte": 9}}        operators, AND-combined per field
//	{"and": [{...}], "or": [{...}]}      grouping
//
// Malformed shapes are rejected here, before compilation begins, so the
// compiler only ever sees Group, Leaf and the four ValueSpec variants.
package filter
