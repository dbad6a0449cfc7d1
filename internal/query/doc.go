// Package query assembles complete N1QL statements around a compiled WHERE
// clause.
//
// A statement is built from a LoopBack-style filter document:
//
//	{
//	  "where":  {"name": "foo"},
//	  "fields": ["name", "title"],
//	  "order":  ["updatedAt DESC", "name ASC"],
//	  "limit":  25,
//	  "skip":   50
//	}
//
// Order terms and pagination are validated by ParseFilter, before any clause
// is compiled. Select and Count then render parameterized text; the
// statement's Inline method produces the executable form.
//
// Every statement is restricted to one document type: the type key (default
// "_type") must equal the model name, bound as $doctype like any other value.
package query
