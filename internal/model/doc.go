// Package model loads document model definitions from CUE and renders the
// index DDL they declare.
//
// A model names a document type stored in a shared keyspace. Documents of
// the type carry the model name in their type key (default "_type").
//
//	model: Book: {
//		hidden: ["internalNotes"]
//		primary:  true   // CREATE PRIMARY INDEX `Book`
//		deferred: true   // WITH {"defer_build":true}
//		drop:     false  // DROP INDEX before re-creating secondary indexes
//		indexes: {
//			title_search: keys: {title: "xlike", publishedAt: -1}
//			by_author: {"authors.*.name": 1}
//			isbn_index: true
//		}
//	}
//
// Index keys are ordered. A key is ascending (1), descending (-1) or a
// suffix search key ("xlike"). The shorthand <field>_index: true indexes a
// single ascending field.
//
// CRITICAL: DDL text is rendered with $doctype placeholders and inlined
// through package inline, the same path query statements take. Nothing in
// this package interpolates model names into DDL directly.
package model
