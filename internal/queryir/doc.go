// Package queryir provides the predicate tree compiled filters are expressed
// in, along with the parameter table that carries their bound values.
//
// The tree is the abstraction boundary between the filter compiler and the
// backends that execute it:
//
//	[filter] → [compiler] → [queryir tree + Params] → N1QL text (Render)
//	                                                → SQLite SQL (querysql)
//
// Couchbase receives the rendered N1QL text; the embedded SQLite document
// store translates the same tree, so both backends agree on which documents
// a filter selects.
//
// SEALED INTERFACES:
//
// Operand and Predicate are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which lets backends
// switch exhaustively:
//
//	switch p := pred.(type) {
//	case *Compare:
//	case *NullCheck:
//	case *Any:
//	...
//	}
//
// VALUES NEVER APPEAR IN THE TREE:
//
// Every literal is bound through Params and referenced by a Param operand.
// Rendering never interpolates values; the inline package is the only place
// bound values become query text.
package queryir
