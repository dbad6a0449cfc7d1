// Package value defines the literal values that flow through filter
// compilation: field operands, parameter table entries and the structural
// literals the inliner writes into query text.
//
// Value is a sealed interface. Only Null, String, Int, Float, Bool, Array,
// Object and Pattern implement it, so the compiler and the inliner can switch
// exhaustively over the shapes a JSON document can take.
//
// Object preserves member order. Filter documents are order-sensitive: the
// order of field keys decides the order of clauses and of parameter names, so
// decoding never goes through a Go map.
package value
