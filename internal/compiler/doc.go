// Package compiler turns a parsed filter expression into a queryir predicate
// tree and the parameter table its Param operands refer to.
//
// COMPILATION:
//
// A filter is walked top down with a combinator (AND at the top level):
//
//   - A Group is normalized into an "and" sequence (its own field predicates
//     folded in as one more clause) and an "or" sequence. The and-sequence is
//     walked under AND, the or-sequence under OR, and the two results are
//     joined with the combinator inherited from the caller, then wrapped in
//     parentheses.
//   - A Leaf renders its field predicates joined with the active combinator,
//     wrapped in parentheses. An empty Leaf contributes nothing.
//
// PARAMETER NAMING:
//
// Every compile call owns one counter. It ticks once per field predicate and
// once per operator applied to that field, and every tick yields the name
// param_<n>. Equality and membership bind under the field's tick; each
// operator binds under its own. Null tests tick without binding, so numbering
// is stable no matter which values are null.
//
// Compilation holds no package-level state. Concurrent compile calls share
// nothing.
package compiler
