// Package querysql translates queryir predicate trees into parameterized
// SQLite SQL over a table of JSON documents.
//
// The documents table holds one row per document with its identifier, its
// keyspace and its JSON body. Field operands become json_extract calls,
// ANY quantifiers become EXISTS over json_each, and the N1QL scalar functions
// map to SQL functions the docstore package registers on every connection:
//
//	REGEX_LIKE(x, p)         regex_like(x, p)
//	ARRAY_CONTAINS(a, v)     array_contains(a, v)   (JSON text arguments)
//	LOWER(x)                 n1ql_lower(x)
//	SUFFIXES(x)              suffixes(x)            (returns a JSON array)
//
// CRITICAL: values are never interpolated. Bound parameters, JSON paths and
// the keyspace are all passed as ? arguments.
package querysql
