// Package couchbase runs assembled statements against a Couchbase cluster.
//
// Statements are sent fully inlined: the text produced by
// query.Statement.Inline is the only thing that reaches the server, so no
// separate parameter binding happens here. Rows are read lazily from the
// cluster's result stream.
//
// Result rows come in two shapes:
//
//	SELECT *, TOSTRING(META().id) AS id ...  → {"<bucket>": {...}, "id": "..."}
//	SELECT a, b, TOSTRING(META().id) AS id   → {"a": ..., "b": ..., "id": "..."}
//
// Both are unwrapped into query.Document values.
package couchbase
