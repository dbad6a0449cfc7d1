// Package docstore provides a SQLite-backed JSON document store that runs
// compiled filter statements locally.
//
// Documents live in a single table keyed by (keyspace, id), with the JSON
// body stored as text. Statements are translated by querysql; the N1QL
// functions that SQLite lacks are registered on every connection:
//
//   - regex_like(s, pattern): whole-string regular expression match
//   - n1ql_lower(s): Unicode lowercasing
//   - suffixes(s): JSON array of every suffix of s
//   - array_contains(array, value): JSON element membership
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - case_sensitive_like=ON: LIKE matches case like N1QL does
//
// # Deterministic Results
//
// Every SELECT ends with ORDER BY ... id COLLATE BINARY ASC, so documents
// that tie on the requested order come back in the same order every time.
package docstore
