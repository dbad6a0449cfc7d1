// Package harness runs YAML query scenarios against a fresh local docstore.
//
// A scenario declares models in CUE, seeds documents into one keyspace, and
// issues a list of queries. Each query records the inlined statement it
// assembled along with the ids, count or error it produced, and is checked
// against its expect clause.
//
// # Scenario Format
//
//	name: library
//	description: "Book lookups"
//	keyspace: library
//	id_prefix: book
//	models: |
//	  model: Book: {
//	    hidden: ["cost"]
//	    indexes: title_index: true
//	  }
//	documents:
//	  - {_type: Book, id: b1, title: Fight Club, cost: 3}
//	  - {_type: Book, title: Deep Water}
//	queries:
//	  - name: by_title
//	    model: Book
//	    filter: {where: {title: {xlike: fight}}}
//	    expect:
//	      ids: [b1]
//	      absent: [cost]
//	  - name: count_all
//	    model: Book
//	    count: true
//	    expect: {total: 2}
//
// # Expect Clause
//
//   - statement: exact inlined statement text
//   - ids: result ids, in order
//   - total: count result (count queries only)
//   - documents: per-position subset match against the results
//   - absent: fields no result may carry
//   - error: client error code, e.g. INVALID_ORDER_SYNTAX
//
// # Deterministic Testing
//
// Every run uses an in-memory database and sequential ids
// ("<id_prefix>-1", ...) for documents seeded without one, so the recorded
// queries are stable enough for golden comparison:
//
//	func TestLibrary(t *testing.T) {
//	    s, err := harness.LoadScenario("testdata/scenarios/library.yaml")
//	    require.NoError(t, err)
//	    require.NoError(t, harness.RunWithGolden(t, s))
//	}
package harness
