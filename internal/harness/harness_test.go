package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_Library(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/library.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Queries, len(s.Queries))

	count, ok := result.Query("count_priced")
	require.True(t, ok)
	require.NotNil(t, count.Total)
	assert.Equal(t, int64(2), *count.Total)
	assert.Empty(t, count.IDs)

	bad, ok := result.Query("bad_order")
	require.True(t, ok)
	assert.Equal(t, "INVALID_ORDER_SYNTAX", bad.Error)
	assert.Empty(t, bad.Statement)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/library.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first.Queries, second.Queries)
}

func TestRun_ExpectationFailures(t *testing.T) {
	s := mustParse(t, `
name: failing
description: every expectation is wrong
keyspace: ks
models: "model: Book: {}"
documents:
  - {_type: Book, id: b1, title: Dune, cost: 3}
queries:
  - name: wrong_ids
    model: Book
    expect: {ids: [b2]}
  - name: wrong_statement
    model: Book
    expect: {statement: "SELECT 1"}
  - name: wrong_document
    model: Book
    expect:
      documents: [{title: Emma}]
  - name: present_field
    model: Book
    expect: {absent: [cost]}
  - name: wrong_total
    model: Book
    count: true
    expect: {total: 5}
  - name: missing_error
    model: Book
    expect: {error: INVALID_FILTER}
  - name: unexpected_error
    model: Book
    filter: {limit: -1}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)

	assert.Contains(t, result.Errors[0], "wrong_ids: expected ids [b2], got [b1]")
	assert.Contains(t, result.Errors[1], "wrong_statement: statement mismatch")
	assert.Contains(t, result.Errors[2], "wrong_document: document 0 (b1) does not match")
	assert.Contains(t, result.Errors[3], `present_field: document b1 carries field "cost"`)
	assert.Contains(t, result.Errors[4], "wrong_total: expected total 5, got 1")
	assert.Contains(t, result.Errors[5], `missing_error: expected error "INVALID_FILTER", got ""`)
	assert.Contains(t, result.Errors[6], "unexpected_error: unexpected error INVALID_PAGINATION")
}

func TestRun_GeneratedIDs(t *testing.T) {
	s := mustParse(t, `
name: ids
description: seeded documents without ids
keyspace: ks
models: "model: Note: {}"
documents:
  - {_type: Note, text: a}
  - {_type: Note, text: b}
queries:
  - name: all
    model: Note
    expect: {ids: [doc-1, doc-2]}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_EmptyResult(t *testing.T) {
	s := mustParse(t, `
name: empty
description: no documents match
keyspace: ks
models: "model: Book: {}"
documents:
  - {_type: Book, id: b1, title: Dune}
queries:
  - name: none
    model: Book
    filter: {where: {title: Emma}}
    expect: {ids: []}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Queries[0].IDs)
}

func TestRun_BrokenScenario(t *testing.T) {
	t.Run("bad models", func(t *testing.T) {
		s := mustParse(t, minimalScenario)
		s.Models = "model: Book: {"
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load models")
	})

	t.Run("unknown model", func(t *testing.T) {
		s := mustParse(t, minimalScenario)
		s.Queries[0].Model = "Missing"
		_, err := RunContext(context.Background(), s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown model "Missing"`)
	})
}
