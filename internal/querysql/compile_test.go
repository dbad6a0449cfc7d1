package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/compiler"
	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/queryir"
	"github.com/roach88/docql/internal/value"
)

func compileWhere(t *testing.T, doc string) (string, []any) {
	t.Helper()
	expr, err := filter.ParseJSON([]byte(doc))
	require.NoError(t, err)
	clause, err := compiler.Compile(expr)
	require.NoError(t, err)

	sql, args, err := NewSQLCompiler(clause.Params).CompilePredicate(clause.Where)
	require.NoError(t, err)
	return sql, args
}

func TestCompilePredicate(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		sql    string
		args   []any
	}{
		{
			name:   "equality",
			filter: `{"name":"foo"}`,
			sql:    "(json_extract(body, ?) = ?)",
			args:   []any{`$."name"`, "foo"},
		},
		{
			name:   "booleans and numbers compare within their type",
			filter: `{"a":1,"b":true}`,
			sql: "((json_type(body, ?) IN ('integer', 'real') AND json_extract(body, ?) = ?) AND " +
				"(json_type(body, ?) IN ('true', 'false') AND json_extract(body, ?) = ?))",
			args: []any{`$."a"`, `$."a"`, int64(1), `$."b"`, `$."b"`, int64(1)},
		},
		{
			name:   "not equal to a boolean",
			filter: `{"b":{"neq":false}}`,
			sql:    "((json_type(body, ?) NOT IN ('null', 'true', 'false') OR json_extract(body, ?) != ?))",
			args:   []any{`$."b"`, `$."b"`, int64(0)},
		},
		{
			name:   "ordering against a number",
			filter: `{"a":{"gte":2}}`,
			sql:    "(json_extract(body, ?) >= ?)",
			args:   []any{`$."a"`, int64(2)},
		},
		{
			name:   "meta id",
			filter: `{"id":"X"}`,
			sql:    "(id = ?)",
			args:   []any{"X"},
		},
		{
			name:   "is null",
			filter: `{"deleted":null}`,
			sql:    "(json_type(body, ?) = 'null')",
			args:   []any{`$."deleted"`},
		},
		{
			name:   "is not null",
			filter: `{"deleted":{"neq":null}}`,
			sql:    "(json_type(body, ?) != 'null')",
			args:   []any{`$."deleted"`},
		},
		{
			name:   "membership",
			filter: `{"user":["a","b"]}`,
			sql:    "(json_extract(body, ?) IN (SELECT value FROM json_each(?)))",
			args:   []any{`$."user"`, `["a","b"]`},
		},
		{
			name:   "like",
			filter: `{"name":{"like":"a%"}}`,
			sql:    `(json_extract(body, ?) LIKE ? ESCAPE '\')`,
			args:   []any{`$."name"`, "a%"},
		},
		{
			name:   "regexp",
			filter: `{"name":{"regexp":"^a"}}`,
			sql:    "(regex_like(json_extract(body, ?), ?) = 1)",
			args:   []any{`$."name"`, "^a"},
		},
		{
			name:   "array contains",
			filter: `{"tags":{"array_contains":"x"}}`,
			sql:    "(array_contains(json_quote(json_extract(body, ?)), ?) = 1)",
			args:   []any{`$."tags"`, `"x"`},
		},
		{
			name:   "nested index path",
			filter: `{"shelf.tags[0]":"go"}`,
			sql:    "(json_extract(body, ?) = ?)",
			args:   []any{`$."shelf"."tags"[0]`, "go"},
		},
		{
			name:   "wildcard",
			filter: `{"authors.*.name":"foo"}`,
			sql:    "((json_type(body, ?) = 'array' AND EXISTS (SELECT 1 FROM json_each(body, ?) AS je1 WHERE json_extract(body, je1.fullkey || ?) = ?)))",
			args:   []any{`$."authors"`, `$."authors"`, `."name"`, "foo"},
		},
		{
			name:   "xlike",
			filter: `{"title":{"xlike":"Go"}}`,
			sql:    `(EXISTS (SELECT 1 FROM json_each(suffixes(n1ql_lower(json_extract(body, ?)))) AS je1 WHERE je1.value LIKE ? ESCAPE '\'))`,
			args:   []any{`$."title"`, "go%"},
		},
		{
			name:   "xlike under wildcard",
			filter: `{"authors.*.name":{"xlike":"An"}}`,
			sql:    `((json_type(body, ?) = 'array' AND EXISTS (SELECT 1 FROM json_each(body, ?) AS je1 WHERE EXISTS (SELECT 1 FROM json_each(suffixes(n1ql_lower(json_extract(body, je1.fullkey || ?)))) AS je2 WHERE je2.value LIKE ? ESCAPE '\'))))`,
			args:   []any{`$."authors"`, `$."authors"`, `."name"`, "an%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := compileWhere(t, tt.filter)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestCompilePredicate_NeverInterpolates(t *testing.T) {
	sql, args := compileWhere(t, `{"name":"' OR '1'='1","or":[{"x":"secret"}]}`)
	assert.NotContains(t, sql, "secret")
	assert.NotContains(t, sql, "'1'")
	assert.Contains(t, args, "' OR '1'='1")
	assert.Contains(t, args, "secret")
}

func TestCompilePredicate_Nil(t *testing.T) {
	sql, args, err := NewSQLCompiler(nil).CompilePredicate(nil)
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, args)
}

func TestCompilePredicate_Errors(t *testing.T) {
	unbound := &queryir.Compare{Left: &queryir.MetaID{}, Op: queryir.OpEq, Right: &queryir.Param{Name: "missing"}}
	_, _, err := NewSQLCompiler(queryir.NewParams()).CompilePredicate(unbound)
	assert.ErrorContains(t, err, "not bound")

	quoted := &queryir.NullCheck{Operand: queryir.Ref([]fieldpath.Segment{fieldpath.Ident(`a"b`)})}
	_, _, err = NewSQLCompiler(nil).CompilePredicate(quoted)
	assert.Error(t, err)

	free := &queryir.NullCheck{Operand: queryir.ElemRef("nope", nil)}
	_, _, err = NewSQLCompiler(nil).CompilePredicate(free)
	assert.ErrorContains(t, err, "unbound variable")
}

func TestCompile_Select(t *testing.T) {
	f, err := query.ParseFilterJSON([]byte(`{"where":{"name":"x"},"order":"name DESC","limit":5,"skip":10}`))
	require.NoError(t, err)
	s, err := query.Select(query.Options{Keyspace: "books", TypeName: "Book"}, f)
	require.NoError(t, err)

	sql, args, err := Compile(s)
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT id, body FROM documents WHERE keyspace = ? AND ((json_extract(body, ?) = ?) AND ((json_extract(body, ?) = ?)))")
	assert.Contains(t, sql, "END DESC, json_extract(body, ?) DESC, id COLLATE BINARY ASC LIMIT ? OFFSET ?")
	assert.Equal(t, []any{
		"books",
		`$."_type"`, "Book",
		`$."name"`, "x",
		`$."name"`, `$."name"`,
		5, 10,
	}, args)
}

func TestCompile_SelectAlwaysOrdersById(t *testing.T) {
	s, err := query.Select(query.Options{Keyspace: "books"}, nil)
	require.NoError(t, err)

	sql, args, err := Compile(s)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, body FROM documents WHERE keyspace = ? ORDER BY id COLLATE BINARY ASC", sql)
	assert.Equal(t, []any{"books"}, args)
}

func TestCompile_OffsetWithoutLimit(t *testing.T) {
	s, err := query.Select(query.Options{Keyspace: "books"}, &query.Filter{Skip: 3})
	require.NoError(t, err)

	sql, args, err := Compile(s)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT ? OFFSET ?")
	assert.Equal(t, []any{"books", -1, 3}, args)
}

func TestCompile_Count(t *testing.T) {
	where, err := filter.ParseJSON([]byte(`{"age":{"gt":3}}`))
	require.NoError(t, err)
	s, err := query.Count(query.Options{Keyspace: "people"}, where)
	require.NoError(t, err)

	sql, args, err := Compile(s)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM documents WHERE keyspace = ? AND ((json_extract(body, ?) > ?))", sql)
	assert.Equal(t, []any{"people", `$."age"`, int64(3)}, args)
}

func TestArg(t *testing.T) {
	tests := []struct {
		in   value.Value
		want any
	}{
		{value.Null{}, nil},
		{value.String("s"), "s"},
		{value.Int(3), int64(3)},
		{value.Float(1.5), 1.5},
		{value.Bool(false), int64(0)},
		{value.Array{value.Int(1)}, "[1]"},
		{value.Object{value.M("a", value.Bool(true))}, `{"a":true}`},
	}
	for _, tt := range tests {
		got, err := Arg(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
