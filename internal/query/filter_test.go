package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/value"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name  string
		order string
		want  []string
		code  qerr.Code
	}{
		{name: "missing suffix", order: `"name"`, code: qerr.CodeInvalidOrderSyntax},
		{name: "suffix only", order: `"ASC"`, code: qerr.CodeInvalidOrderSyntax},
		{name: "glued suffix", order: `"nameASC"`, code: qerr.CodeInvalidOrderSyntax},
		{name: "bad direction", order: `"name UP"`, code: qerr.CodeInvalidOrderSyntax},
		{name: "number", order: `42`, code: qerr.CodeInvalidOrderSyntax},
		{name: "list with number", order: `["name ASC", 1]`, code: qerr.CodeInvalidOrderSyntax},
		{name: "wildcard", order: `"a.*.b ASC"`, code: qerr.CodeSyntax},
		{name: "bad path", order: `"a[x] ASC"`, code: qerr.CodeSyntax},
		{name: "ascending", order: `"name ASC"`, want: []string{"`name` ASC"}},
		{name: "lowercase", order: `"name desc"`, want: []string{"`name` DESC"}},
		{name: "extra spaces", order: `"  name   DESC "`, want: []string{"`name` DESC"}},
		{name: "nested", order: `["a.b[0] DESC", "c ASC"]`, want: []string{"`a`.`b`[0] DESC", "`c` ASC"}},
		{name: "id", order: `"id ASC"`, want: []string{"TOSTRING(META().id) ASC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := value.Decode([]byte(tt.order))
			require.NoError(t, err)

			terms, err := ParseOrder(v)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, qerr.CodeOf(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			got := make([]string, len(terms))
			for i, term := range terms {
				got[i] = term.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOrder_FieldMatchesWhereTokenization(t *testing.T) {
	f := mustFilter(t, `{"where":{"shelf.tags[0]":"x"},"order":"shelf.tags[0] ASC"}`)
	s, err := Select(Options{Keyspace: "ks"}, f)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT *, TOSTRING(META().id) AS id FROM `ks` WHERE (`shelf`.`tags`[0] = $param_1) ORDER BY `shelf`.`tags`[0] ASC",
		s.Text())
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{"zero", `0`, 0, true},
		{"positive", `25`, 25, true},
		{"numeric string", `"10"`, 10, true},
		{"padded string", `" 7 "`, 7, true},
		{"null", `null`, 0, true},
		{"negative", `-1`, 0, false},
		{"negative string", `"-1"`, 0, false},
		{"non-numeric", `"abc"`, 0, false},
		{"fraction", `1.5`, 0, false},
		{"boolean", `true`, 0, false},
		{"list", `[1]`, 0, false},
		{"huge", `99999999999`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := value.Decode([]byte(tt.input))
			require.NoError(t, err)

			got, err := ParsePagination(KeyLimit, v)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, qerr.IsInvalidPagination(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilter(t *testing.T) {
	f := mustFilter(t, `{"where":{"a":1},"fields":{"name":true,"secret":false},"order":"a ASC","limit":"5","offset":2}`)
	require.Len(t, f.Fields, 1)
	assert.Equal(t, "name", f.Fields[0].String())
	assert.Len(t, f.Order, 1)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 2, f.Skip)
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code qerr.Code
	}{
		{"not an object", `"x"`, qerr.CodeInvalidFilter},
		{"unknown key", `{"include":"x"}`, qerr.CodeInvalidFilter},
		{"bad where", `{"where":{"a":{"nope":1}}}`, qerr.CodeInvalidOperator},
		{"bad fields", `{"fields":[1]}`, qerr.CodeInvalidFilter},
		{"wildcard field", `{"fields":["a.*.b"]}`, qerr.CodeSyntax},
		{"bad order", `{"order":"name"}`, qerr.CodeInvalidOrderSyntax},
		{"bad limit", `{"limit":-1}`, qerr.CodeInvalidPagination},
		{"bad skip", `{"skip":"x"}`, qerr.CodeInvalidPagination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilterJSON([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.code, qerr.CodeOf(err), "error: %v", err)
		})
	}
}

func TestParseFilterYAML(t *testing.T) {
	f, err := ParseFilterYAML([]byte("where:\n  authors.*.name: foo\norder:\n  - name ASC\nlimit: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Limit)

	s, err := Select(Options{Keyspace: "books", TypeName: "Book"}, f)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT *, TOSTRING(META().id) AS id FROM `books` WHERE `_type` = $doctype AND (ANY `elem` IN `authors` SATISFIES `elem`.`name` = $param_1 END) ORDER BY `name` ASC LIMIT 3",
		s.Text())
}

func TestParseFilter_Null(t *testing.T) {
	f, err := ParseFilter(value.Null{})
	require.NoError(t, err)
	assert.NotNil(t, f.Where)
}
