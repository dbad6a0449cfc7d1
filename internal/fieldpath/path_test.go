package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/qerr"
)

func TestParse_Segments(t *testing.T) {
	tests := []struct {
		path string
		want []Segment
	}{
		{"name", []Segment{Ident("name")}},
		{"extra.author.name", []Segment{Ident("extra"), Ident("author"), Ident("name")}},
		{"tags[0]", []Segment{Ident("tags"), At(0)}},
		{"tags[0].name", []Segment{Ident("tags"), At(0), Ident("name")}},
		{"matrix[1][12]", []Segment{Ident("matrix"), At(1), At(12)}},
		{"authors.*.name", []Segment{Ident("authors"), {Kind: Wildcard}, Ident("name")}},
		{"tags.*", []Segment{Ident("tags"), {Kind: Wildcard}}},
		{"a.id", []Segment{Ident("a"), Ident("id")}},
		{"título", []Segment{Ident("título")}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := Parse(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Segments())
			assert.Equal(t, tt.path, p.String())
			assert.False(t, p.IsMetaID())
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		path    string
		message string
	}{
		{"a.*.b.*", "only one wildcard allowed"},
		{"*.name", "wildcard with no preceding segment"},
		{"*", "wildcard with no preceding segment"},
		{"tags[x]", "array index must be a number"},
		{"tags[-1]", "array index must be a number"},
		{"tags[]", "array index must be defined"},
		{"tags[0", "unbalanced brackets"},
		{"tags]0", "unbalanced brackets"},
		{"tags[[0]]", "unbalanced brackets"},
		{"[0]", "array index with no preceding segment"},
		{"", "empty field path"},
		{"a..b", "empty path segment"},
		{".a", "empty path segment"},
		{"a.", "empty path segment"},
		{"a*", "wildcard must be a whole path segment"},
		{"tags[0]*", "wildcard must be a whole path segment"},
		{"tags[0]name", "expected '.' or '['"},
		{"a.*b", "expected '.' or '['"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Parse(tt.path)
			require.Error(t, err)
			assert.True(t, qerr.IsSyntaxError(err), "want syntax error, got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParse_ReservedID(t *testing.T) {
	p, err := Parse("id")
	require.NoError(t, err)

	assert.True(t, p.IsMetaID())
	assert.Equal(t, "TOSTRING(META().id)", p.Predicate().Field)
	assert.Equal(t, "", p.Predicate().Context())
	assert.Equal(t, "TOSTRING(META().id)", p.IndexKey())
}

func TestPredicate_NoWildcard(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"name", "`name`"},
		{"select", "`select`"},
		{"extra.author.name", "`extra`.`author`.`name`"},
		{"tags[0]", "`tags`[0]"},
		{"tags[0].name", "`tags`[0].`name`"},
		{"we`ird", "`we``ird`"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tpl := MustParse(tt.path).Predicate()
			assert.Equal(t, tt.want, tpl.Field)
			assert.Equal(t, "", tpl.Context())
			assert.Equal(t, "x", tpl.Apply("x"))
		})
	}
}

func TestPredicate_Wildcard(t *testing.T) {
	tpl := MustParse("authors.*.name").Predicate()

	assert.Equal(t, "`elem`.`name`", tpl.Field)
	assert.Equal(t, "ANY `elem` IN `authors` SATISFIES %s END", tpl.Context())
	assert.Equal(t,
		"ANY `elem` IN `authors` SATISFIES `elem`.`name` = $param_1 END",
		tpl.Apply(tpl.Field+" = $param_1"))
}

func TestPredicate_WildcardTrailing(t *testing.T) {
	tpl := MustParse("shelf.tags.*").Predicate()

	assert.Equal(t, "`elem`", tpl.Field)
	assert.Equal(t, "ANY `elem` IN `shelf`.`tags` SATISFIES %s END", tpl.Context())
}

func TestPredicate_ApplyDoesNotFormat(t *testing.T) {
	// Field names may legitimately contain format verbs
	tpl := MustParse("a%s.*.b").Predicate()
	assert.Equal(t, "ANY `elem` IN `a%s` SATISFIES P END", tpl.Apply("P"))
}

func TestIndexKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"name", "`name`"},
		{"extra.author.name", "`extra`.`author`.`name`"},
		{"tags[1]", "`tags`[1]"},
		{"authors.*.name", "DISTINCT ARRAY `elem`.`name` FOR `elem` IN `authors` END"},
		{"tags.*", "DISTINCT ARRAY `elem` FOR `elem` IN `tags` END"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.path).IndexKey())
		})
	}
}

func TestSplit(t *testing.T) {
	array, rest, ok := MustParse("a.b[2].*.c.d").Split()
	require.True(t, ok)
	assert.Equal(t, []Segment{Ident("a"), Ident("b"), At(2)}, array)
	assert.Equal(t, []Segment{Ident("c"), Ident("d")}, rest)

	_, _, ok = MustParse("a.b").Split()
	assert.False(t, ok)
}

func TestPlain(t *testing.T) {
	field, err := MustParse("user").Plain()
	require.NoError(t, err)
	assert.Equal(t, "`user`", field)

	_, err = MustParse("authors.*.name").Plain()
	assert.True(t, qerr.IsSyntaxError(err))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a.*.*") })
}
