package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/qerr"
)

func TestCompile_Model(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "compile", "testdata/filters/title.json", "--model", "Book")
	require.NoError(t, err)
	assert.Equal(t, "SELECT *, TOSTRING(META().id) AS id FROM `library` WHERE `_type` = 'Book' AND (`title` = 'It''s')\n", out)
}

func TestCompile_WithoutModel(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "compile", "testdata/filters/title.json", "--keyspace", "archive")
	require.NoError(t, err)
	assert.Contains(t, out, "FROM `archive` WHERE (`title` = 'It''s')")
	assert.NotContains(t, out, "_type")
}

func TestCompile_YAMLFilter(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "compile", "testdata/filters/cheap.yaml", "--model", "Book", "--index", "by_price")
	require.NoError(t, err)
	assert.Equal(t, "SELECT *, TOSTRING(META().id) AS id FROM `library` USE INDEX (`by_price` USING GSI) "+
		"WHERE `_type` = 'Book' AND (`price` < 30) ORDER BY `price` DESC\n", out)
}

func TestCompile_CountFromStdin(t *testing.T) {
	env := newTestEnv(t, "")
	stdin := strings.NewReader(`{"where": {"price": {"gt": 15}}}`)
	out, err := env.run(t, stdin, "compile", "-", "--model", "Book", "--count")
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(META().id) AS total FROM `library` WHERE `_type` = 'Book' AND (`price` > 15)\n", out)
}

func TestCompile_Params(t *testing.T) {
	env := newTestEnv(t, "")

	t.Run("text", func(t *testing.T) {
		out, err := env.run(t, nil, "compile", "testdata/filters/title.json", "--model", "Book", "--params")
		require.NoError(t, err)
		assert.Equal(t, "SELECT *, TOSTRING(META().id) AS id FROM `library` WHERE `_type` = $doctype AND (`title` = $param_1)\n"+
			"  $doctype = 'Book'\n"+
			"  $param_1 = 'It''s'\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := env.run(t, nil, "compile", "testdata/filters/title.json", "--model", "Book", "--params", "--format", "json")
		require.NoError(t, err)

		var data struct {
			Statement string         `json:"statement"`
			Params    map[string]any `json:"params"`
		}
		resp := decodeResponse(t, out, &data)
		assert.Equal(t, "ok", resp.Status)
		assert.Contains(t, data.Statement, "`title` = $param_1")
		assert.Equal(t, map[string]any{"doctype": "Book", "param_1": "It's"}, data.Params)
	})
}

func TestCompile_EmptyFilter(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "compile", "--model", "Author", "--format", "json")
	require.NoError(t, err)

	var data CompileResult
	decodeResponse(t, out, &data)
	assert.Equal(t, "SELECT *, TOSTRING(META().id) AS id FROM `library` WHERE `_type` = 'Author'", data.Statement)
	assert.Empty(t, data.Params)
}

func TestCompile_RejectedFilter(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "compile", "testdata/filters/bad_order.json", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, qerr.IsInvalidOrderSyntax(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "INVALID_ORDER_SYNTAX", resp.Error.Code)
	assert.Equal(t, "price", resp.Error.Details)
}

func TestCompile_RejectedFilterText(t *testing.T) {
	env := newTestEnv(t, "")
	stdin := strings.NewReader(`{"where": {"tags[": 1}}`)
	out, err := env.run(t, stdin, "compile", "-")
	require.Error(t, err)
	assert.Contains(t, out, "Error [SYNTAX_ERROR]")
}

func TestCompile_UnknownModel(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "compile", "testdata/filters/title.json", "--model", "Missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E304]")
}

func TestCompile_MissingFile(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, nil, "compile", filepath.Join(env.dir, "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompile_OutputFile(t *testing.T) {
	env := newTestEnv(t, "")
	outFile := filepath.Join(env.dir, "query.n1ql")

	out, err := env.run(t, nil, "compile", "testdata/filters/title.json", "--model", "Book", "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote statement to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *, TOSTRING(META().id) AS id FROM `library` WHERE `_type` = 'Book' AND (`title` = 'It''s')\n", string(data))
}
