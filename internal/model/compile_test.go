package model

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileModel(t *testing.T, src, name string) (*Model, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileModel(v.LookupPath(cue.ParsePath("model." + name)))
}

func TestCompileModelBasic(t *testing.T) {
	m, err := compileModel(t, `
		model: Book: {
			hidden: ["internalNotes", "cost"]
			drop: true
			indexes: {
				title_search: keys: {title: "xlike", publishedAt: -1}
				by_author: {"authors.*.name": 1}
				isbn_index: true
				skipped_index: false
			}
		}
	`, "Book")
	require.NoError(t, err)

	assert.Equal(t, "Book", m.Name)
	assert.Equal(t, []string{"internalNotes", "cost"}, m.Hidden)
	assert.True(t, m.Primary, "primary defaults to true")
	assert.True(t, m.Deferred, "deferred defaults to true")
	assert.True(t, m.Drop)

	require.Len(t, m.Indexes, 3)
	assert.Equal(t, "title_search", m.Indexes[0].Name)
	require.Len(t, m.Indexes[0].Keys, 2)
	assert.Equal(t, "title", m.Indexes[0].Keys[0].Path.String())
	assert.Equal(t, XLike, m.Indexes[0].Keys[0].Order)
	assert.Equal(t, "publishedAt", m.Indexes[0].Keys[1].Path.String())
	assert.Equal(t, Desc, m.Indexes[0].Keys[1].Order)

	assert.Equal(t, "by_author", m.Indexes[1].Name)
	assert.True(t, m.Indexes[1].Keys[0].Path.HasWildcard())

	assert.Equal(t, "isbn_index", m.Indexes[2].Name)
	assert.Equal(t, "isbn", m.Indexes[2].Keys[0].Path.String())
	assert.Equal(t, Asc, m.Indexes[2].Keys[0].Order)
}

func TestCompileModelOptions(t *testing.T) {
	m, err := compileModel(t, `
		model: Department: {
			primary: false
			deferred: false
			typeKey: "docType"
		}
	`, "Department")
	require.NoError(t, err)

	assert.False(t, m.Primary)
	assert.False(t, m.Deferred)
	assert.False(t, m.Drop)
	assert.Equal(t, "docType", m.TypeKey)
	assert.Equal(t, "docType", m.QueryOptions("ks").TypeKey)
	assert.Empty(t, m.Indexes)
}

func TestCompileModelErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "bad key order",
			src:     `model: M: indexes: idx: {name: 2}`,
			wantErr: `must be 1, -1 or "xlike"`,
		},
		{
			name:    "bad key string",
			src:     `model: M: indexes: idx: {name: "asc"}`,
			wantErr: `must be 1, -1 or "xlike"`,
		},
		{
			name:    "shorthand without suffix",
			src:     `model: M: indexes: name: true`,
			wantErr: "<field>_index",
		},
		{
			name:    "bad key path",
			src:     `model: M: indexes: idx: {"a.*.b.*": 1}`,
			wantErr: "only one wildcard",
		},
		{
			name:    "index not a struct",
			src:     `model: M: indexes: idx: "name"`,
			wantErr: "index must be true",
		},
		{
			name:    "hidden not a list",
			src:     `model: M: hidden: "secret"`,
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileModel(t, tt.src, "M")
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadString(t *testing.T) {
	models, err := LoadString(`
		model: Book: indexes: isbn_index: true
		model: Author: primary: false
	`, "models.cue")
	require.NoError(t, err)
	require.Len(t, models, 2)

	book, ok := Find(models, "Book")
	require.True(t, ok)
	assert.Len(t, book.Indexes, 1)

	_, ok = Find(models, "Missing")
	assert.False(t, ok)
}

func TestLoadString_ValidationErrors(t *testing.T) {
	_, err := LoadString(`model: Book: {hidden: ["id"], indexes: Book: {title: 1}}`, "models.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrHiddenID)
	assert.Contains(t, err.Error(), ErrIndexNamesPrimary)
}

func TestLoadString_NoModels(t *testing.T) {
	_, err := LoadString(`other: 1`, "models.cue")
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNoModels, loadErr.Code)
}

func TestLoadDir(t *testing.T) {
	tmpDir := t.TempDir()

	src := `
package models

model: Book: {
	hidden: ["cost"]
	indexes: title_index: true
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "book.cue"), []byte(src), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("not cue"), 0644))

	models, err := LoadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "Book", models[0].Name)
	assert.Equal(t, []string{"cost"}, models[0].Hidden)
}

func TestLoadDir_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := LoadDir(t.TempDir())
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
	})

	t.Run("invalid cue", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bad.cue"), []byte("package models\nmodel: {"), 0644))
		_, err := LoadDir(tmpDir)
		require.Error(t, err)
	})
}
