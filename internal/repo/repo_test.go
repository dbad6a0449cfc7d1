package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/docstore"
	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/model"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/value"
)

// recordingBackend captures statements and replies with fixed results.
type recordingBackend struct {
	statements []*query.Statement
	docs       []query.Document
	total      int64
	err        error
}

func (b *recordingBackend) Find(_ context.Context, st *query.Statement) ([]query.Document, error) {
	b.statements = append(b.statements, st)
	return b.docs, b.err
}

func (b *recordingBackend) Count(_ context.Context, st *query.Statement) (int64, error) {
	b.statements = append(b.statements, st)
	return b.total, b.err
}

var book = &model.Model{Name: "Book", Hidden: []string{"cost", "internal"}}

func mustFilter(t *testing.T, doc string) *query.Filter {
	t.Helper()
	f, err := query.ParseFilterJSON([]byte(doc))
	require.NoError(t, err)
	return f
}

func TestFind_StripsHiddenFields(t *testing.T) {
	backend := &recordingBackend{docs: []query.Document{{
		ID: "b1",
		Fields: value.Object{
			value.M("title", value.String("Dune")),
			value.M("cost", value.Int(3)),
			value.M("internal", value.Bool(true)),
		},
	}}}
	r := New(backend, "library", book)

	docs, err := r.Find(context.Background(), mustFilter(t, `{"where":{"title":"Dune"}}`), "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, value.Object{value.M("title", value.String("Dune"))}, docs[0].Fields)
	assert.Equal(t, value.Object{
		value.M("title", value.String("Dune")),
		value.M("id", value.String("b1")),
	}, docs[0].Object())
}

func TestFind_StatementOptions(t *testing.T) {
	backend := &recordingBackend{}
	m := &model.Model{Name: "Book", TypeKey: "kind"}
	r := New(backend, "library", m)

	_, err := r.Find(context.Background(), mustFilter(t, `{"where":{"title":"x"}}`), "title_idx")
	require.NoError(t, err)
	require.Len(t, backend.statements, 1)

	st := backend.statements[0]
	assert.Equal(t,
		"SELECT *, TOSTRING(META().id) AS id FROM `library` USE INDEX (`title_idx` USING GSI) WHERE `kind` = $doctype AND (`title` = $param_1)",
		st.Text())
}

func TestFind_ClientErrorsSkipBackend(t *testing.T) {
	backend := &recordingBackend{}
	r := New(backend, "library", book)

	_, err := r.Find(context.Background(), &query.Filter{Limit: -1}, "")
	assert.True(t, qerr.IsInvalidPagination(err))

	_, err = r.Find(context.Background(), &query.Filter{
		Order: []query.OrderTerm{{Path: fieldpath.MustParse("authors.*.name")}},
	}, "")
	assert.True(t, qerr.IsSyntaxError(err))
	assert.Empty(t, backend.statements)
}

func TestFind_WrapsBackendError(t *testing.T) {
	boom := errors.New("boom")
	r := New(&recordingBackend{err: boom}, "library", book)

	_, err := r.Find(context.Background(), nil, "")
	assert.ErrorIs(t, err, boom)
	_, err = r.Count(context.Background(), nil, "")
	assert.ErrorIs(t, err, boom)
}

func TestLogsIssuedStatements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := New(&recordingBackend{total: 7}, "library", book, WithLogger(logger))

	where, err := filter.ParseJSON([]byte(`{"title":"It's"}`))
	require.NoError(t, err)
	total, err := r.Count(context.Background(), where, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "query issued", record["msg"])
	assert.Equal(t, "count", record["op"])
	assert.Equal(t, "Book", record["model"])
	assert.Equal(t,
		"SELECT COUNT(META().id) AS total FROM `library` WHERE `_type` = $doctype AND (`title` = $param_1)",
		record["statement"])
	assert.Equal(t, `{"doctype":"Book","param_1":"It's"}`, record["params"])
}

func TestRepository_Docstore(t *testing.T) {
	store, err := docstore.Open(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, doc := range []string{
		`{"id":"b1","_type":"Book","title":"Foo","cost":1,"authors":[{"name":"foo"},{"name":"bar"}]}`,
		`{"id":"b2","_type":"Book","title":"Bar","cost":2,"authors":[{"name":"baz"}]}`,
		`{"id":"x1","_type":"Other","authors":[{"name":"foo"}]}`,
	} {
		v, err := value.Decode([]byte(doc))
		require.NoError(t, err)
		_, err = store.Insert(ctx, "library", v.(value.Object))
		require.NoError(t, err)
	}

	r := New(store, "library", book)

	docs, err := r.Find(ctx, mustFilter(t, `{"where":{"authors.*.name":"foo"}}`), "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b1", docs[0].ID)
	assert.False(t, docs[0].Fields.Has("cost"))

	total, err := r.Count(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
