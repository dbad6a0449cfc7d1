package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/couchbase"
)

const bookPlan = "-- Book\n" +
	"CREATE PRIMARY INDEX `Book` ON `library` WITH {\"defer_build\":true};\n" +
	"CREATE INDEX `title_index` ON `library`(DISTINCT ARRAY `elem` FOR `elem` IN SUFFIXES(LOWER(`title`)) END) WHERE `_type` = 'Book' WITH {\"defer_build\":true};\n" +
	"CREATE INDEX `by_price` ON `library`(`price` DESC) WHERE `_type` = 'Book' WITH {\"defer_build\":true};\n" +
	"BUILD INDEX ON `library`(`Book`, `title_index`, `by_price`);\n"

// fakeDDL records statements and fails those listed in errs.
type fakeDDL struct {
	statements []string
	errs       map[string]error
	closed     bool
}

func (f *fakeDDL) Exec(_ context.Context, statement string) error {
	f.statements = append(f.statements, statement)
	return f.errs[statement]
}

func (f *fakeDDL) Close() error {
	f.closed = true
	return nil
}

func runIndexCommand(t *testing.T, opts *RootOptions, exec *fakeDDL, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newIndexCommand(opts, func(couchbase.Options) (ddlExecutor, error) { return exec, nil })
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestIndex_PlanText(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "index", "Book")
	require.NoError(t, err)
	assert.Equal(t, bookPlan, out)
}

func TestIndex_PlanJSON(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "index", "Book", "--keyspace", "shelf", "--format", "json")
	require.NoError(t, err)

	var plans []ModelPlan
	resp := decodeResponse(t, out, &plans)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, plans, 1)
	assert.Equal(t, "Book", plans[0].Model)

	var kinds []string
	for _, s := range plans[0].Statements {
		kinds = append(kinds, s.Kind)
		assert.Contains(t, s.Statement, "`shelf`")
		assert.False(t, s.Applied)
	}
	assert.Equal(t, []string{"create-primary", "create", "create", "build"}, kinds)
}

func TestIndex_AllModels(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "-- Book\n")
	assert.Contains(t, out, "-- Author\n")
}

func TestIndex_UnknownModel(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, nil, "index", "Missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestIndex_InvalidModels(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, nil, "index", "--models", "testdata/filters")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Invalid model definitions")
}

func TestIndex_Apply(t *testing.T) {
	env := newTestEnv(t, "cluster: {connstr: \"couchbase://localhost\"}\n")
	exec := &fakeDDL{errs: map[string]error{
		"CREATE PRIMARY INDEX `Book` ON `library` WITH {\"defer_build\":true}": gocb.ErrIndexExists,
	}}

	out, err := runIndexCommand(t, env.rootOptions("json"), exec, "Book", "--apply")
	require.NoError(t, err)
	assert.True(t, exec.closed)
	assert.Len(t, exec.statements, 4)

	var plans []ModelPlan
	decodeResponse(t, out, &plans)
	require.Len(t, plans, 1)
	statements := plans[0].Statements
	assert.True(t, statements[0].Skipped)
	assert.False(t, statements[0].Applied)
	for _, s := range statements[1:] {
		assert.True(t, s.Applied, s.Statement)
	}
}

func TestIndex_ApplyFailure(t *testing.T) {
	env := newTestEnv(t, "cluster: {connstr: \"couchbase://localhost\"}\n")
	failing := "CREATE INDEX `by_price` ON `library`(`price` DESC) WHERE `_type` = 'Book' WITH {\"defer_build\":true}"
	exec := &fakeDDL{errs: map[string]error{failing: errors.New("index service unavailable")}}

	out, err := runIndexCommand(t, env.rootOptions("text"), exec, "Book", "--apply")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Len(t, exec.statements, 3, "stops at the first failure")

	assert.Contains(t, out, "✓ CREATE INDEX `title_index`")
	assert.Contains(t, out, "✗ "+failing)
	assert.Contains(t, out, "  index service unavailable\n")
	assert.Contains(t, out, "  BUILD INDEX ON")
	assert.Contains(t, out, "Error [E305]: applying index plan")
}

func TestIndex_ApplyWithoutCluster(t *testing.T) {
	env := newTestEnv(t, "")
	exec := &fakeDDL{}

	_, err := runIndexCommand(t, env.rootOptions("text"), exec, "--apply")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, exec.statements)
}

func TestAlreadyApplied(t *testing.T) {
	assert.True(t, alreadyApplied("drop", gocb.ErrIndexNotFound))
	assert.False(t, alreadyApplied("drop", gocb.ErrIndexExists))
	assert.True(t, alreadyApplied("create", gocb.ErrIndexExists))
	assert.True(t, alreadyApplied("create-primary", gocb.ErrIndexExists))
	assert.False(t, alreadyApplied("build", gocb.ErrIndexExists))
}
