package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv holds a config pointing at the testdata models and a fresh store.
type testEnv struct {
	dir    string
	config string
	store  string
}

func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	for _, key := range []string{"DOCQL_CONNSTR", "DOCQL_BUCKET", "DOCQL_STORE", "DOCQL_MODELS", "DOCQL_TYPE_KEY"} {
		t.Setenv(key, "")
	}

	models, err := filepath.Abs(filepath.Join("testdata", "models"))
	require.NoError(t, err)

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "docql.yaml"),
		store:  filepath.Join(dir, "docql.db"),
	}
	cfg := "bucket: library\nstore: " + env.store + "\nmodels: " + models + "\n" + extra
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))
	return env
}

// run executes the root command with the env's config and returns stdout.
func (e *testEnv) run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append(args, "--config", e.config, "--env-file=", "--no-color"))

	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) rootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, ConfigPath: e.config, NoColor: true}
}

// decodeResponse decodes a JSON CLI response, unmarshalling Data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
