package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/docql/internal/config"
	"github.com/roach88/docql/internal/couchbase"
	"github.com/roach88/docql/internal/docstore"
	"github.com/roach88/docql/internal/model"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/repo"
	"github.com/roach88/docql/internal/value"
)

// loadConfig reads the config file and environment named by the global flags.
func (o *RootOptions) loadConfig(f *OutputFormatter) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(o.ConfigPath, o.EnvFile, os.Getenv)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeConfig, "loading configuration", err)
	}
	return cfg, nil
}

// loadModels loads the model definitions in dir. Models that do not set
// their own type key get the configured one.
func loadModels(f *OutputFormatter, dir, typeKey string) ([]*model.Model, error) {
	models, err := model.LoadDir(dir)
	if err != nil {
		return nil, outputModelErrors(f, err)
	}
	for _, m := range models {
		if m.TypeKey == "" {
			m.TypeKey = typeKey
		}
	}
	f.VerboseLog("Loaded %d model(s) from %s", len(models), dir)
	return models, nil
}

func findModel(f *OutputFormatter, models []*model.Model, name string) (*model.Model, error) {
	m, ok := model.Find(models, name)
	if !ok {
		return nil, f.fail(ExitCommandError, ErrCodeUnknownModel, fmt.Sprintf("unknown model %q", name), nil)
	}
	return m, nil
}

// modelErrorCodes lists every error in err with its code.
func modelErrorCodes(err error) []CLIError {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	out := make([]CLIError, 0, len(errs))
	for _, e := range errs {
		var loadErr *model.LoadError
		var validationErr model.ValidationError
		switch {
		case errors.As(e, &loadErr):
			out = append(out, CLIError{Code: loadErr.Code, Message: loadErr.Error()})
		case errors.As(e, &validationErr):
			out = append(out, CLIError{Code: validationErr.Code, Message: e.Error()})
		default:
			out = append(out, CLIError{Code: ErrCodeGeneric, Message: e.Error()})
		}
	}
	return out
}

// outputModelErrors reports model load and validation errors.
func outputModelErrors(f *OutputFormatter, err error) error {
	errs := modelErrorCodes(err)
	if f.JSON() {
		if encErr := f.encode(CLIResponse{Status: "error", Error: &errs[0], Data: errs}); encErr != nil {
			return encErr
		}
	} else {
		f.Fail("Invalid model definitions")
		for _, e := range errs {
			fmt.Fprintf(f.Writer, "  %s: %s\n", e.Code, e.Message)
		}
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("model definitions invalid with %d error(s)", len(errs)), err)
}

// outputFilterError reports a rejected filter document.
func outputFilterError(f *OutputFormatter, err error) error {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		if outErr := f.Error(string(qe.Code), qe.Message, qe.Input); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "filter rejected", err)
	}
	return f.fail(ExitFailure, ErrCodeGeneric, err.Error(), err)
}

// readFilter parses a filter document from a JSON or YAML file. "-" reads
// stdin; an empty path means an empty filter.
func readFilter(f *OutputFormatter, path string, stdin io.Reader) (*query.Filter, error) {
	if path == "" {
		return &query.Filter{}, nil
	}
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeReadFailed, "reading filter", err)
	}
	// YAML is a superset of JSON.
	v, err := value.DecodeYAML(data)
	if err != nil {
		return nil, f.fail(ExitFailure, string(qerr.CodeInvalidFilter), "decoding filter", err)
	}
	filter, err := query.ParseFilter(v)
	if err != nil {
		return nil, outputFilterError(f, err)
	}
	return filter, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// statementLogger records issued statements on the diagnostic writer when
// verbose.
func statementLogger(f *OutputFormatter) *slog.Logger {
	if !f.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(f.GetErrWriter(), nil))
}

// backend opens the configured query backend: the cluster when a
// connection string is set, the local store otherwise.
type backend struct {
	repo.Backend
	close func() error
}

func openBackend(f *OutputFormatter, cfg *config.Config) (*backend, error) {
	if cfg.UseCluster() {
		client, err := couchbase.Connect(cfg.CouchbaseOptions())
		if err != nil {
			return nil, f.fail(ExitCommandError, ErrCodeBackend, "connecting to cluster", err)
		}
		f.VerboseLog("Connected to %s", cfg.Cluster.ConnStr)
		return &backend{Backend: couchbase.NewBackend(client), close: client.Close}, nil
	}

	st, err := docstore.Open(cfg.Store)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeBackend, "opening document store", err)
	}
	f.VerboseLog("Opened document store %s", cfg.Store)
	return &backend{Backend: st, close: st.Close}, nil
}
