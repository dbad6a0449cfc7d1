package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docql/internal/docstore"
	"github.com/roach88/docql/internal/model"
	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/repo"
	"github.com/roach88/docql/internal/testutil"
	"github.com/roach88/docql/internal/value"
)

// Harness is the scenario execution engine.
// It runs queries against an isolated docstore with deterministic ids.
type Harness struct {
	store    *docstore.Store
	models   []*model.Model
	keyspace string
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Create fresh in-memory docstore with sequential ids
//  2. Compile the scenario's CUE models
//  3. Seed documents
//  4. Run queries, checking each expect clause
//
// The returned error reports a broken scenario (bad models, unseedable
// documents, unknown model). Expectation failures are recorded on the
// Result instead.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	ids := testutil.NewSequentialIDs(scenario.IDPrefix)
	st, err := docstore.Open(":memory:", docstore.WithIDGenerator(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	models, err := model.LoadString(scenario.Models, scenario.Name+".cue")
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	h := &Harness{
		store:    st,
		models:   models,
		keyspace: scenario.Keyspace,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if err := h.seed(ctx, scenario.Documents); err != nil {
		return nil, fmt.Errorf("failed to seed documents: %w", err)
	}

	result := NewResult()
	for i := range scenario.Queries {
		if err := h.runQuery(ctx, &scenario.Queries[i], result); err != nil {
			return nil, fmt.Errorf("queries[%d] %s: %w", i, scenario.Queries[i].Name, err)
		}
	}
	return result, nil
}

func (h *Harness) seed(ctx context.Context, docs []yaml.Node) error {
	bodies := make([]value.Object, len(docs))
	for i := range docs {
		v, err := value.FromYAML(&docs[i])
		if err != nil {
			return fmt.Errorf("documents[%d]: %w", i, err)
		}
		obj, ok := v.(value.Object)
		if !ok {
			return fmt.Errorf("documents[%d]: must be a mapping, got %s", i, value.Kind(v))
		}
		bodies[i] = obj
	}
	_, err := h.store.InsertMany(ctx, h.keyspace, bodies)
	return err
}

// runQuery issues one query and records its outcome.
func (h *Harness) runQuery(ctx context.Context, step *QueryStep, result *Result) error {
	m, ok := model.Find(h.models, step.Model)
	if !ok {
		return fmt.Errorf("unknown model %q", step.Model)
	}
	r := repo.New(h.store, h.keyspace, m, repo.WithLogger(h.logger))

	qr := QueryResult{Name: step.Name}
	var docs []query.Document
	err := h.execute(ctx, r, step, &qr, &docs)
	if err != nil {
		if code := qerr.CodeOf(err); code != "" {
			qr.Error = string(code)
		} else {
			qr.Error = err.Error()
		}
	}
	result.Queries = append(result.Queries, qr)

	for _, msg := range checkExpectation(step, qr, docs) {
		result.AddError(fmt.Sprintf("%s: %s", step.Name, msg))
	}
	return nil
}

func (h *Harness) execute(ctx context.Context, r *repo.Repository, step *QueryStep, qr *QueryResult, docs *[]query.Document) error {
	f, err := parseFilter(&step.Filter)
	if err != nil {
		return err
	}

	if step.Count {
		st, err := r.CountStatement(f.Where, step.Index)
		if err != nil {
			return err
		}
		if qr.Statement, err = st.Inline(); err != nil {
			return err
		}
		total, err := r.Count(ctx, f.Where, step.Index)
		if err != nil {
			return err
		}
		qr.Total = &total
		return nil
	}

	st, err := r.Statement(f, step.Index)
	if err != nil {
		return err
	}
	if qr.Statement, err = st.Inline(); err != nil {
		return err
	}
	found, err := r.Find(ctx, f, step.Index)
	if err != nil {
		return err
	}
	*docs = found
	for _, d := range found {
		qr.IDs = append(qr.IDs, d.ID)
	}
	return nil
}

// parseFilter converts the step's filter node. An absent filter matches
// every document.
func parseFilter(n *yaml.Node) (*query.Filter, error) {
	if n.Kind == 0 {
		return query.ParseFilter(value.Null{})
	}
	v, err := value.FromYAML(n)
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidFilter, "", "%v", err)
	}
	return query.ParseFilter(v)
}
