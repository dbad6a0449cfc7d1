// Package repo runs filters for one model against a storage backend.
//
// A Repository assembles statements for its model, logs every statement it
// issues, and strips the model's hidden fields from results. Backends only
// execute statements: the Couchbase backend sends inlined N1QL, the local
// docstore translates the same statement to SQLite.
package repo

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/docql/internal/compiler"
	"github.com/roach88/docql/internal/filter"
	"github.com/roach88/docql/internal/model"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/queryir"
)

// Backend executes assembled statements.
type Backend interface {
	Find(ctx context.Context, st *query.Statement) ([]query.Document, error)
	Count(ctx context.Context, st *query.Statement) (int64, error)
}

// Repository queries the documents of one model.
type Repository struct {
	backend  Backend
	keyspace string
	model    *model.Model
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger statements are recorded to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithCompiler sets the compiler for WHERE clauses, for example one with
// extra operators registered.
func WithCompiler(c *compiler.Compiler) Option {
	return func(r *Repository) { r.compiler = c }
}

// New creates a repository for m's documents in keyspace.
// Without WithLogger, statements are not logged.
func New(backend Backend, keyspace string, m *model.Model, opts ...Option) *Repository {
	r := &Repository{
		backend:  backend,
		keyspace: keyspace,
		model:    m,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the repository's model.
func (r *Repository) Model() *model.Model { return r.model }

func (r *Repository) options(index string) query.Options {
	opts := r.model.QueryOptions(r.keyspace)
	opts.Index = index
	opts.Compiler = r.compiler
	return opts
}

// Statement assembles the select statement Find would issue.
func (r *Repository) Statement(f *query.Filter, index string) (*query.Statement, error) {
	return query.Select(r.options(index), f)
}

// Find returns the documents matching f. index, when set, is passed as an
// index hint.
func (r *Repository) Find(ctx context.Context, f *query.Filter, index string) ([]query.Document, error) {
	st, err := r.Statement(f, index)
	if err != nil {
		return nil, err
	}
	r.logQuery(ctx, "find", st)

	docs, err := r.backend.Find(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.model.Name, err)
	}
	if len(r.model.Hidden) == 0 {
		return docs, nil
	}
	for i := range docs {
		docs[i] = docs[i].Without(r.model.Hidden...)
	}
	return docs, nil
}

// CountStatement assembles the count statement Count would issue.
func (r *Repository) CountStatement(where filter.Expression, index string) (*query.Statement, error) {
	return query.Count(r.options(index), where)
}

// Count returns the number of documents matching where.
func (r *Repository) Count(ctx context.Context, where filter.Expression, index string) (int64, error) {
	st, err := r.CountStatement(where, index)
	if err != nil {
		return 0, err
	}
	r.logQuery(ctx, "count", st)

	total, err := r.backend.Count(ctx, st)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.model.Name, err)
	}
	return total, nil
}

func (r *Repository) logQuery(ctx context.Context, op string, st *query.Statement) {
	r.logger.InfoContext(ctx, "query issued",
		"op", op,
		"model", r.model.Name,
		"statement", st.Text(),
		paramsAttr(st.Params),
	)
}

// paramsAttr renders the parameter table as a JSON object in binding order.
func paramsAttr(p *queryir.Params) slog.Attr {
	data, err := p.MarshalJSON()
	if err != nil {
		return slog.String("params_error", err.Error())
	}
	return slog.String("params", string(data))
}
