package couchbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/value"
)

// Backend runs query statements through an Executor.
type Backend struct {
	exec Executor
}

// NewBackend returns a Backend over exec.
func NewBackend(exec Executor) *Backend {
	return &Backend{exec: exec}
}

// Stream runs a select statement and yields documents as rows arrive. The
// first error ends the sequence.
func (b *Backend) Stream(ctx context.Context, st *query.Statement) iter.Seq2[query.Document, error] {
	return func(yield func(query.Document, error) bool) {
		if st == nil || st.Kind != query.KindSelect {
			yield(query.Document{}, errors.New("couchbase: stream requires a select statement"))
			return
		}
		rows, err := b.run(ctx, st)
		if err != nil {
			yield(query.Document{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var raw json.RawMessage
			if err := rows.Row(&raw); err != nil {
				yield(query.Document{}, fmt.Errorf("read row: %w", err))
				return
			}
			doc, err := decodeRow(raw, st)
			if !yield(doc, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(query.Document{}, fmt.Errorf("read rows: %w", err))
		}
	}
}

// Find runs a select statement and collects every document.
func (b *Backend) Find(ctx context.Context, st *query.Statement) ([]query.Document, error) {
	var docs []query.Document
	for doc, err := range b.Stream(ctx, st) {
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count runs a count statement and returns its total.
func (b *Backend) Count(ctx context.Context, st *query.Statement) (int64, error) {
	if st == nil || st.Kind != query.KindCount {
		return 0, errors.New("couchbase: count requires a count statement")
	}
	rows, err := b.run(ctx, st)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var row struct {
		Total *int64 `json:"total"`
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("read rows: %w", err)
		}
		return 0, errors.New("couchbase: count returned no rows")
	}
	if err := rows.Row(&row); err != nil {
		return 0, fmt.Errorf("read row: %w", err)
	}
	if row.Total == nil {
		return 0, errors.New("couchbase: count row has no total")
	}
	return *row.Total, nil
}

// Exec runs a statement for its side effects, such as index DDL, and
// drains its rows.
func (b *Backend) Exec(ctx context.Context, statement string) error {
	rows, err := b.exec.Query(ctx, statement)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var discard json.RawMessage
		if err := rows.Row(&discard); err != nil {
			return fmt.Errorf("read row: %w", err)
		}
	}
	return rows.Err()
}

func (b *Backend) run(ctx context.Context, st *query.Statement) (Rows, error) {
	text, err := st.Inline()
	if err != nil {
		return nil, fmt.Errorf("inline statement: %w", err)
	}
	return b.exec.Query(ctx, text)
}

// decodeRow unwraps a result row. Whole-document rows nest the document
// under the keyspace name.
func decodeRow(raw json.RawMessage, st *query.Statement) (query.Document, error) {
	v, err := value.Decode(raw)
	if err != nil {
		return query.Document{}, fmt.Errorf("decode row: %w", err)
	}
	row, ok := v.(value.Object)
	if !ok {
		return query.Document{}, fmt.Errorf("decode row: expected object, got %s", value.Kind(v))
	}

	var doc query.Document
	if idv, ok := row.Get("id"); ok {
		id, ok := idv.(value.String)
		if !ok {
			return query.Document{}, fmt.Errorf("decode row: id must be a string, got %s", value.Kind(idv))
		}
		doc.ID = string(id)
	}

	if len(st.Fields) > 0 {
		doc.Fields = row.Without("id")
		return doc, nil
	}
	body, ok := row.Get(st.Keyspace)
	if !ok {
		return query.Document{}, fmt.Errorf("decode row: missing %q member", st.Keyspace)
	}
	fields, ok := body.(value.Object)
	if !ok {
		return query.Document{}, fmt.Errorf("decode row: %q must be an object, got %s", st.Keyspace, value.Kind(body))
	}
	doc.Fields = fields
	return doc, nil
}
