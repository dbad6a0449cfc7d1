package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/querysql"
	"github.com/roach88/docql/internal/value"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Insert stores body in keyspace and returns its id. A string "id" member
// is used as the id and removed from the stored body; otherwise an id is
// generated. Existing documents with the same id are replaced.
func (s *Store) Insert(ctx context.Context, keyspace string, body value.Object) (string, error) {
	id, err := s.idFor(body)
	if err != nil {
		return "", err
	}
	if err := upsert(ctx, s.db, keyspace, id, body); err != nil {
		return "", err
	}
	return id, nil
}

// InsertMany stores every body in a single transaction and returns their
// ids in order. Either all documents are stored or none are.
func (s *Store) InsertMany(ctx context.Context, keyspace string, bodies []value.Object) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ids := make([]string, 0, len(bodies))
	for i, body := range bodies {
		id, err := s.idFor(body)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if err := upsert(ctx, tx, keyspace, id, body); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ids, nil
}

// Upsert stores body under id, replacing any existing document.
func (s *Store) Upsert(ctx context.Context, keyspace, id string, body value.Object) error {
	if id == "" {
		return fmt.Errorf("docstore: id is required")
	}
	return upsert(ctx, s.db, keyspace, id, body)
}

// Get returns the document with id.
func (s *Store) Get(ctx context.Context, keyspace, id string) (query.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE keyspace = ? AND id = ?",
		keyspace, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return query.Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, keyspace, id)
	}
	if err != nil {
		return query.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	fields, err := decodeBody(body)
	if err != nil {
		return query.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return query.Document{ID: id, Fields: fields}, nil
}

// Delete removes the document with id.
func (s *Store) Delete(ctx context.Context, keyspace, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE keyspace = ? AND id = ?",
		keyspace, id,
	)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, keyspace, id)
	}
	return nil
}

// Find runs a select statement and returns the matching documents. When
// the statement names fields, each document holds only those fields.
func (s *Store) Find(ctx context.Context, st *query.Statement) ([]query.Document, error) {
	if st == nil || st.Kind != query.KindSelect {
		return nil, fmt.Errorf("docstore: find requires a select statement")
	}
	sqlText, args, err := querysql.Compile(st)
	if err != nil {
		return nil, fmt.Errorf("compile statement: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []query.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var fields value.Object
		if len(st.Fields) > 0 {
			fields, err = project(body, st.Fields)
		} else {
			fields, err = decodeBody(body)
		}
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		docs = append(docs, query.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Count runs a count statement and returns the number of matches.
func (s *Store) Count(ctx context.Context, st *query.Statement) (int64, error) {
	if st == nil || st.Kind != query.KindCount {
		return 0, fmt.Errorf("docstore: count requires a count statement")
	}
	sqlText, args, err := querysql.Compile(st)
	if err != nil {
		return 0, fmt.Errorf("compile statement: %w", err)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, sqlText, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, keyspace, id string, body value.Object) error {
	if keyspace == "" {
		return query.ErrNoKeyspace
	}
	data, err := value.Literal(body.Without("id"))
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (id, keyspace, body) VALUES (?, ?, ?)
		ON CONFLICT (keyspace, id) DO UPDATE SET body = excluded.body
	`, id, keyspace, data)
	if err != nil {
		return fmt.Errorf("store document %s: %w", id, err)
	}
	return nil
}

func (s *Store) idFor(body value.Object) (string, error) {
	v, ok := body.Get("id")
	if !ok {
		return s.ids.Generate(), nil
	}
	id, ok := v.(value.String)
	if !ok || id == "" {
		return "", fmt.Errorf("docstore: id must be a non-empty string, got %s", value.Kind(v))
	}
	return string(id), nil
}

func decodeBody(body string) (value.Object, error) {
	v, err := value.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	obj, ok := v.(value.Object)
	if !ok {
		return nil, fmt.Errorf("decode body: expected object, got %s", value.Kind(v))
	}
	return obj, nil
}
