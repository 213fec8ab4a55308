// Package postgres implements ledger.Store on PostgreSQL. Documents live in
// a single JSONB table keyed by (collection, id); batches execute inside one
// SQL transaction, so commits are all-or-nothing and concurrent updates to
// the same document serialize on the row lock.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       JSONB NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS ledger_documents_user_idx
    ON ledger_documents (collection, (data->>'user_id'));
`

// Store is a PostgreSQL-backed ledger.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on top of an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the documents table if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Get fetches a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (ledger.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM ledger_documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc ledger.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Query runs a filtered scan over one collection. Filters compare the text
// projection of the field, which matches how the core stores values: dates
// as YYYY-MM-DD strings, amounts as decimal strings, flags as booleans.
func (s *Store) Query(ctx context.Context, q ledger.Query) ([]ledger.Doc, error) {
	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString(`SELECT id, data FROM ledger_documents WHERE collection = $1`)

	for _, f := range q.Filters {
		if f.Op == ledger.OpEqual && f.Value == nil {
			// JSON null and a missing key both project to SQL NULL via ->>.
			fmt.Fprintf(&sb, ` AND data->>%s IS NULL`, quoteLiteral(f.Field))
			continue
		}
		op, err := sqlOp(f.Op)
		if err != nil {
			return nil, err
		}
		args = append(args, filterText(f.Value))
		fmt.Fprintf(&sb, ` AND data->>%s %s $%d`, quoteLiteral(f.Field), op, len(args))
	}

	orderExpr := "id"
	if q.OrderBy != "" {
		orderExpr = fmt.Sprintf("data->>%s", quoteLiteral(q.OrderBy))
	}
	dir := "ASC"
	cursorOp := ">"
	if q.Descending {
		dir = "DESC"
		cursorOp = "<"
	}

	if q.StartAfter != "" {
		// Keyset pagination: resume strictly after the cursor document
		// under the same (order key, id) ordering.
		args = append(args, q.StartAfter)
		fmt.Fprintf(&sb,
			` AND (%s, id) %s (SELECT %s, id FROM ledger_documents WHERE collection = $1 AND id = $%d)`,
			orderExpr, cursorOp, orderExpr, len(args))
	}

	fmt.Fprintf(&sb, ` ORDER BY %s %s, id %s`, orderExpr, dir, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Doc
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc ledger.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, ledger.Doc{ID: id, Data: doc})
	}
	return out, rows.Err()
}

// Batch starts a write batch backed by a SQL transaction at commit time.
func (s *Store) Batch() ledger.Batch {
	return &batch{store: s}
}

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type batchOp struct {
	kind       opKind
	collection string
	id         string
	doc        ledger.Document
}

type batch struct {
	store *Store
	ops   []batchOp
}

func (b *batch) Set(collection, id string, doc ledger.Document) string {
	if id == "" {
		id = uuid.New().String()
	}
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, doc: doc})
	return id
}

func (b *batch) Update(collection, id string, fields ledger.Document) {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, id: id, doc: fields})
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
}

func (b *batch) Commit(ctx context.Context) error {
	tx, err := b.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
	}
	defer tx.Rollback(ctx)

	for _, op := range b.ops {
		switch op.kind {
		case opSet:
			raw, err := json.Marshal(op.doc)
			if err != nil {
				return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO ledger_documents (collection, id, data) VALUES ($1, $2, $3)
				 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
				op.collection, op.id, raw)
			if err != nil {
				return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
			}
		case opUpdate:
			raw, err := json.Marshal(op.doc)
			if err != nil {
				return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
			}
			tag, err := tx.Exec(ctx,
				`UPDATE ledger_documents SET data = data || $3::jsonb
				 WHERE collection = $1 AND id = $2`,
				op.collection, op.id, raw)
			if err != nil {
				return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: update of missing document %s/%s",
					ledger.ErrCommitFailed, op.collection, op.id)
			}
		case opDelete:
			_, err := tx.Exec(ctx,
				`DELETE FROM ledger_documents WHERE collection = $1 AND id = $2`,
				op.collection, op.id)
			if err != nil {
				return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
	}
	b.ops = nil
	return nil
}

func sqlOp(op ledger.Op) (string, error) {
	switch op {
	case ledger.OpEqual:
		return "=", nil
	case ledger.OpGreaterEqual:
		return ">=", nil
	case ledger.OpLessEqual:
		return "<=", nil
	case ledger.OpGreater:
		return ">", nil
	case ledger.OpLess:
		return "<", nil
	default:
		return "", fmt.Errorf("unsupported filter op %q", op)
	}
}

// filterText renders a filter value the way ->> renders the stored field.
func filterText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// quoteLiteral quotes a JSON field name for interpolation. Field names come
// from compile-time constants, never from request input.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
