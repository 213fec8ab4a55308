// Package ledger defines the document-store contract the budgeting core is
// written against. A Store offers point lookups, filtered/ordered scans and
// atomic multi-document batches; adapters live in the memory and postgres
// subpackages.
package ledger

import (
	"context"
	"errors"
)

// Document is the stored shape of a single record. Values are restricted to
// JSON-compatible types: string, bool, float64, nil and nested
// map[string]any / []any. Money is always stored as its exact decimal string.
type Document map[string]any

// Doc pairs a document with its store-assigned ID.
type Doc struct {
	ID   string
	Data Document
}

var (
	// ErrNotFound is returned by Get when no document exists under the key.
	ErrNotFound = errors.New("ledger: document not found")
	// ErrCommitFailed wraps any failure applying a batch. The store
	// guarantees no operation of a failed batch became visible.
	ErrCommitFailed = errors.New("ledger: batch commit failed")
)

// Op is a filter comparison operator.
type Op string

const (
	OpEqual        Op = "=="
	OpGreaterEqual Op = ">="
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpLess         Op = "<"
)

// Filter restricts a query to documents whose field compares true against
// the value. Comparisons follow the natural ordering of the stored type.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query describes a filtered, optionally ordered and paginated scan of one
// collection. StartAfter is the ID of the last document of the previous
// page under the same ordering; results resume strictly after it.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
	StartAfter string
}

// Where appends an equality or range filter and returns the query for
// chaining.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// Batch accumulates writes that Commit applies atomically: either every
// operation becomes visible or none does. Operations are not visible to
// reads before Commit returns.
type Batch interface {
	// Set writes a full document. An empty id asks the store to generate
	// one; the assigned id is returned either way.
	Set(collection, id string, doc Document) string

	// Update merges fields into an existing document. Commit fails the
	// whole batch if the document does not exist.
	Update(collection, id string, fields Document)

	// Delete removes a document. Deleting a missing document is not an
	// error.
	Delete(collection, id string)

	// Commit applies all accumulated operations atomically.
	Commit(ctx context.Context) error
}

// Store is the ledger collaborator consumed by every use case.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, q Query) ([]Doc, error)
	Batch() Batch
}
