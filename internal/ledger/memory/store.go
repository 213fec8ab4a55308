// Package memory provides an in-process ledger.Store with real batch
// atomicity. It backs the test suite and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of ledger.Store. It is safe for
// concurrent use; batches commit under a store-wide lock, so same-category
// read-modify-write races cannot interleave within a single process.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]ledger.Document

	// commitErr, when set, fails the next Commit before any operation is
	// applied. Used by tests to prove batch atomicity.
	commitErr error
}

// New creates an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]ledger.Document)}
}

// FailNextCommit makes the next batch Commit return err wrapped in
// ledger.ErrCommitFailed, leaving the store untouched.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Get returns a copy of the document stored under (collection, id).
func (s *Store) Get(ctx context.Context, collection, id string) (ledger.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return copyDocument(doc), nil
}

// Query scans one collection applying filters, ordering and pagination.
func (s *Store) Query(ctx context.Context, q ledger.Query) ([]ledger.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []ledger.Doc
	for id, doc := range s.collections[q.Collection] {
		ok, err := matches(doc, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, ledger.Doc{ID: id, Data: copyDocument(doc)})
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return docLess(matched[i], matched[j], q.OrderBy, q.Descending)
	})

	if q.StartAfter != "" {
		cut := -1
		for i, d := range matched {
			if d.ID == q.StartAfter {
				cut = i
				break
			}
		}
		if cut >= 0 {
			matched = matched[cut+1:]
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// Batch starts a new write batch.
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
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, doc: copyDocument(doc)})
	return id
}

func (b *batch) Update(collection, id string, fields ledger.Document) {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, id: id, doc: copyDocument(fields)})
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
}

// Commit validates every operation against current state, then applies all
// of them under the write lock. A validation failure leaves the store
// unchanged.
func (b *batch) Commit(ctx context.Context) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		err := s.commitErr
		s.commitErr = nil
		return fmt.Errorf("%w: %v", ledger.ErrCommitFailed, err)
	}

	// Validation pass: updates must target documents that exist now or are
	// set earlier in the same batch.
	created := make(map[string]bool)
	for _, op := range b.ops {
		key := op.collection + "/" + op.id
		switch op.kind {
		case opSet:
			created[key] = true
		case opUpdate:
			if _, ok := s.collections[op.collection][op.id]; !ok && !created[key] {
				return fmt.Errorf("%w: update of missing document %s", ledger.ErrCommitFailed, key)
			}
		case opDelete:
			delete(created, key)
		}
	}

	for _, op := range b.ops {
		coll := s.collections[op.collection]
		if coll == nil {
			coll = make(map[string]ledger.Document)
			s.collections[op.collection] = coll
		}
		switch op.kind {
		case opSet:
			coll[op.id] = copyDocument(op.doc)
		case opUpdate:
			existing := coll[op.id]
			if existing == nil {
				existing = make(ledger.Document)
			}
			for k, v := range op.doc {
				existing[k] = v
			}
			coll[op.id] = existing
		case opDelete:
			delete(coll, op.id)
		}
	}
	b.ops = nil
	return nil
}

func matches(doc ledger.Document, filters []ledger.Filter) (bool, error) {
	for _, f := range filters {
		field, ok := doc[f.Field]
		if !ok {
			return false, nil
		}
		if f.Op == ledger.OpEqual && (field == nil || f.Value == nil) {
			if field != f.Value {
				return false, nil
			}
			continue
		}
		cmp, err := compare(field, f.Value)
		if err != nil {
			return false, err
		}
		switch f.Op {
		case ledger.OpEqual:
			if cmp != 0 {
				return false, nil
			}
		case ledger.OpGreaterEqual:
			if cmp < 0 {
				return false, nil
			}
		case ledger.OpLessEqual:
			if cmp > 0 {
				return false, nil
			}
		case ledger.OpGreater:
			if cmp <= 0 {
				return false, nil
			}
		case ledger.OpLess:
			if cmp >= 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return true, nil
}

// compare orders two document values of the same kind. Mixed-kind
// comparisons are a caller bug and reported as errors rather than silently
// mismatching.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("comparing string with %T", b)
		}
		return strings.Compare(av, bv), nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("comparing bool with %T", b)
		}
		if av == bv {
			return 0, nil
		}
		if !av {
			return -1, nil
		}
		return 1, nil
	case float64:
		bv, err := toFloat(b)
		if err != nil {
			return 0, err
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case int:
		return compare(float64(av), b)
	case nil:
		if b == nil {
			return 0, nil
		}
		return -1, nil
	default:
		return 0, fmt.Errorf("unorderable value of type %T", a)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("comparing number with %T", v)
	}
}

// docLess orders query results by the OrderBy field with the document ID as
// tie-breaker, which keeps StartAfter cursors stable across equal keys.
func docLess(a, b ledger.Doc, orderBy string, descending bool) bool {
	if orderBy != "" {
		cmp, err := compare(a.Data[orderBy], b.Data[orderBy])
		if err == nil && cmp != 0 {
			if descending {
				return cmp > 0
			}
			return cmp < 0
		}
	}
	if descending {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}

func copyDocument(doc ledger.Document) ledger.Document {
	out := make(ledger.Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = copyValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = copyValue(inner)
		}
		return out
	default:
		return v
	}
}
