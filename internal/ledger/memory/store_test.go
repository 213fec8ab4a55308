package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/centsible/centsible-backend/internal/ledger"
)

func TestGetSetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	batch := store.Batch()
	id := batch.Set("things", "", ledger.Document{"name": "first"})
	if id == "" {
		t.Fatal("expected generated id")
	}
	batch.Set("things", "fixed", ledger.Document{"name": "second"})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	doc, err := store.Get(ctx, "things", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["name"] != "first" {
		t.Errorf("expected first, got %v", doc["name"])
	}

	if _, err := store.Get(ctx, "things", "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	batch := store.Batch()
	batch.Set("things", "a", ledger.Document{"name": "original"})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	doc, _ := store.Get(ctx, "things", "a")
	doc["name"] = "mutated"

	again, _ := store.Get(ctx, "things", "a")
	if again["name"] != "original" {
		t.Errorf("stored document was mutated through a read copy")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	batch := store.Batch()
	batch.Set("things", "a", ledger.Document{"name": "a", "count": float64(1)})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	batch = store.Batch()
	batch.Update("things", "a", ledger.Document{"count": float64(2)})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	doc, _ := store.Get(ctx, "things", "a")
	if doc["name"] != "a" {
		t.Errorf("merge dropped untouched field: %v", doc["name"])
	}
	if doc["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", doc["count"])
	}
}

func TestUpdateMissingFailsWholeBatch(t *testing.T) {
	store := New()
	ctx := context.Background()

	batch := store.Batch()
	batch.Set("things", "a", ledger.Document{"name": "a"})
	batch.Update("things", "missing", ledger.Document{"name": "x"})
	err := batch.Commit(ctx)
	if !errors.Is(err, ledger.ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got %v", err)
	}

	// The Set in the same batch must not have been applied.
	if _, err := store.Get(ctx, "things", "a"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("partial batch application: document a exists")
	}
}

func TestUpdateOfDocumentCreatedInSameBatch(t *testing.T) {
	store := New()
	ctx := context.Background()

	batch := store.Batch()
	id := batch.Set("things", "", ledger.Document{"name": "a"})
	batch.Update("things", id, ledger.Document{"name": "b"})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	doc, _ := store.Get(ctx, "things", id)
	if doc["name"] != "b" {
		t.Errorf("expected b, got %v", doc["name"])
	}
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	store := New()
	batch := store.Batch()
	batch.Delete("things", "missing")
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestFailNextCommitLeavesStoreUntouched(t *testing.T) {
	store := New()
	ctx := context.Background()

	batch := store.Batch()
	batch.Set("things", "a", ledger.Document{"name": "a"})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	store.FailNextCommit(errors.New("injected"))

	batch = store.Batch()
	batch.Set("things", "b", ledger.Document{"name": "b"})
	batch.Delete("things", "a")
	if err := batch.Commit(ctx); !errors.Is(err, ledger.ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got %v", err)
	}

	if _, err := store.Get(ctx, "things", "a"); err != nil {
		t.Errorf("document a should have survived the failed commit: %v", err)
	}
	if _, err := store.Get(ctx, "things", "b"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("document b should not exist after the failed commit")
	}

	// The failure is one-shot.
	batch = store.Batch()
	batch.Set("things", "c", ledger.Document{"name": "c"})
	if err := batch.Commit(ctx); err != nil {
		t.Errorf("commit after injected failure: %v", err)
	}
}

func seedQueryFixture(t *testing.T, store *Store) {
	t.Helper()
	batch := store.Batch()
	batch.Set("tx", "t1", ledger.Document{"user_id": "u1", "date": "2026-01-01", "category_id": "c1"})
	batch.Set("tx", "t2", ledger.Document{"user_id": "u1", "date": "2026-01-02", "category_id": "c2"})
	batch.Set("tx", "t3", ledger.Document{"user_id": "u1", "date": "2026-01-03", "category_id": nil})
	batch.Set("tx", "t4", ledger.Document{"user_id": "u2", "date": "2026-01-04", "category_id": "c1"})
	batch.Set("tx", "t5", ledger.Document{"user_id": "u1", "date": "2026-01-03", "category_id": "c1"})
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func ids(docs []ledger.Doc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueryEqualityFilter(t *testing.T) {
	store := New()
	seedQueryFixture(t, store)

	docs, err := store.Query(context.Background(), ledger.Query{Collection: "tx"}.
		Where("user_id", ledger.OpEqual, "u1").
		Where("category_id", ledger.OpEqual, "c1"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !equalIDs(ids(docs), []string{"t1", "t5"}) {
		t.Errorf("expected [t1 t5], got %v", ids(docs))
	}
}

func TestQueryNilEquality(t *testing.T) {
	store := New()
	seedQueryFixture(t, store)

	docs, err := store.Query(context.Background(), ledger.Query{Collection: "tx"}.
		Where("user_id", ledger.OpEqual, "u1").
		Where("category_id", ledger.OpEqual, nil))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !equalIDs(ids(docs), []string{"t3"}) {
		t.Errorf("expected [t3], got %v", ids(docs))
	}
}

func TestQueryRangeFilter(t *testing.T) {
	store := New()
	seedQueryFixture(t, store)

	docs, err := store.Query(context.Background(), ledger.Query{Collection: "tx"}.
		Where("date", ledger.OpGreaterEqual, "2026-01-02").
		Where("date", ledger.OpLessEqual, "2026-01-03"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !equalIDs(ids(docs), []string{"t2", "t3", "t5"}) {
		t.Errorf("expected [t2 t3 t5], got %v", ids(docs))
	}
}

func TestQueryOrderDescendingWithIDTieBreak(t *testing.T) {
	store := New()
	seedQueryFixture(t, store)

	docs, err := store.Query(context.Background(), ledger.Query{
		Collection: "tx",
		OrderBy:    "date",
		Descending: true,
	}.Where("user_id", ledger.OpEqual, "u1"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// t3 and t5 share a date; descending order breaks the tie by id.
	if !equalIDs(ids(docs), []string{"t5", "t3", "t2", "t1"}) {
		t.Errorf("expected [t5 t3 t2 t1], got %v", ids(docs))
	}
}

func TestQueryLimitAndStartAfter(t *testing.T) {
	store := New()
	seedQueryFixture(t, store)
	ctx := context.Background()

	q := ledger.Query{
		Collection: "tx",
		OrderBy:    "date",
		Descending: true,
		Limit:      2,
	}.Where("user_id", ledger.OpEqual, "u1")

	page1, err := store.Query(ctx, q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !equalIDs(ids(page1), []string{"t5", "t3"}) {
		t.Fatalf("expected [t5 t3], got %v", ids(page1))
	}

	q.StartAfter = page1[len(page1)-1].ID
	page2, err := store.Query(ctx, q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !equalIDs(ids(page2), []string{"t2", "t1"}) {
		t.Errorf("expected [t2 t1], got %v", ids(page2))
	}

	q.StartAfter = page2[len(page2)-1].ID
	page3, err := store.Query(ctx, q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page3) != 0 {
		t.Errorf("expected empty page, got %v", ids(page3))
	}
}
