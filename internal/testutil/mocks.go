// Package testutil holds shared test doubles and fixtures. Service tests
// run against the real in-memory ledger store; what needs mocking here is
// the event publisher and a few canned entities.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ledger/memory"
	"github.com/centsible/centsible-backend/internal/ws"
	"github.com/shopspring/decimal"
)

// CapturePublisher records every published event for assertions.
type CapturePublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// PublishedEvent pairs an event with the user it was addressed to.
type PublishedEvent struct {
	UserID string
	Event  ws.Event
}

// NewCapturePublisher creates a new CapturePublisher
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

// Publish records the event.
func (p *CapturePublisher) Publish(userID string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{UserID: userID, Event: event})
}

// Events returns a copy of everything published so far.
func (p *CapturePublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// SeedUser writes a user document plus their unallocated funds category
// directly into the store and returns the unallocated category ID.
func SeedUser(t *testing.T, store *memory.Store, userID, email string) string {
	t.Helper()
	user, err := domain.NewUser(userID, email)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	unallocated := domain.NewUnallocatedCategory(userID)

	batch := store.Batch()
	batch.Set(domain.CollectionUsers, userID, user.Document())
	id := batch.Set(domain.CollectionCategories, "", unallocated.Document())
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

// SeedCategory writes a regular category with the given balance and returns
// its ID.
func SeedCategory(t *testing.T, store *memory.Store, userID, name string, available decimal.Decimal) string {
	t.Helper()
	category, err := domain.NewCategory(userID, name)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	category.Available = available

	batch := store.Batch()
	id := batch.Set(domain.CollectionCategories, "", category.Document())
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

// GetCategory reads a category back from the store.
func GetCategory(t *testing.T, store *memory.Store, categoryID string) *domain.Category {
	t.Helper()
	doc, err := store.Get(context.Background(), domain.CollectionCategories, categoryID)
	if err != nil {
		t.Fatalf("get category %s: %v", categoryID, err)
	}
	c, err := domain.CategoryFromDoc(categoryID, doc)
	if err != nil {
		t.Fatalf("decode category %s: %v", categoryID, err)
	}
	return c
}

// Snapshot captures every document of the listed collections for
// before/after comparison in atomicity tests.
func Snapshot(t *testing.T, store *memory.Store, collections ...string) map[string][]ledger.Doc {
	t.Helper()
	out := make(map[string][]ledger.Doc, len(collections))
	for _, c := range collections {
		docs, err := store.Query(context.Background(), ledger.Query{Collection: c})
		if err != nil {
			t.Fatalf("snapshot %s: %v", c, err)
		}
		out[c] = docs
	}
	return out
}
