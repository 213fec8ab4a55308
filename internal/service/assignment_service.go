package service

import (
	"context"

	"github.com/centsible/centsible-backend/internal/balance"
	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ws"
	"github.com/shopspring/decimal"
)

// AssignmentService handles funding-move business logic
type AssignmentService struct {
	store  ledger.Store
	events ws.EventPublisher
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(store ledger.Store, events ws.EventPublisher) *AssignmentService {
	return &AssignmentService{store: store, events: events}
}

// Create moves amount from the user's unallocated funds into the target
// category: the assignment document and both balance updates land in one
// batch, so the two deltas always sum to zero. Assigning to the unallocated
// category itself is rejected.
func (s *AssignmentService) Create(ctx context.Context, userID, categoryID string, amount decimal.Decimal, date string) (*domain.Assignment, error) {
	assignment, err := domain.NewAssignment(userID, categoryID, amount, date)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	target, err := getCategoryOwned(ctx, s.store, categoryID, userID)
	if err != nil {
		return nil, err
	}
	if target.IsUnallocatedFunds {
		return nil, domain.ErrSelfAssignment
	}

	unallocated, err := findUnallocated(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	batch := s.store.Batch()
	assignment.ID = batch.Set(domain.CollectionAssignments, "", assignment.Document())
	for _, adj := range balance.AssignmentCreate(unallocated, target, amount) {
		adj.Apply(batch)
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeCreated, ws.EntityTypeAssignment, assignment))
	return assignment, nil
}

// List returns every assignment of the user, newest date first.
func (s *AssignmentService) List(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionAssignments,
		OrderBy:    "date",
		Descending: true,
	}.Where("user_id", ledger.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	assignments := make([]*domain.Assignment, 0, len(docs))
	for _, d := range docs {
		a, err := domain.AssignmentFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}
