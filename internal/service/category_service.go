package service

import (
	"context"
	"errors"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ws"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CategoryService handles category business logic
type CategoryService struct {
	store  ledger.Store
	events ws.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store ledger.Store, events ws.EventPublisher) *CategoryService {
	return &CategoryService{store: store, events: events}
}

// CategoryWithAllocated pairs a category with the sum of assignments that
// funded it inside a date window.
type CategoryWithAllocated struct {
	*domain.Category
	Allocated decimal.Decimal `json:"allocated"`
}

// Create adds a regular category for the user. The starting balance is
// definitionally zero, so no balance adjustment is involved.
func (s *CategoryService) Create(ctx context.Context, userID, name string, groupID *string) (*domain.Category, error) {
	category, err := domain.NewCategory(userID, name)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	if groupID != nil {
		group, err := s.getGroup(ctx, *groupID)
		if err != nil {
			return nil, err
		}
		if group.UserID != userID {
			return nil, domain.ErrForbidden
		}
		category.GroupID = groupID
	}

	batch := s.store.Batch()
	category.ID = batch.Set(domain.CollectionCategories, "", category.Document())
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeCreated, ws.EntityTypeCategory, category))
	return category, nil
}

// List returns every category of the user, unallocated funds included.
func (s *CategoryService) List(ctx context.Context, userID string) ([]*domain.Category, error) {
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionCategories,
		OrderBy:    "name",
	}.Where("user_id", ledger.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	categories := make([]*domain.Category, 0, len(docs))
	for _, d := range docs {
		c, err := domain.CategoryFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// ListWithAllocated returns the user's categories together with the sum of
// assignment amounts each received between start and end (inclusive,
// YYYY-MM-DD).
func (s *CategoryService) ListWithAllocated(ctx context.Context, userID, start, end string) ([]*CategoryWithAllocated, error) {
	categories, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionAssignments,
	}.
		Where("user_id", ledger.OpEqual, userID).
		Where("date", ledger.OpGreaterEqual, start).
		Where("date", ledger.OpLessEqual, end))
	if err != nil {
		return nil, err
	}

	allocated := make(map[string]decimal.Decimal)
	for _, d := range docs {
		a, err := domain.AssignmentFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		allocated[a.CategoryID] = allocated[a.CategoryID].Add(a.Amount)
	}

	out := make([]*CategoryWithAllocated, 0, len(categories))
	for _, c := range categories {
		out = append(out, &CategoryWithAllocated{Category: c, Allocated: allocated[c.ID]})
	}
	return out, nil
}

// SetGoal sets or clears a category's goal amount.
func (s *CategoryService) SetGoal(ctx context.Context, userID, categoryID string, goal *decimal.Decimal) (*domain.Category, error) {
	if goal != nil {
		if err := domain.ValidateGoal(*goal); err != nil {
			return nil, err
		}
	}
	category, err := getCategoryOwned(ctx, s.store, categoryID, userID)
	if err != nil {
		return nil, err
	}
	category.GoalAmount = goal

	batch := s.store.Batch()
	fields := ledger.Document{"goal_amount": nil}
	if goal != nil {
		fields["goal_amount"] = goal.String()
	}
	batch.Update(domain.CollectionCategories, categoryID, fields)
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeUpdated, ws.EntityTypeCategory, category))
	return category, nil
}

// Delete removes a category. Deletion is blocked while anything still
// references the category or money remains in it; the unallocated funds
// category can never be deleted.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID string) error {
	category, err := getCategoryOwned(ctx, s.store, categoryID, userID)
	if err != nil {
		return err
	}
	if category.IsUnallocatedFunds {
		return domain.ErrUnallocatedImmutable
	}

	hasTx, err := hasAnyInCategory(ctx, s.store, domain.CollectionTransactions, categoryID)
	if err != nil {
		return err
	}
	if hasTx {
		return domain.ErrCategoryHasTransactions
	}
	hasAssign, err := hasAnyInCategory(ctx, s.store, domain.CollectionAssignments, categoryID)
	if err != nil {
		return err
	}
	if hasAssign {
		return domain.ErrCategoryHasAssignments
	}
	if !category.Available.IsZero() {
		return domain.ErrCategoryBalanceNonZero
	}

	batch := s.store.Batch()
	batch.Delete(domain.CollectionCategories, categoryID)
	if err := batch.Commit(ctx); err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("category_id", categoryID).
		Msg("Category deleted")

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeDeleted, ws.EntityTypeCategory, category))
	return nil
}

func (s *CategoryService) getGroup(ctx context.Context, groupID string) (*domain.CategoryGroup, error) {
	doc, err := s.store.Get(ctx, domain.CollectionCategoryGroups, groupID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, domain.ErrCategoryGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.CategoryGroupFromDoc(groupID, doc)
}
