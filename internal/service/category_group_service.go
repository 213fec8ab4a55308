package service

import (
	"context"
	"errors"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ws"
)

// CategoryGroupService handles category grouping business logic
type CategoryGroupService struct {
	store  ledger.Store
	events ws.EventPublisher
}

// NewCategoryGroupService creates a new CategoryGroupService
func NewCategoryGroupService(store ledger.Store, events ws.EventPublisher) *CategoryGroupService {
	return &CategoryGroupService{store: store, events: events}
}

// Create adds a category group for the user.
func (s *CategoryGroupService) Create(ctx context.Context, userID, name string, sortOrder int) (*domain.CategoryGroup, error) {
	group, err := domain.NewCategoryGroup(userID, name, sortOrder)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	batch := s.store.Batch()
	group.ID = batch.Set(domain.CollectionCategoryGroups, "", group.Document())
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}
	return group, nil
}

// List returns the user's groups in sort order.
func (s *CategoryGroupService) List(ctx context.Context, userID string) ([]*domain.CategoryGroup, error) {
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionCategoryGroups,
		OrderBy:    "sort_order",
	}.Where("user_id", ledger.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	groups := make([]*domain.CategoryGroup, 0, len(docs))
	for _, d := range docs {
		g, err := domain.CategoryGroupFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Delete removes a group and detaches its categories in the same batch.
// The categories themselves survive ungrouped.
func (s *CategoryGroupService) Delete(ctx context.Context, userID, groupID string) error {
	doc, err := s.store.Get(ctx, domain.CollectionCategoryGroups, groupID)
	if errors.Is(err, ledger.ErrNotFound) {
		return domain.ErrCategoryGroupNotFound
	}
	if err != nil {
		return err
	}
	group, err := domain.CategoryGroupFromDoc(groupID, doc)
	if err != nil {
		return err
	}
	if group.UserID != userID {
		return domain.ErrForbidden
	}

	members, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionCategories,
	}.
		Where("user_id", ledger.OpEqual, userID).
		Where("group_id", ledger.OpEqual, groupID))
	if err != nil {
		return err
	}

	batch := s.store.Batch()
	batch.Delete(domain.CollectionCategoryGroups, groupID)
	for _, m := range members {
		batch.Update(domain.CollectionCategories, m.ID, ledger.Document{"group_id": nil})
	}
	return batch.Commit(ctx)
}
