// Package service implements the budgeting use cases on top of the ledger
// store. Every mutation follows the same protocol: validate input, read the
// minimal consistent snapshot, compute balance adjustments, commit one
// atomic batch. Precondition failures abort before a batch is constructed.
package service

import (
	"context"
	"errors"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
)

// getUser fetches a user or reports domain.ErrUserNotFound.
func getUser(ctx context.Context, store ledger.Store, userID string) (*domain.User, error) {
	doc, err := store.Get(ctx, domain.CollectionUsers, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.UserFromDoc(userID, doc)
}

// getCategory fetches a category or reports domain.ErrCategoryNotFound.
func getCategory(ctx context.Context, store ledger.Store, categoryID string) (*domain.Category, error) {
	doc, err := store.Get(ctx, domain.CollectionCategories, categoryID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.CategoryFromDoc(categoryID, doc)
}

// getCategoryOwned fetches a category and verifies it belongs to userID.
func getCategoryOwned(ctx context.Context, store ledger.Store, categoryID, userID string) (*domain.Category, error) {
	category, err := getCategory(ctx, store, categoryID)
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return category, nil
}

// findUnallocated locates the user's unallocated funds category. Its absence
// means the user record is broken: user creation writes both documents in
// one batch.
func findUnallocated(ctx context.Context, store ledger.Store, userID string) (*domain.Category, error) {
	docs, err := store.Query(ctx, ledger.Query{
		Collection: domain.CollectionCategories,
		Limit:      1,
	}.
		Where("user_id", ledger.OpEqual, userID).
		Where("is_unallocated_funds", ledger.OpEqual, true))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrUnallocatedNotFound
	}
	return domain.CategoryFromDoc(docs[0].ID, docs[0].Data)
}

// hasAnyInCategory reports whether the collection holds at least one
// document referencing the category.
func hasAnyInCategory(ctx context.Context, store ledger.Store, collection, categoryID string) (bool, error) {
	docs, err := store.Query(ctx, ledger.Query{
		Collection: collection,
		Limit:      1,
	}.Where("category_id", ledger.OpEqual, categoryID))
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}
