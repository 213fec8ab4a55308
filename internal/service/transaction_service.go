package service

import (
	"context"
	"errors"

	"github.com/centsible/centsible-backend/internal/balance"
	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ws"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPageSize is the transaction page size when the caller does
	// not specify one.
	DefaultPageSize = 20
	// MaxPageSize caps the transaction page size.
	MaxPageSize = 100
)

// TransactionService handles transaction business logic
type TransactionService struct {
	store  ledger.Store
	events ws.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(store ledger.Store, events ws.EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events}
}

// ListFilter narrows a transaction listing. Uncategorized selects only
// transactions without a category; it is mutually exclusive with CategoryID.
type ListFilter struct {
	CategoryID    *string
	Uncategorized bool
}

// TransactionPage is one page of a transaction listing. Cursor is the
// opaque resumption token for the next page; HasMore is true iff the page
// came back full.
type TransactionPage struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Cursor       string                `json:"cursor,omitempty"`
	HasMore      bool                  `json:"hasMore"`
}

// Create records a transaction and, when categorized, adjusts the
// category's available balance in the same batch.
func (s *TransactionService) Create(ctx context.Context, userID string, categoryID *string, name string, amount decimal.Decimal, date string) (*domain.Transaction, error) {
	tx, err := domain.NewTransaction(userID, categoryID, name, amount, date)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	var category *domain.Category
	if tx.CategoryID != nil {
		category, err = getCategoryOwned(ctx, s.store, *tx.CategoryID, userID)
		if err != nil {
			return nil, err
		}
	}

	batch := s.store.Batch()
	tx.ID = batch.Set(domain.CollectionTransactions, "", tx.Document())
	for _, adj := range balance.TransactionCreate(category, amount) {
		adj.Apply(batch)
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeCreated, ws.EntityTypeTransaction, tx))
	return tx, nil
}

// Get fetches a transaction owned by the user.
func (s *TransactionService) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	return s.getOwned(ctx, userID, transactionID)
}

// Delete removes a transaction and reverses its balance contribution in the
// same batch.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	tx, err := s.getOwned(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	var category *domain.Category
	if tx.CategoryID != nil {
		category, err = getCategory(ctx, s.store, *tx.CategoryID)
		if err != nil {
			return err
		}
	}

	batch := s.store.Batch()
	batch.Delete(domain.CollectionTransactions, transactionID)
	for _, adj := range balance.TransactionDelete(category, tx.Amount) {
		adj.Apply(batch)
	}
	if err := batch.Commit(ctx); err != nil {
		return err
	}

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeDeleted, ws.EntityTypeTransaction, tx))
	return nil
}

// Recategorize moves a transaction to another category (or to none) and
// shifts its balance contribution accordingly. Recategorizing to the current
// category is an idempotent no-op.
func (s *TransactionService) Recategorize(ctx context.Context, userID, transactionID string, categoryID *string) (*domain.Transaction, error) {
	tx, err := s.getOwned(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	newID := domain.NormalizeCategoryID(categoryID)
	if equalCategoryIDs(tx.CategoryID, newID) {
		return tx, nil
	}

	var oldCategory, newCategory *domain.Category
	if tx.CategoryID != nil {
		oldCategory, err = getCategory(ctx, s.store, *tx.CategoryID)
		if err != nil {
			return nil, err
		}
	}
	if newID != nil {
		newCategory, err = getCategoryOwned(ctx, s.store, *newID, userID)
		if err != nil {
			return nil, err
		}
	}

	batch := s.store.Batch()
	var stored any
	if newID != nil {
		stored = *newID
	}
	batch.Update(domain.CollectionTransactions, transactionID, ledger.Document{
		"category_id": stored,
	})
	for _, adj := range balance.TransactionRecategorize(oldCategory, newCategory, tx.Amount) {
		adj.Apply(batch)
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	log.Debug().
		Str("user_id", userID).
		Str("transaction_id", transactionID).
		Msg("Transaction recategorized")

	tx.CategoryID = newID
	s.events.Publish(userID, ws.NewEvent(ws.EventTypeUpdated, ws.EntityTypeTransaction, tx))
	return tx, nil
}

// List returns a page of the user's transactions, newest date first.
// cursor is the value returned by the previous page; pageSize 0 means
// DefaultPageSize.
func (s *TransactionService) List(ctx context.Context, userID string, filter ListFilter, pageSize int, cursor string) (*TransactionPage, error) {
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	q := ledger.Query{
		Collection: domain.CollectionTransactions,
		OrderBy:    "date",
		Descending: true,
		Limit:      pageSize,
		StartAfter: cursor,
	}.Where("user_id", ledger.OpEqual, userID)
	if filter.Uncategorized {
		q = q.Where("category_id", ledger.OpEqual, nil)
	} else if filter.CategoryID != nil {
		q = q.Where("category_id", ledger.OpEqual, *filter.CategoryID)
	}

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &TransactionPage{Transactions: make([]*domain.Transaction, 0, len(docs))}
	for _, d := range docs {
		tx, err := domain.TransactionFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		page.Transactions = append(page.Transactions, tx)
	}
	if len(docs) == pageSize {
		page.HasMore = true
		page.Cursor = docs[len(docs)-1].ID
	}
	return page, nil
}

func (s *TransactionService) getOwned(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	doc, err := s.store.Get(ctx, domain.CollectionTransactions, transactionID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	tx, err := domain.TransactionFromDoc(transactionID, doc)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return tx, nil
}

func equalCategoryIDs(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
