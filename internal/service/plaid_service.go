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

// PlaidService maintains bank-link records and applies sync deltas from the
// external aggregation feed. The feed protocol itself lives outside this
// repo; this service only consumes its already-decoded output.
type PlaidService struct {
	store  ledger.Store
	events ws.EventPublisher
}

// NewPlaidService creates a new PlaidService
func NewPlaidService(store ledger.Store, events ws.EventPublisher) *PlaidService {
	return &PlaidService{store: store, events: events}
}

// SyncedTransaction is one transaction reported by the feed.
type SyncedTransaction struct {
	PlaidTransactionID string
	AccountID          string
	Name               string
	Amount             decimal.Decimal
	Date               string
}

// SyncDelta is the decoded output of one feed sync call.
type SyncDelta struct {
	Added      []SyncedTransaction
	Modified   []SyncedTransaction
	RemovedIDs []string
	NextCursor string
}

// SyncResult summarizes an applied delta.
type SyncResult struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// LinkItem stores (or refreshes) an institution linkage for the user.
func (s *PlaidService) LinkItem(ctx context.Context, userID, accessToken, itemID, institutionID, institutionName string, accounts []domain.PlaidAccount) (*domain.PlaidItem, error) {
	item, err := domain.NewPlaidItem(userID, accessToken, itemID, institutionID, institutionName, accounts)
	if err != nil {
		return nil, err
	}
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	// Re-linking the same institution refreshes the existing record.
	existing, err := s.findByItemID(ctx, userID, itemID)
	if err != nil && !errors.Is(err, domain.ErrPlaidItemNotFound) {
		return nil, err
	}
	if existing != nil {
		item.ID = existing.ID
		item.Cursor = existing.Cursor
	}

	batch := s.store.Batch()
	item.ID = batch.Set(domain.CollectionPlaidItems, item.ID, item.Document())
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemsByUser lists the user's institution linkages.
func (s *PlaidService) ItemsByUser(ctx context.Context, userID string) ([]*domain.PlaidItem, error) {
	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionPlaidItems,
	}.Where("user_id", ledger.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	items := make([]*domain.PlaidItem, 0, len(docs))
	for _, d := range docs {
		item, err := domain.PlaidItemFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Cursor returns the last committed sync cursor for an item, empty for a
// never-synced item. The feed driver passes it to the next sync call.
func (s *PlaidService) Cursor(ctx context.Context, userID, plaidItemID string) (string, error) {
	item, err := s.getItemOwned(ctx, userID, plaidItemID)
	if err != nil {
		return "", err
	}
	if item.Cursor == nil {
		return "", nil
	}
	return *item.Cursor, nil
}

// ApplySyncDelta ingests one feed delta for an item. Added transactions
// arrive uncategorized, so they carry no balance adjustment and are batched
// together with the cursor update. Removals and amount changes touch
// category balances, so each one reads its current state and commits its
// own batch; a failure there leaves the cursor unadvanced and the delta is
// safe to replay because ingestion is keyed by plaid_transaction_id.
func (s *PlaidService) ApplySyncDelta(ctx context.Context, userID, plaidItemID string, delta SyncDelta) (*SyncResult, error) {
	item, err := s.getItemOwned(ctx, userID, plaidItemID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}

	for _, id := range delta.RemovedIDs {
		removed, err := s.removeSynced(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if removed {
			result.Removed++
		}
	}

	for _, st := range delta.Modified {
		modified, err := s.modifySynced(ctx, userID, st)
		if err != nil {
			return nil, err
		}
		if modified {
			result.Modified++
		}
	}

	batch := s.store.Batch()
	for _, st := range delta.Added {
		existing, err := s.findSynced(ctx, userID, st.PlaidTransactionID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		tx, err := domain.NewTransaction(userID, nil, st.Name, st.Amount, st.Date)
		if err != nil {
			return nil, err
		}
		tx.PlaidTransactionID = &st.PlaidTransactionID
		tx.InstitutionName = &item.InstitutionName
		accountName := item.AccountName(st.AccountID)
		tx.AccountName = &accountName
		batch.Set(domain.CollectionTransactions, "", tx.Document())
		result.Added++
	}
	if delta.NextCursor != "" {
		batch.Update(domain.CollectionPlaidItems, item.ID, ledger.Document{
			"cursor": delta.NextCursor,
		})
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("plaid_item_id", item.ID).
		Int("added", result.Added).
		Int("modified", result.Modified).
		Int("removed", result.Removed).
		Msg("Sync delta applied")

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeSynced, ws.EntityTypeTransaction, result))
	return result, nil
}

// removeSynced deletes one synced transaction, reversing its balance
// contribution in the same batch. Returns false when the transaction is
// already gone.
func (s *PlaidService) removeSynced(ctx context.Context, userID, plaidTransactionID string) (bool, error) {
	tx, err := s.findSynced(ctx, userID, plaidTransactionID)
	if err != nil || tx == nil {
		return false, err
	}

	var category *domain.Category
	if tx.CategoryID != nil {
		category, err = getCategory(ctx, s.store, *tx.CategoryID)
		if err != nil {
			return false, err
		}
	}

	batch := s.store.Batch()
	batch.Delete(domain.CollectionTransactions, tx.ID)
	for _, adj := range balance.TransactionDelete(category, tx.Amount) {
		adj.Apply(batch)
	}
	if err := batch.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// modifySynced updates one synced transaction in place. An amount change on
// a categorized transaction shifts the category balance by the difference.
func (s *PlaidService) modifySynced(ctx context.Context, userID string, st SyncedTransaction) (bool, error) {
	tx, err := s.findSynced(ctx, userID, st.PlaidTransactionID)
	if err != nil || tx == nil {
		return false, err
	}

	batch := s.store.Batch()
	batch.Update(domain.CollectionTransactions, tx.ID, ledger.Document{
		"name":   st.Name,
		"date":   st.Date,
		"amount": st.Amount.String(),
		"type":   string(domain.TypeForAmount(st.Amount)),
	})
	if tx.CategoryID != nil && !tx.Amount.Equal(st.Amount) {
		category, err := getCategory(ctx, s.store, *tx.CategoryID)
		if err != nil {
			return false, err
		}
		diff := st.Amount.Sub(tx.Amount)
		for _, adj := range balance.TransactionCreate(category, diff) {
			adj.Apply(batch)
		}
	}
	if err := batch.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PlaidService) findSynced(ctx context.Context, userID, plaidTransactionID string) (*domain.Transaction, error) {
	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionTransactions,
		Limit:      1,
	}.
		Where("user_id", ledger.OpEqual, userID).
		Where("plaid_transaction_id", ledger.OpEqual, plaidTransactionID))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return domain.TransactionFromDoc(docs[0].ID, docs[0].Data)
}

func (s *PlaidService) getItemOwned(ctx context.Context, userID, plaidItemID string) (*domain.PlaidItem, error) {
	doc, err := s.store.Get(ctx, domain.CollectionPlaidItems, plaidItemID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, domain.ErrPlaidItemNotFound
	}
	if err != nil {
		return nil, err
	}
	item, err := domain.PlaidItemFromDoc(plaidItemID, doc)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return item, nil
}

func (s *PlaidService) findByItemID(ctx context.Context, userID, itemID string) (*domain.PlaidItem, error) {
	docs, err := s.store.Query(ctx, ledger.Query{
		Collection: domain.CollectionPlaidItems,
		Limit:      1,
	}.
		Where("user_id", ledger.OpEqual, userID).
		Where("item_id", ledger.OpEqual, itemID))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrPlaidItemNotFound
	}
	return domain.PlaidItemFromDoc(docs[0].ID, docs[0].Data)
}
