package domain

import (
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/shopspring/decimal"
)

// CollectionTransactions is the ledger collection holding transaction
// documents.
const CollectionTransactions = "transactions"

// TransactionType is derived from the sign of the amount on every write and
// never trusted from input.
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "debit"
	TransactionTypeCredit TransactionType = "credit"
)

// TypeForAmount returns debit for negative amounts and credit otherwise.
func TypeForAmount(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// NormalizeCategoryID collapses the historical "no category" spellings
// (absent, empty, literal "null") into a single nil sentinel. Every use-case
// boundary passes requested category ids through here before comparing or
// persisting them.
func NormalizeCategoryID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return &trimmed
}

// Transaction is a single money movement. Negative amounts are expenses,
// positive amounts income. CategoryID is nil for uncategorized transactions,
// which are excluded from the balance invariant until assigned.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	CategoryID *string         `json:"categoryId,omitempty"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	Type       TransactionType `json:"type"`
	CreatedAt  time.Time       `json:"createdAt"`

	// Provenance, set only for bank-synced transactions.
	PlaidTransactionID *string `json:"plaidTransactionId,omitempty"`
	InstitutionName    *string `json:"institutionName,omitempty"`
	AccountName        *string `json:"accountName,omitempty"`
}

// NewTransaction validates input and constructs a Transaction with its type
// derived from the amount's sign.
func NewTransaction(userID string, categoryID *string, name string, amount decimal.Decimal, date string) (*Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, ErrInvalidDate
	}
	return &Transaction{
		UserID:     userID,
		CategoryID: NormalizeCategoryID(categoryID),
		Name:       name,
		Amount:     amount,
		Date:       date,
		Type:       TypeForAmount(amount),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Document encodes the transaction for the ledger store. The type field is
// recomputed here so a stale value can never be persisted.
func (t *Transaction) Document() ledger.Document {
	doc := ledger.Document{
		"amount":     t.Amount.String(),
		"user_id":    t.UserID,
		"name":       t.Name,
		"date":       t.Date,
		"type":       string(TypeForAmount(t.Amount)),
		"created_at": encodeTime(t.CreatedAt),
	}
	// category_id is always present so uncategorized transactions stay
	// queryable with an equality filter on nil.
	if t.CategoryID != nil {
		doc["category_id"] = *t.CategoryID
	} else {
		doc["category_id"] = nil
	}
	if t.PlaidTransactionID != nil {
		doc["plaid_transaction_id"] = *t.PlaidTransactionID
	}
	if t.InstitutionName != nil {
		doc["institution_name"] = *t.InstitutionName
	}
	if t.AccountName != nil {
		doc["account_name"] = *t.AccountName
	}
	return doc
}

// TransactionFromDoc decodes a stored transaction document.
func TransactionFromDoc(id string, doc ledger.Document) (*Transaction, error) {
	amount, err := docDecimal(doc, "amount")
	if err != nil {
		return nil, err
	}
	userID, err := docString(doc, "user_id")
	if err != nil {
		return nil, err
	}
	name, err := docString(doc, "name")
	if err != nil {
		return nil, err
	}
	date, err := docString(doc, "date")
	if err != nil {
		return nil, err
	}
	createdAt, err := docTime(doc, "created_at")
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:                 id,
		UserID:             userID,
		CategoryID:         NormalizeCategoryID(docOptString(doc, "category_id")),
		Name:               name,
		Amount:             amount,
		Date:               date,
		Type:               TypeForAmount(amount),
		CreatedAt:          createdAt,
		PlaidTransactionID: docOptString(doc, "plaid_transaction_id"),
		InstitutionName:    docOptString(doc, "institution_name"),
		AccountName:        docOptString(doc, "account_name"),
	}, nil
}
