package domain

import (
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/shopspring/decimal"
)

// CollectionAssignments is the ledger collection holding assignment
// documents.
const CollectionAssignments = "assignments"

// Assignment is a funding move of a fixed amount from the unallocated funds
// category into a target category. Immutable once created.
type Assignment struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewAssignment validates input and constructs an Assignment. A zero amount
// is rejected here, before anything touches the store.
func NewAssignment(userID, categoryID string, amount decimal.Decimal, date string) (*Assignment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, ErrCategoryNotFound
	}
	if amount.IsZero() {
		return nil, ErrZeroAssignment
	}
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, ErrInvalidDate
	}
	return &Assignment{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Date:       date,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Document encodes the assignment for the ledger store.
func (a *Assignment) Document() ledger.Document {
	return ledger.Document{
		"amount":      a.Amount.String(),
		"user_id":     a.UserID,
		"category_id": a.CategoryID,
		"date":        a.Date,
		"created_at":  encodeTime(a.CreatedAt),
	}
}

// AssignmentFromDoc decodes a stored assignment document.
func AssignmentFromDoc(id string, doc ledger.Document) (*Assignment, error) {
	amount, err := docDecimal(doc, "amount")
	if err != nil {
		return nil, err
	}
	userID, err := docString(doc, "user_id")
	if err != nil {
		return nil, err
	}
	categoryID, err := docString(doc, "category_id")
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
	return &Assignment{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Date:       date,
		CreatedAt:  createdAt,
	}, nil
}
