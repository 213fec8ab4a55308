package domain

import (
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/shopspring/decimal"
)

// CollectionCategories is the ledger collection holding category documents.
const CollectionCategories = "categories"

// UnallocatedFundsName is the display name of the pseudo-category created
// with every user.
const UnallocatedFundsName = "Unallocated Funds"

// Category is an envelope of money. Available is the cached authoritative
// balance maintained by the balance engine; the auditor recomputes it from
// history.
type Category struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	Name               string           `json:"name"`
	Available          decimal.Decimal  `json:"available"`
	IsUnallocatedFunds bool             `json:"isUnallocatedFunds"`
	GoalAmount         *decimal.Decimal `json:"goalAmount,omitempty"`
	GroupID            *string          `json:"groupId,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// NewCategory validates input and constructs a regular category with a zero
// starting balance.
func NewCategory(userID, name string) (*Category, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return &Category{
		UserID:    userID,
		Name:      name,
		Available: decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewUnallocatedCategory constructs the distinguished unallocated funds
// category created atomically with its user.
func NewUnallocatedCategory(userID string) *Category {
	return &Category{
		UserID:             userID,
		Name:               UnallocatedFundsName,
		Available:          decimal.Zero,
		IsUnallocatedFunds: true,
		CreatedAt:          time.Now().UTC(),
	}
}

// ValidateGoal checks a proposed goal amount.
func ValidateGoal(goal decimal.Decimal) error {
	if goal.IsNegative() {
		return ErrNegativeGoal
	}
	return nil
}

// Document encodes the category for the ledger store.
func (c *Category) Document() ledger.Document {
	doc := ledger.Document{
		"name":                 c.Name,
		"user_id":              c.UserID,
		"available":            c.Available.String(),
		"is_unallocated_funds": c.IsUnallocatedFunds,
		"created_at":           encodeTime(c.CreatedAt),
	}
	if c.GoalAmount != nil {
		doc["goal_amount"] = c.GoalAmount.String()
	}
	if c.GroupID != nil {
		doc["group_id"] = *c.GroupID
	}
	return doc
}

// CategoryFromDoc decodes a stored category document.
func CategoryFromDoc(id string, doc ledger.Document) (*Category, error) {
	name, err := docString(doc, "name")
	if err != nil {
		return nil, err
	}
	userID, err := docString(doc, "user_id")
	if err != nil {
		return nil, err
	}
	available, err := docDecimal(doc, "available")
	if err != nil {
		return nil, err
	}
	createdAt, err := docTime(doc, "created_at")
	if err != nil {
		return nil, err
	}
	c := &Category{
		ID:                 id,
		UserID:             userID,
		Name:               name,
		Available:          available,
		IsUnallocatedFunds: docBool(doc, "is_unallocated_funds"),
		GroupID:            docOptString(doc, "group_id"),
		CreatedAt:          createdAt,
	}
	if v, ok := doc["goal_amount"]; ok && v != nil {
		goal, err := docDecimal(doc, "goal_amount")
		if err != nil {
			return nil, err
		}
		c.GoalAmount = &goal
	}
	return c, nil
}
