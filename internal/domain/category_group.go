package domain

import (
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
)

// CollectionCategoryGroups is the ledger collection holding category group
// documents.
const CollectionCategoryGroups = "category_groups"

// CategoryGroup is a display grouping of categories on the budget screen.
type CategoryGroup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCategoryGroup validates input and constructs a CategoryGroup.
func NewCategoryGroup(userID, name string, sortOrder int) (*CategoryGroup, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if sortOrder < 0 {
		return nil, ErrNegativeSortOrder
	}
	return &CategoryGroup{
		UserID:    userID,
		Name:      name,
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Document encodes the group for the ledger store.
func (g *CategoryGroup) Document() ledger.Document {
	return ledger.Document{
		"name":       g.Name,
		"user_id":    g.UserID,
		"sort_order": float64(g.SortOrder),
		"created_at": encodeTime(g.CreatedAt),
	}
}

// CategoryGroupFromDoc decodes a stored category group document.
func CategoryGroupFromDoc(id string, doc ledger.Document) (*CategoryGroup, error) {
	name, err := docString(doc, "name")
	if err != nil {
		return nil, err
	}
	userID, err := docString(doc, "user_id")
	if err != nil {
		return nil, err
	}
	createdAt, err := docTime(doc, "created_at")
	if err != nil {
		return nil, err
	}
	sortOrder := 0
	if v, ok := doc["sort_order"].(float64); ok {
		sortOrder = int(v)
	}
	return &CategoryGroup{
		ID:        id,
		UserID:    userID,
		Name:      name,
		SortOrder: sortOrder,
		CreatedAt: createdAt,
	}, nil
}
