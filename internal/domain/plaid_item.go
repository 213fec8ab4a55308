package domain

import (
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
)

// CollectionPlaidItems is the ledger collection holding bank-link documents.
const CollectionPlaidItems = "plaid_items"

// PlaidAccount is one linked account within an institution, cached so
// ingested transactions can carry a human-readable account name.
type PlaidAccount struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
}

// PlaidItem is a per-user institution linkage: an opaque access credential,
// the sync resumption cursor and the cached account list.
type PlaidItem struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	AccessToken     string         `json:"-"`
	ItemID          string         `json:"itemId"`
	InstitutionID   string         `json:"institutionId"`
	InstitutionName string         `json:"institutionName"`
	Cursor          *string        `json:"-"`
	Accounts        []PlaidAccount `json:"accounts"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// NewPlaidItem validates input and constructs a PlaidItem.
func NewPlaidItem(userID, accessToken, itemID, institutionID, institutionName string, accounts []PlaidAccount) (*PlaidItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(itemID) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(institutionName) == "" {
		return nil, ErrNameRequired
	}
	return &PlaidItem{
		UserID:          userID,
		AccessToken:     accessToken,
		ItemID:          itemID,
		InstitutionID:   institutionID,
		InstitutionName: institutionName,
		Accounts:        accounts,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// AccountName resolves the display name for an account id, falling back to
// the id itself when the account list has not been cached.
func (p *PlaidItem) AccountName(accountID string) string {
	for _, a := range p.Accounts {
		if a.AccountID == accountID {
			return a.Name
		}
	}
	return accountID
}

// Document encodes the item for the ledger store.
func (p *PlaidItem) Document() ledger.Document {
	accounts := make([]any, len(p.Accounts))
	for i, a := range p.Accounts {
		accounts[i] = map[string]any{"account_id": a.AccountID, "name": a.Name}
	}
	doc := ledger.Document{
		"user_id":          p.UserID,
		"access_token":     p.AccessToken,
		"item_id":          p.ItemID,
		"institution_id":   p.InstitutionID,
		"institution_name": p.InstitutionName,
		"accounts":         accounts,
		"created_at":       encodeTime(p.CreatedAt),
	}
	if p.Cursor != nil {
		doc["cursor"] = *p.Cursor
	}
	return doc
}

// PlaidItemFromDoc decodes a stored plaid item document.
func PlaidItemFromDoc(id string, doc ledger.Document) (*PlaidItem, error) {
	userID, err := docString(doc, "user_id")
	if err != nil {
		return nil, err
	}
	accessToken, err := docString(doc, "access_token")
	if err != nil {
		return nil, err
	}
	itemID, err := docString(doc, "item_id")
	if err != nil {
		return nil, err
	}
	institutionName, err := docString(doc, "institution_name")
	if err != nil {
		return nil, err
	}
	createdAt, err := docTime(doc, "created_at")
	if err != nil {
		return nil, err
	}
	item := &PlaidItem{
		ID:              id,
		UserID:          userID,
		AccessToken:     accessToken,
		ItemID:          itemID,
		InstitutionName: institutionName,
		Cursor:          docOptString(doc, "cursor"),
		CreatedAt:       createdAt,
	}
	if inst := docOptString(doc, "institution_id"); inst != nil {
		item.InstitutionID = *inst
	}
	if raw, ok := doc["accounts"].([]any); ok {
		for _, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			accountID, _ := m["account_id"].(string)
			name, _ := m["name"].(string)
			item.Accounts = append(item.Accounts, PlaidAccount{AccountID: accountID, Name: name})
		}
	}
	return item, nil
}
