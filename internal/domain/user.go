package domain

import (
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
)

// CollectionUsers is the ledger collection holding user documents.
const CollectionUsers = "users"

// BudgetPeriod is the cadence a user budgets on.
type BudgetPeriod string

const (
	BudgetPeriodMonthly  BudgetPeriod = "monthly"
	BudgetPeriodBiWeekly BudgetPeriod = "bi-weekly"
)

// PaySchedule anchors a bi-weekly budget period to a pay date.
type PaySchedule struct {
	StartDate string `json:"startDate"`
}

// UserPreferences holds per-user budgeting preferences.
type UserPreferences struct {
	BudgetPeriod BudgetPeriod `json:"budgetPeriod"`
	PaySchedule  *PaySchedule `json:"paySchedule,omitempty"`
}

// Validate checks the preference values.
func (p UserPreferences) Validate() error {
	if p.BudgetPeriod != BudgetPeriodMonthly && p.BudgetPeriod != BudgetPeriodBiWeekly {
		return ErrInvalidBudgetPeriod
	}
	if p.PaySchedule != nil {
		if _, err := time.Parse(DateFormat, p.PaySchedule.StartDate); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// DefaultPreferences returns the preferences a new user starts with.
func DefaultPreferences() UserPreferences {
	return UserPreferences{BudgetPeriod: BudgetPeriodMonthly}
}

// User is the identity anchor every other entity hangs off. IDs are assigned
// by the caller (the identity provider), not generated.
type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewUser validates input and constructs a User. Nothing is persisted here.
func NewUser(id, email string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrUserIDRequired
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	return &User{
		ID:          id,
		Email:       email,
		Preferences: DefaultPreferences(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Document encodes the user for the ledger store.
func (u *User) Document() ledger.Document {
	prefs := map[string]any{"budget_period": string(u.Preferences.BudgetPeriod)}
	if u.Preferences.PaySchedule != nil {
		prefs["pay_schedule"] = map[string]any{"start_date": u.Preferences.PaySchedule.StartDate}
	}
	return ledger.Document{
		"email":       u.Email,
		"preferences": prefs,
		"created_at":  encodeTime(u.CreatedAt),
	}
}

// UserFromDoc decodes a stored user document.
func UserFromDoc(id string, doc ledger.Document) (*User, error) {
	email, err := docString(doc, "email")
	if err != nil {
		return nil, err
	}
	createdAt, err := docTime(doc, "created_at")
	if err != nil {
		return nil, err
	}
	u := &User{ID: id, Email: email, CreatedAt: createdAt, Preferences: DefaultPreferences()}
	if raw, ok := doc["preferences"].(map[string]any); ok {
		if bp, ok := raw["budget_period"].(string); ok && bp != "" {
			u.Preferences.BudgetPeriod = BudgetPeriod(bp)
		}
		if ps, ok := raw["pay_schedule"].(map[string]any); ok {
			if sd, ok := ps["start_date"].(string); ok {
				u.Preferences.PaySchedule = &PaySchedule{StartDate: sd}
			}
		}
	}
	return u, nil
}
