package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		email   string
		wantErr error
	}{
		{"valid", "user-1", "a@b.com", nil},
		{"blank id", "  ", "a@b.com", ErrUserIDRequired},
		{"email without at", "user-1", "not-an-email", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := NewUser(tt.id, tt.email)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewUser() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if user.Preferences.BudgetPeriod != BudgetPeriodMonthly {
				t.Errorf("Expected monthly default period, got %s", user.Preferences.BudgetPeriod)
			}
		})
	}
}

func TestUserPreferences_Validate(t *testing.T) {
	tests := []struct {
		name    string
		prefs   UserPreferences
		wantErr error
	}{
		{"monthly", UserPreferences{BudgetPeriod: BudgetPeriodMonthly}, nil},
		{"bi-weekly with schedule", UserPreferences{
			BudgetPeriod: BudgetPeriodBiWeekly,
			PaySchedule:  &PaySchedule{StartDate: "2026-01-02"},
		}, nil},
		{"unknown period", UserPreferences{BudgetPeriod: "weekly"}, ErrInvalidBudgetPeriod},
		{"bad schedule date", UserPreferences{
			BudgetPeriod: BudgetPeriodMonthly,
			PaySchedule:  &PaySchedule{StartDate: "Jan 2 2026"},
		}, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.prefs.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTransaction(t *testing.T) {
	categoryID := "cat-1"
	tests := []struct {
		name       string
		userID     string
		categoryID *string
		txName     string
		date       string
		wantErr    error
	}{
		{"valid categorized", "u1", &categoryID, "Market", "2026-01-10", nil},
		{"valid uncategorized", "u1", nil, "Market", "2026-01-10", nil},
		{"blank user", "", &categoryID, "Market", "2026-01-10", ErrUserIDRequired},
		{"blank name", "u1", &categoryID, "   ", "2026-01-10", ErrNameRequired},
		{"bad date", "u1", &categoryID, "Market", "10/01/2026", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(tt.userID, tt.categoryID, tt.txName, decimal.NewFromInt(-5), tt.date)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewTransaction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTypeForAmount(t *testing.T) {
	if got := TypeForAmount(decimal.NewFromInt(-1)); got != TransactionTypeDebit {
		t.Errorf("Expected debit for negative amount, got %s", got)
	}
	if got := TypeForAmount(decimal.NewFromInt(1)); got != TransactionTypeCredit {
		t.Errorf("Expected credit for positive amount, got %s", got)
	}
	if got := TypeForAmount(decimal.Zero); got != TransactionTypeCredit {
		t.Errorf("Expected credit for zero amount, got %s", got)
	}
}

func TestNormalizeCategoryID(t *testing.T) {
	set := "cat-1"
	padded := "  cat-1  "
	empty := ""
	literalNull := "null"

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil stays nil", nil, nil},
		{"set id kept", &set, &set},
		{"whitespace trimmed", &padded, &set},
		{"empty is nil", &empty, nil},
		{"literal null is nil", &literalNull, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCategoryID(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeCategoryID() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("NormalizeCategoryID() = %q, want %q", *got, *tt.want)
			}
		})
	}
}

func TestNewAssignment(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		wantErr error
	}{
		{"positive", decimal.NewFromInt(50), nil},
		{"negative", decimal.NewFromInt(-50), nil},
		{"zero rejected", decimal.Zero, ErrZeroAssignment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssignment("u1", "cat-1", tt.amount, "2026-01-10")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewAssignment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewAssignment("u1", "  ", decimal.NewFromInt(1), "2026-01-10"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound for blank category, got %v", err)
	}
}

func TestNewCategoryGroup(t *testing.T) {
	if _, err := NewCategoryGroup("u1", "Essentials", 0); err != nil {
		t.Fatalf("NewCategoryGroup() error = %v", err)
	}
	if _, err := NewCategoryGroup("u1", "Essentials", -1); !errors.Is(err, ErrNegativeSortOrder) {
		t.Errorf("Expected ErrNegativeSortOrder, got %v", err)
	}
	if _, err := NewCategoryGroup("u1", "", 0); !errors.Is(err, ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestTransactionDocumentRoundTrip(t *testing.T) {
	categoryID := "cat-1"
	tx, err := NewTransaction("u1", &categoryID, "Market", decimal.RequireFromString("-20.50"), "2026-01-10")
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}

	doc := tx.Document()
	if doc["category_id"] != categoryID {
		t.Errorf("Expected category_id %q in document, got %v", categoryID, doc["category_id"])
	}

	decoded, err := TransactionFromDoc("tx-1", doc)
	if err != nil {
		t.Fatalf("TransactionFromDoc() error = %v", err)
	}
	if !decoded.Amount.Equal(tx.Amount) {
		t.Errorf("Expected amount %s, got %s", tx.Amount, decoded.Amount)
	}
	if decoded.Type != TransactionTypeDebit {
		t.Errorf("Expected debit, got %s", decoded.Type)
	}

	uncat, err := NewTransaction("u1", nil, "Mystery", decimal.NewFromInt(-1), "2026-01-10")
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	doc = uncat.Document()
	if v, ok := doc["category_id"]; !ok || v != nil {
		t.Errorf("Expected category_id key present and nil, got %v (present=%v)", v, ok)
	}
}
