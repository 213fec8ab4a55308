package balance

import (
	"testing"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func category(id, available string) *domain.Category {
	return &domain.Category{ID: id, Available: decimal.RequireFromString(available)}
}

func TestTransactionCreate(t *testing.T) {
	adjs := TransactionCreate(category("groceries", "50"), decimal.RequireFromString("-20"))
	if len(adjs) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjs))
	}
	if adjs[0].CategoryID != "groceries" {
		t.Errorf("expected category groceries, got %s", adjs[0].CategoryID)
	}
	if !adjs[0].Available.Equal(decimal.RequireFromString("30")) {
		t.Errorf("expected available 30, got %s", adjs[0].Available)
	}
}

func TestTransactionCreate_Uncategorized(t *testing.T) {
	if adjs := TransactionCreate(nil, decimal.RequireFromString("-20")); adjs != nil {
		t.Errorf("expected no adjustments, got %v", adjs)
	}
}

func TestTransactionDelete(t *testing.T) {
	adjs := TransactionDelete(category("groceries", "30"), decimal.RequireFromString("-20"))
	if len(adjs) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjs))
	}
	if !adjs[0].Available.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected available 50, got %s", adjs[0].Available)
	}
}

func TestTransactionRecategorize(t *testing.T) {
	amount := decimal.RequireFromString("-15")

	tests := []struct {
		name         string
		old, new     *domain.Category
		wantCount    int
		wantOldAvail string
		wantNewAvail string
	}{
		{
			name: "set to set", old: category("a", "35"), new: category("b", "0"),
			wantCount: 2, wantOldAvail: "50", wantNewAvail: "-15",
		},
		{
			name: "null to set", old: nil, new: category("b", "0"),
			wantCount: 1, wantNewAvail: "-15",
		},
		{
			name: "set to null", old: category("a", "35"), new: nil,
			wantCount: 1, wantOldAvail: "50",
		},
		{
			name: "null to null", old: nil, new: nil,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjs := TransactionRecategorize(tt.old, tt.new, amount)
			if len(adjs) != tt.wantCount {
				t.Fatalf("expected %d adjustments, got %d", tt.wantCount, len(adjs))
			}
			for _, adj := range adjs {
				switch {
				case tt.old != nil && adj.CategoryID == tt.old.ID:
					if !adj.Available.Equal(decimal.RequireFromString(tt.wantOldAvail)) {
						t.Errorf("old category: expected %s, got %s", tt.wantOldAvail, adj.Available)
					}
				case tt.new != nil && adj.CategoryID == tt.new.ID:
					if !adj.Available.Equal(decimal.RequireFromString(tt.wantNewAvail)) {
						t.Errorf("new category: expected %s, got %s", tt.wantNewAvail, adj.Available)
					}
				default:
					t.Errorf("unexpected adjustment for category %s", adj.CategoryID)
				}
			}
		})
	}
}

func TestAssignmentCreate_Conservation(t *testing.T) {
	unallocated := category("unallocated", "100")
	target := category("groceries", "0")
	amount := decimal.RequireFromString("50")

	adjs := AssignmentCreate(unallocated, target, amount)
	if len(adjs) != 2 {
		t.Fatalf("expected 2 adjustments, got %d", len(adjs))
	}

	// The two deltas must mirror each other exactly.
	deltaUnallocated := adjs[0].Available.Sub(unallocated.Available)
	deltaTarget := adjs[1].Available.Sub(target.Available)
	if !deltaUnallocated.Add(deltaTarget).IsZero() {
		t.Errorf("deltas do not sum to zero: %s and %s", deltaUnallocated, deltaTarget)
	}
	if !adjs[0].Available.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected unallocated 50, got %s", adjs[0].Available)
	}
	if !adjs[1].Available.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected target 50, got %s", adjs[1].Available)
	}
}

func TestAssignmentCreate_NegativeAmount(t *testing.T) {
	adjs := AssignmentCreate(category("unallocated", "-10"), category("groceries", "25"), decimal.RequireFromString("-25"))
	if !adjs[0].Available.Equal(decimal.RequireFromString("15")) {
		t.Errorf("expected unallocated 15, got %s", adjs[0].Available)
	}
	if !adjs[1].Available.Equal(decimal.Zero) {
		t.Errorf("expected target 0, got %s", adjs[1].Available)
	}
}

func TestAssignmentDelete(t *testing.T) {
	adjs := AssignmentDelete(category("unallocated", "50"), category("groceries", "50"), decimal.RequireFromString("50"))
	if !adjs[0].Available.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected unallocated 100, got %s", adjs[0].Available)
	}
	if !adjs[1].Available.Equal(decimal.Zero) {
		t.Errorf("expected target 0, got %s", adjs[1].Available)
	}
}

func TestAdjustmentsDoNotDrift(t *testing.T) {
	// Repeated application of cent-sized amounts must stay exact.
	c := category("groceries", "0")
	amount := decimal.RequireFromString("0.01")
	for i := 0; i < 10000; i++ {
		adjs := TransactionCreate(c, amount)
		c.Available = adjs[0].Available
	}
	if !c.Available.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected 100 after 10000 cents, got %s", c.Available)
	}
}
