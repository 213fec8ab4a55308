package service

import (
	"context"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultAuditTolerance is the absolute discrepancy below which a stored
// balance is considered correct. Balances are kept in exact decimal, so in
// practice any nonzero discrepancy indicates a bug; the tolerance only
// absorbs data written by older float-based revisions.
var DefaultAuditTolerance = decimal.RequireFromString("0.01")

// AuditService recomputes category balances from the full transaction and
// assignment history and reports discrepancies. It is the executable
// definition of the balance invariant: regular categories must hold the sum
// of assignments in plus transactions in, the unallocated funds category the
// sum of its transactions minus every assignment of the user.
type AuditService struct {
	store     ledger.Store
	tolerance decimal.Decimal
}

// NewAuditService creates a new AuditService. A non-positive tolerance
// falls back to DefaultAuditTolerance.
func NewAuditService(store ledger.Store, tolerance decimal.Decimal) *AuditService {
	if tolerance.Sign() <= 0 {
		tolerance = DefaultAuditTolerance
	}
	return &AuditService{store: store, tolerance: tolerance}
}

// Finding describes one category whose stored balance disagrees with the
// recomputed one beyond tolerance.
type Finding struct {
	CategoryID         string          `json:"categoryId"`
	CategoryName       string          `json:"categoryName"`
	IsUnallocatedFunds bool            `json:"isUnallocatedFunds"`
	Stored             decimal.Decimal `json:"stored"`
	Expected           decimal.Decimal `json:"expected"`
	Discrepancy        decimal.Decimal `json:"discrepancy"`
	TransactionsIn     decimal.Decimal `json:"transactionsIn"`
	AssignmentsIn      decimal.Decimal `json:"assignmentsIn"`
}

// UserReport is the audit result for one user.
type UserReport struct {
	UserID            string    `json:"userId"`
	CategoriesChecked int       `json:"categoriesChecked"`
	Findings          []Finding `json:"findings,omitempty"`
	Passed            bool      `json:"passed"`
}

// Report is the aggregate result of an audit run.
type Report struct {
	GeneratedAt       time.Time       `json:"generatedAt"`
	Tolerance         decimal.Decimal `json:"tolerance"`
	UsersChecked      int             `json:"usersChecked"`
	CategoriesChecked int             `json:"categoriesChecked"`
	Users             []UserReport    `json:"users"`
	Passed            bool            `json:"passed"`
}

// AuditUser recomputes every category balance of one user.
func (s *AuditService) AuditUser(ctx context.Context, userID string) (*UserReport, error) {
	if _, err := getUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	categories, err := s.userDocs(ctx, domain.CollectionCategories, userID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.userDocs(ctx, domain.CollectionTransactions, userID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.userDocs(ctx, domain.CollectionAssignments, userID)
	if err != nil {
		return nil, err
	}

	// Sum contributions per category in one pass over each history.
	txIn := make(map[string]decimal.Decimal)
	for _, d := range transactions {
		tx, err := domain.TransactionFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		if tx.CategoryID == nil {
			continue
		}
		txIn[*tx.CategoryID] = txIn[*tx.CategoryID].Add(tx.Amount)
	}
	assignIn := make(map[string]decimal.Decimal)
	assignTotal := decimal.Zero
	for _, d := range assignments {
		a, err := domain.AssignmentFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		assignIn[a.CategoryID] = assignIn[a.CategoryID].Add(a.Amount)
		assignTotal = assignTotal.Add(a.Amount)
	}

	report := &UserReport{UserID: userID, CategoriesChecked: len(categories), Passed: true}
	for _, d := range categories {
		c, err := domain.CategoryFromDoc(d.ID, d.Data)
		if err != nil {
			return nil, err
		}

		var expected decimal.Decimal
		if c.IsUnallocatedFunds {
			expected = txIn[c.ID].Sub(assignTotal)
		} else {
			expected = assignIn[c.ID].Add(txIn[c.ID])
		}

		discrepancy := c.Available.Sub(expected)
		if discrepancy.Abs().Cmp(s.tolerance) <= 0 {
			continue
		}

		report.Passed = false
		report.Findings = append(report.Findings, Finding{
			CategoryID:         c.ID,
			CategoryName:       c.Name,
			IsUnallocatedFunds: c.IsUnallocatedFunds,
			Stored:             c.Available,
			Expected:           expected,
			Discrepancy:        discrepancy,
			TransactionsIn:     txIn[c.ID],
			AssignmentsIn:      assignIn[c.ID],
		})
		log.Warn().
			Str("user_id", userID).
			Str("category_id", c.ID).
			Str("stored", c.Available.String()).
			Str("expected", expected.String()).
			Msg("Balance discrepancy detected")
	}
	return report, nil
}

// AuditAll audits every user in the store.
func (s *AuditService) AuditAll(ctx context.Context) (*Report, error) {
	users, err := s.store.Query(ctx, ledger.Query{Collection: domain.CollectionUsers})
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:  time.Now().UTC(),
		Tolerance:    s.tolerance,
		UsersChecked: len(users),
		Passed:       true,
	}
	for _, u := range users {
		ur, err := s.AuditUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		report.CategoriesChecked += ur.CategoriesChecked
		report.Users = append(report.Users, *ur)
		if !ur.Passed {
			report.Passed = false
		}
	}
	return report, nil
}

func (s *AuditService) userDocs(ctx context.Context, collection, userID string) ([]ledger.Doc, error) {
	return s.store.Query(ctx, ledger.Query{
		Collection: collection,
	}.Where("user_id", ledger.OpEqual, userID))
}
