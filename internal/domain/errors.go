package domain

import "errors"

// Domain errors. Handlers map these onto the HTTP error taxonomy:
// validation -> 400, not found -> 404, forbidden -> 403, conflict -> 409,
// anything else -> 500.
var (
	// Validation
	ErrInvalidEmail        = errors.New("email must contain @")
	ErrInvalidBudgetPeriod = errors.New("budget period must be monthly or bi-weekly")
	ErrNameRequired        = errors.New("name is required")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrZeroAssignment      = errors.New("assignment amount cannot be zero")
	ErrNegativeGoal        = errors.New("goal amount cannot be negative")
	ErrNegativeSortOrder   = errors.New("sort order cannot be negative")
	ErrUserIDRequired      = errors.New("user id is required")
	ErrSelfAssignment      = errors.New("cannot assign funds to the unallocated funds category")

	// Not found
	ErrUserNotFound          = errors.New("user not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrCategoryGroupNotFound = errors.New("category group not found")
	ErrPlaidItemNotFound     = errors.New("plaid item not found")
	// ErrUnallocatedNotFound signals a broken user: every user is created
	// together with exactly one unallocated funds category.
	ErrUnallocatedNotFound = errors.New("unallocated funds category not found")

	// Forbidden
	ErrForbidden = errors.New("resource does not belong to user")

	// Conflict
	ErrUserAlreadyExists       = errors.New("user already exists")
	ErrCategoryHasTransactions = errors.New("category has associated transactions")
	ErrCategoryHasAssignments  = errors.New("category has associated assignments")
	ErrCategoryBalanceNonZero  = errors.New("category balance is not zero")
	ErrUnallocatedImmutable    = errors.New("unallocated funds category cannot be deleted")
)

var validationErrs = []error{
	ErrInvalidEmail, ErrInvalidBudgetPeriod, ErrNameRequired, ErrInvalidDate,
	ErrZeroAssignment, ErrNegativeGoal, ErrNegativeSortOrder, ErrUserIDRequired,
	ErrSelfAssignment,
}

var notFoundErrs = []error{
	ErrUserNotFound, ErrCategoryNotFound, ErrTransactionNotFound,
	ErrCategoryGroupNotFound, ErrPlaidItemNotFound, ErrUnallocatedNotFound,
}

var conflictErrs = []error{
	ErrUserAlreadyExists, ErrCategoryHasTransactions,
	ErrCategoryHasAssignments, ErrCategoryBalanceNonZero, ErrUnallocatedImmutable,
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a malformed-input error.
func IsValidation(err error) bool { return matchesAny(err, validationErrs) }

// IsNotFound reports whether err is a missing-resource error.
func IsNotFound(err error) bool { return matchesAny(err, notFoundErrs) }

// IsConflict reports whether err is a structural-invariant violation.
func IsConflict(err error) bool { return matchesAny(err, conflictErrs) }
