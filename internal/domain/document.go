package domain

import (
	"fmt"
	"time"

	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-day encoding used on transactions and
// assignments. Lexicographic order equals chronological order, which the
// list queries rely on.
const DateFormat = "2006-01-02"

// Document field decoding helpers shared by the entity mappers. Amounts are
// stored as exact decimal strings and timestamps as RFC 3339 strings; both
// survive the JSON round trip losslessly.

func docString(doc ledger.Document, field string) (string, error) {
	v, ok := doc[field]
	if !ok {
		return "", fmt.Errorf("document missing field %q", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, want string", field, v)
	}
	return s, nil
}

func docOptString(doc ledger.Document, field string) *string {
	v, ok := doc[field]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func docBool(doc ledger.Document, field string) bool {
	b, _ := doc[field].(bool)
	return b
}

func docDecimal(doc ledger.Document, field string) (decimal.Decimal, error) {
	s, err := docString(doc, field)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("field %q: %w", field, err)
	}
	return d, nil
}

func docTime(doc ledger.Document, field string) (time.Time, error) {
	s, err := docString(doc, field)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", field, err)
	}
	return t, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
