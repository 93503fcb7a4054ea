package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tablemoney/moneybot/internal/model"
)

// ValidationError rejects an entry field before anything is written.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// MalformedPartitionError marks a partition file that does not match the
// expected schema. Readers skip such files as a whole.
type MalformedPartitionError struct {
	Name string
	Err  error
}

func (e *MalformedPartitionError) Error() string {
	return fmt.Sprintf("malformed partition %s: %v", e.Name, e.Err)
}

func (e *MalformedPartitionError) Unwrap() error { return e.Err }

// Normalize validates e and returns it in canonical form: the date truncated
// to the day, text trimmed, the amount rounded to kopecks.
func Normalize(e model.Entry) (model.Entry, error) {
	if e.Date.IsZero() {
		return model.Entry{}, &ValidationError{Field: "date", Reason: "missing"}
	}
	date := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)

	category := strings.TrimSpace(e.Category)
	if category == "" {
		return model.Entry{}, &ValidationError{Field: "category", Value: e.Category, Reason: "empty"}
	}

	amount := e.Amount.Round(2)
	if !amount.IsPositive() {
		return model.Entry{}, &ValidationError{Field: "amount", Value: e.Amount.String(), Reason: "must be positive"}
	}

	if !e.Kind.Valid() {
		return model.Entry{}, &ValidationError{Field: "kind", Value: string(e.Kind), Reason: "must be доход or расход"}
	}

	description := strings.TrimSpace(e.Description)
	if description == "" {
		return model.Entry{}, &ValidationError{Field: "description", Value: e.Description, Reason: "empty"}
	}

	if !e.Status.Valid() {
		return model.Entry{}, &ValidationError{Field: "status", Value: string(e.Status), Reason: "must be активный or пассивный"}
	}

	return model.Entry{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Kind:        e.Kind,
		Description: description,
		Status:      e.Status,
	}, nil
}

// ParseAmount reads a user-typed amount. Currency marks, spaces and other
// noise are dropped; a comma is a decimal separator unless a dot follows it.
func ParseAmount(text string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), ".,")
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "no digits"}
	}

	d, err := decimal.NewFromString(normalizeSeparators(s))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "not a number"}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "must be positive"}
	}
	return d, nil
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal point.
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	// Repeated dots group thousands: "1.500.000".
	if strings.Count(s, ".") > 1 {
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}
