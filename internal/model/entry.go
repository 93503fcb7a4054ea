package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of money flow; the values are the persisted "Тип" column.
type Kind string

const (
	KindIncome  Kind = "доход"
	KindExpense Kind = "расход"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Status classifies an entry as recurring/passive or active; the values are the
// persisted "Статус" column. StatusUnspecified is written as an empty cell.
type Status string

const (
	StatusActive      Status = "активный"
	StatusPassive     Status = "пассивный"
	StatusUnspecified Status = ""
)

// Valid reports whether s may be persisted.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusPassive || s == StatusUnspecified
}

// Entry is a single row in a monthly partition.
type Entry struct {
	Date        time.Time       // day precision
	Category    string          // catalog key, e.g. "зарплата"
	Amount      decimal.Decimal // always positive; Kind carries the sign
	Kind        Kind
	Description string
	Status      Status // derived from Kind and Category, never entered by the user
}

// Period returns the month the entry belongs to.
func (e Entry) Period() YearMonth {
	return YearMonthOf(e.Date)
}
