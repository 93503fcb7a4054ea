// Package report aggregates entries over a period into totals, category
// breakdowns, monthly trends and top operations.
package report

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
)

// ErrNoData means no entry falls within the requested period.
var ErrNoData = errors.New("no entries in period")

// TopN is the length of the top operation lists.
const TopN = 5

// categoryThreshold hides categories whose sum is negligible.
var categoryThreshold = decimal.NewFromInt(1)

// Totals sums one set of entries.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

func (t *Totals) add(e model.Entry) {
	switch e.Kind {
	case model.KindIncome:
		t.Income = t.Income.Add(e.Amount)
	case model.KindExpense:
		t.Expense = t.Expense.Add(e.Amount)
	}
	t.Balance = t.Income.Sub(t.Expense)
}

// Line is a labelled amount.
type Line struct {
	Label  string
	Amount decimal.Decimal
}

// MonthTotals are the totals of one calendar month.
type MonthTotals struct {
	Period model.YearMonth
	Totals
}

// Report is the aggregate over a period.
type Report struct {
	Range   periods.Range
	Entries int
	Totals  Totals

	IncomeByCategory  []Line
	ExpenseByCategory []Line
	Months            []MonthTotals
	TopIncome         []Line
	TopExpense        []Line
}

// Filter keeps the entries dated within rng, both boundary months included.
func Filter(rng periods.Range, entries []model.Entry) []model.Entry {
	var out []model.Entry
	for _, e := range entries {
		if rng.Contains(e.Period()) {
			out = append(out, e)
		}
	}
	return out
}

// Build aggregates the entries of rng. It returns ErrNoData when none match.
func Build(rng periods.Range, entries []model.Entry) (Report, error) {
	entries = Filter(rng, entries)
	if len(entries) == 0 {
		return Report{}, ErrNoData
	}

	r := Report{Range: rng, Entries: len(entries)}

	incomeCat := make(map[string]decimal.Decimal)
	expenseCat := make(map[string]decimal.Decimal)
	incomeDesc := make(map[string]decimal.Decimal)
	expenseDesc := make(map[string]decimal.Decimal)
	months := make(map[model.YearMonth]*MonthTotals)

	for _, e := range entries {
		r.Totals.add(e)

		m, ok := months[e.Period()]
		if !ok {
			m = &MonthTotals{Period: e.Period()}
			months[e.Period()] = m
		}
		m.add(e)

		switch e.Kind {
		case model.KindIncome:
			incomeCat[e.Category] = incomeCat[e.Category].Add(e.Amount)
			incomeDesc[e.Description] = incomeDesc[e.Description].Add(e.Amount)
		case model.KindExpense:
			expenseCat[e.Category] = expenseCat[e.Category].Add(e.Amount)
			expenseDesc[e.Description] = expenseDesc[e.Description].Add(e.Amount)
		}
	}

	r.IncomeByCategory = aboveThreshold(sortedLines(incomeCat))
	r.ExpenseByCategory = aboveThreshold(sortedLines(expenseCat))
	r.TopIncome = top(sortedLines(incomeDesc), TopN)
	r.TopExpense = top(sortedLines(expenseDesc), TopN)

	for _, m := range months {
		r.Months = append(r.Months, *m)
	}
	sort.Slice(r.Months, func(i, j int) bool { return r.Months[i].Period.Before(r.Months[j].Period) })

	return r, nil
}

// sortedLines orders by amount descending, then label.
func sortedLines(sums map[string]decimal.Decimal) []Line {
	lines := make([]Line, 0, len(sums))
	for label, amount := range sums {
		lines = append(lines, Line{Label: label, Amount: amount})
	}
	sort.Slice(lines, func(i, j int) bool {
		if c := lines[i].Amount.Cmp(lines[j].Amount); c != 0 {
			return c > 0
		}
		return lines[i].Label < lines[j].Label
	})
	return lines
}

func aboveThreshold(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		if l.Amount.GreaterThan(categoryThreshold) {
			out = append(out, l)
		}
	}
	return out
}

func top(lines []Line, n int) []Line {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
