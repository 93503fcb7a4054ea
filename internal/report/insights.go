package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
)

var hundred = decimal.NewFromInt(100)

// DayTotals are the totals of one calendar day.
type DayTotals struct {
	Date time.Time
	Totals
}

// Insights are the additional analytics offered after a report.
type Insights struct {
	Range   periods.Range
	Totals  Totals
	Savings decimal.Decimal
	// SavingsRate is a percentage of income; zero without income.
	SavingsRate decimal.Decimal
	// ExpenseRatios are expense category sums as a percentage of income,
	// empty without income.
	ExpenseRatios []Line
	Daily         []DayTotals
	// Unusual lists expense categories above Threshold, the mean plus two
	// sample standard deviations of all expense category sums.
	Unusual   []Line
	Threshold decimal.Decimal
	Expenses  []Line
}

// BuildInsights computes Insights over the entries of rng.
func BuildInsights(rng periods.Range, entries []model.Entry) (Insights, error) {
	entries = Filter(rng, entries)
	if len(entries) == 0 {
		return Insights{}, ErrNoData
	}

	in := Insights{Range: rng}
	expenseCat := make(map[string]decimal.Decimal)
	days := make(map[string]*DayTotals)

	for _, e := range entries {
		in.Totals.add(e)

		key := e.Date.Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &DayTotals{Date: e.Date}
			days[key] = d
		}
		d.add(e)

		if e.Kind == model.KindExpense {
			expenseCat[e.Category] = expenseCat[e.Category].Add(e.Amount)
		}
	}

	in.Savings = in.Totals.Balance
	in.Expenses = sortedLines(expenseCat)
	if in.Totals.Income.IsPositive() {
		in.SavingsRate = in.Savings.Mul(hundred).Div(in.Totals.Income).Round(2)
		for _, l := range in.Expenses {
			in.ExpenseRatios = append(in.ExpenseRatios, Line{
				Label:  l.Label,
				Amount: l.Amount.Mul(hundred).Div(in.Totals.Income).Round(2),
			})
		}
	}

	for _, d := range days {
		in.Daily = append(in.Daily, *d)
	}
	sort.Slice(in.Daily, func(i, j int) bool { return in.Daily[i].Date.Before(in.Daily[j].Date) })

	in.Threshold, in.Unusual = unusual(in.Expenses)
	return in, nil
}

// unusual needs at least two categories for a standard deviation.
func unusual(lines []Line) (decimal.Decimal, []Line) {
	if len(lines) < 2 {
		return decimal.Zero, nil
	}

	values := make([]float64, len(lines))
	var sum float64
	for i, l := range lines {
		values[i] = l.Amount.InexactFloat64()
		sum += values[i]
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(values)-1))
	threshold := decimal.NewFromFloat(mean + 2*std).Round(2)

	var out []Line
	for _, l := range lines {
		if l.Amount.GreaterThan(threshold) {
			out = append(out, l)
		}
	}
	return threshold, out
}
