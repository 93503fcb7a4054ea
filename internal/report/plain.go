package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// WritePlain prints r for a terminal. Colors follow color.NoColor.
func WritePlain(w io.Writer, r Report) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	balance := green
	if r.Totals.Balance.IsNegative() {
		balance = red
	}

	p := &printer{w: w}
	p.printf("%s\n", bold("Отчет: "+r.Range.Label()))
	p.printf("  Записей: %d\n", r.Entries)
	p.printf("  Доход:   %s\n", green(Money(r.Totals.Income)))
	p.printf("  Расход:  %s\n", red(Money(r.Totals.Expense)))
	p.printf("  Баланс:  %s\n", balance(Money(r.Totals.Balance)))

	p.section(bold("Доход по категориям"), r.IncomeByCategory)
	p.section(bold("Расход по категориям"), r.ExpenseByCategory)

	p.printf("\n%s\n", bold("По месяцам"))
	for _, m := range r.Months {
		p.printf("  %s  +%s  -%s  = %s\n", m.Period, Money(m.Income), Money(m.Expense), Money(m.Balance))
	}

	p.section(bold("Топ-5 расходов"), r.TopExpense)
	p.section(bold("Топ-5 доходов"), r.TopIncome)
	return p.err
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) section(title string, lines []Line) {
	if len(lines) == 0 {
		return
	}
	p.printf("\n%s\n", title)
	for _, l := range lines {
		p.printf("  %-20s %s\n", l.Label, Money(l.Amount))
	}
}
