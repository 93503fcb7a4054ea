package report

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxMessageLen keeps chat messages under the platform limit of 4096.
const MaxMessageLen = 4000

// Money renders d with two decimals and comma thousands grouping: 1,500.50.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// SummaryHTML is the totals section.
func SummaryHTML(r Report) string {
	return fmt.Sprintf("📊 <b>Сводный отчет за период %s:</b>\n"+
		"💰 Доход: <b>%s</b> р.\n"+
		"💸 Расход: <b>%s</b> р.\n"+
		"🔍 Баланс: <b>%s</b> р.",
		html.EscapeString(r.Range.Label()), Money(r.Totals.Income), Money(r.Totals.Expense), Money(r.Totals.Balance))
}

// CategoriesHTML is the per-category section.
func CategoriesHTML(r Report) string {
	var b strings.Builder
	b.WriteString("<b>📂 Отчет по категориям:</b>\n")
	writeLines(&b, "<b>Доход:</b>\n", "  • ", r.IncomeByCategory, " р.")
	writeLines(&b, "<b>Расход:</b>\n", "  • ", r.ExpenseByCategory, " р.")
	return strings.TrimRight(b.String(), "\n")
}

// MonthsHTML is the monthly trend section.
func MonthsHTML(r Report) string {
	var b strings.Builder
	b.WriteString("<b>📈 Динамика по месяцам:</b>\n")
	for _, m := range r.Months {
		fmt.Fprintf(&b, "• <b>%s</b>:\n    Доход: <b>%s</b> р.\n    Расход: <b>%s</b> р.\n    Баланс: <b>%s</b> р.\n",
			m.Period, Money(m.Income), Money(m.Expense), Money(m.Balance))
	}
	return strings.TrimRight(b.String(), "\n")
}

// TopHTML lists the largest operations of one kind.
func TopHTML(title string, lines []Line) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📋 %s:</b>\n", html.EscapeString(title))
	if len(lines) == 0 {
		b.WriteString("• нет операций\n")
	}
	writeLines(&b, "", "• ", lines, " р.")
	return strings.TrimRight(b.String(), "\n")
}

// SavingsHTML is the savings section of the insights.
func SavingsHTML(in Insights) string {
	return fmt.Sprintf("💰 <b>Коэффициент Сбережений:</b>\n"+
		"• Сбережения: <b>%s</b> р.\n"+
		"• Коэффициент Сбережений: <b>%s%%</b>.",
		Money(in.Savings), in.SavingsRate.StringFixed(2))
}

// ExpenseRatiosHTML lists expense categories as shares of income.
func ExpenseRatiosHTML(in Insights) string {
	var b strings.Builder
	b.WriteString("<b>📊 Коэффициент Расходов по Категориям:</b>\n")
	if len(in.ExpenseRatios) == 0 {
		b.WriteString("• нет доходов за период\n")
	}
	for _, l := range in.ExpenseRatios {
		fmt.Fprintf(&b, "• %s: <b>%s%%</b>\n", html.EscapeString(l.Label), l.Amount.StringFixed(2))
	}
	return strings.TrimRight(b.String(), "\n")
}

// DailyHTML is the daily cash flow section.
func DailyHTML(in Insights) string {
	var b strings.Builder
	b.WriteString("📅 <b>Ежедневный Cash Flow:</b>\n")
	for _, d := range in.Daily {
		fmt.Fprintf(&b, "• <b>%s</b>:\n    Доход: <b>%s</b> р.\n    Расход: <b>%s</b> р.\n    Баланс: <b>%s</b> р.\n",
			d.Date.Format("02.01.2006"), Money(d.Income), Money(d.Expense), Money(d.Balance))
	}
	return strings.TrimRight(b.String(), "\n")
}

// UnusualHTML lists the expense categories above the threshold.
func UnusualHTML(in Insights) string {
	if len(in.Unusual) == 0 {
		return "<b>✅ Не обнаружено необычных расходов.</b>"
	}
	var b strings.Builder
	b.WriteString("<b>⚠️ Необычные Расходы:</b>\n")
	writeLines(&b, "", "• ", in.Unusual, " р. (Превышение порога)")
	return strings.TrimRight(b.String(), "\n")
}

func writeLines(b *strings.Builder, heading, bullet string, lines []Line, suffix string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(heading)
	for _, l := range lines {
		fmt.Fprintf(b, "%s%s: <b>%s</b>%s\n", bullet, html.EscapeString(l.Label), Money(l.Amount), suffix)
	}
}

// Split cuts text at line boundaries into chunks of at most limit bytes.
// A single longer line is cut on a rune boundary outside any HTML tag or
// entity.
func Split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var (
		chunks []string
		cur    strings.Builder
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line) > limit && cur.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
		for len(line) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			cut = markupSafe(line, cut)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
	}
	return chunks
}

// markupSafe moves cut back before a tag or entity that would be left open.
func markupSafe(line string, cut int) int {
	i := strings.LastIndexAny(line[:cut], "<&")
	if i <= 0 {
		return cut
	}
	closer := ">"
	if line[i] == '&' {
		closer = ";"
	}
	if strings.Contains(line[i:cut], closer) {
		return cut
	}
	return i
}
