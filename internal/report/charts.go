package report

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoChart means there is too little data to draw a meaningful chart.
var ErrNoChart = errors.New("not enough data for chart")

var (
	colorIncome  = drawing.ColorFromHex("2e7d32")
	colorExpense = drawing.ColorFromHex("c62828")
	colorBalance = drawing.ColorFromHex("1565c0")
	colorRatio   = drawing.ColorFromHex("ef6c00")
	colorSavings = drawing.ColorFromHex("fbc02d")
	colorNormal  = drawing.ColorFromHex("64b5f6")
)

const (
	chartWidth  = 800
	chartHeight = 480
)

// Chart is a rendered PNG with a file name for delivery.
type Chart struct {
	Name string
	PNG  []byte
}

func bar(label string, v float64, c drawing.Color) chart.Value {
	return chart.Value{
		Label: label,
		Value: v,
		Style: chart.Style{FillColor: c, StrokeColor: c},
	}
}

func renderBars(title string, bars []chart.Value) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoChart
	}
	graph := chart.BarChart{
		Title:        title,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		Width:        chartWidth,
		Height:       chartHeight,
		BarWidth:     barWidth(len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

func barWidth(n int) int {
	w := (chartWidth - 100) / (n * 2)
	if w > 80 {
		return 80
	}
	if w < 10 {
		return 10
	}
	return w
}

type line struct {
	name   string
	values []float64
	color  drawing.Color
}

func renderLines(title string, labels []string, lines ...line) ([]byte, error) {
	if len(labels) < 2 {
		return nil, ErrNoChart
	}

	xs := make([]float64, len(labels))
	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	graph := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{Ticks: ticks},
	}
	for _, l := range lines {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    l.name,
			XValues: xs,
			YValues: l.values,
			Style:   chart.Style{StrokeColor: l.color, StrokeWidth: 2},
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// SummaryChart draws income, expense and balance side by side.
func SummaryChart(r Report) ([]byte, error) {
	return renderBars("Сводный отчет", []chart.Value{
		bar("Доход", r.Totals.Income.InexactFloat64(), colorIncome),
		bar("Расход", r.Totals.Expense.InexactFloat64(), colorExpense),
		bar("Баланс", r.Totals.Balance.InexactFloat64(), colorBalance),
	})
}

// CategoryChart draws income categories in green and expense categories in red.
func CategoryChart(r Report) ([]byte, error) {
	var bars []chart.Value
	for _, l := range r.IncomeByCategory {
		bars = append(bars, bar(l.Label, l.Amount.InexactFloat64(), colorIncome))
	}
	for _, l := range r.ExpenseByCategory {
		bars = append(bars, bar(l.Label, l.Amount.InexactFloat64(), colorExpense))
	}
	return renderBars("Отчет по категориям", bars)
}

// MonthlyChart draws the monthly trend; it needs at least two months.
func MonthlyChart(r Report) ([]byte, error) {
	labels := make([]string, len(r.Months))
	income := make([]float64, len(r.Months))
	expense := make([]float64, len(r.Months))
	balance := make([]float64, len(r.Months))
	for i, m := range r.Months {
		labels[i] = m.Period.String()
		income[i] = m.Income.InexactFloat64()
		expense[i] = m.Expense.InexactFloat64()
		balance[i] = m.Balance.InexactFloat64()
	}
	return renderLines("Динамика по месяцам", labels,
		line{"Доход", income, colorIncome},
		line{"Расход", expense, colorExpense},
		line{"Баланс", balance, colorBalance},
	)
}

// TopChart draws the largest expenses.
func TopChart(r Report) ([]byte, error) {
	var bars []chart.Value
	for _, l := range r.TopExpense {
		bars = append(bars, bar(l.Label, l.Amount.InexactFloat64(), colorExpense))
	}
	return renderBars("Топ-5 расходов", bars)
}

// SavingsChart splits income into savings and expenses. It is drawn only
// when both parts are positive.
func SavingsChart(in Insights) ([]byte, error) {
	if !in.Savings.IsPositive() || !in.Totals.Expense.IsPositive() {
		return nil, ErrNoChart
	}
	graph := chart.PieChart{
		Title:  "Коэффициент сбережений",
		Width:  chartHeight,
		Height: chartHeight,
		Values: []chart.Value{
			bar("Сбережения", in.Savings.InexactFloat64(), colorSavings),
			bar("Расходы", in.Totals.Expense.InexactFloat64(), colorExpense),
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering savings: %w", err)
	}
	return buf.Bytes(), nil
}

// ExpenseRatioChart draws expense categories as a share of income.
func ExpenseRatioChart(in Insights) ([]byte, error) {
	var bars []chart.Value
	for _, l := range in.ExpenseRatios {
		bars = append(bars, bar(l.Label, l.Amount.InexactFloat64(), colorRatio))
	}
	return renderBars("Коэффициент расходов, %", bars)
}

// DailyChart draws the daily cash flow; it needs at least two days.
func DailyChart(in Insights) ([]byte, error) {
	labels := make([]string, len(in.Daily))
	balance := make([]float64, len(in.Daily))
	for i, d := range in.Daily {
		labels[i] = d.Date.Format("02.01")
		balance[i] = d.Balance.InexactFloat64()
	}
	return renderLines("Ежедневный Cash Flow", labels, line{"Баланс", balance, colorBalance})
}

// UnusualChart draws every expense category, flagging the unusual ones.
func UnusualChart(in Insights) ([]byte, error) {
	flagged := make(map[string]bool, len(in.Unusual))
	for _, l := range in.Unusual {
		flagged[l.Label] = true
	}
	var bars []chart.Value
	for _, l := range in.Expenses {
		c := colorNormal
		if flagged[l.Label] {
			c = colorExpense
		}
		bars = append(bars, bar(l.Label, l.Amount.InexactFloat64(), c))
	}
	return renderBars("Необычные расходы", bars)
}
