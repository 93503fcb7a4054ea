package report

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Output delivers report sections to a chat.
type Output interface {
	Text(ctx context.Context, chatID int64, text string) error
	Photo(ctx context.Context, chatID int64, name string, png []byte, caption string) error
}

type section struct {
	name  string
	chart func() ([]byte, error)
	texts []string
}

// SendReport delivers r section by section, chart first. A chart that cannot
// be drawn is logged and its text still goes out.
func SendReport(ctx context.Context, out Output, chatID int64, r Report, log zerolog.Logger) error {
	return send(ctx, out, chatID, log, []section{
		{"summary", func() ([]byte, error) { return SummaryChart(r) }, []string{SummaryHTML(r)}},
		{"categories", func() ([]byte, error) { return CategoryChart(r) }, []string{CategoriesHTML(r)}},
		{"monthly", func() ([]byte, error) { return MonthlyChart(r) }, []string{MonthsHTML(r)}},
		{"top", func() ([]byte, error) { return TopChart(r) }, []string{
			TopHTML("Топ-5 расходов", r.TopExpense),
			TopHTML("Топ-5 доходов", r.TopIncome),
		}},
	})
}

// SendInsights delivers the additional analytics.
func SendInsights(ctx context.Context, out Output, chatID int64, in Insights, log zerolog.Logger) error {
	return send(ctx, out, chatID, log, []section{
		{"savings", func() ([]byte, error) { return SavingsChart(in) }, []string{SavingsHTML(in)}},
		{"expense_ratio", func() ([]byte, error) { return ExpenseRatioChart(in) }, []string{ExpenseRatiosHTML(in)}},
		{"daily_cash_flow", func() ([]byte, error) { return DailyChart(in) }, []string{DailyHTML(in)}},
		{"unusual_expenses", func() ([]byte, error) { return UnusualChart(in) }, []string{UnusualHTML(in)}},
	})
}

func send(ctx context.Context, out Output, chatID int64, log zerolog.Logger, sections []section) error {
	for _, s := range sections {
		png, err := s.chart()
		switch {
		case errors.Is(err, ErrNoChart):
			log.Debug().Str("chart", s.name).Msg("chart skipped")
		case err != nil:
			log.Warn().Err(err).Str("chart", s.name).Msg("chart failed")
		default:
			if err := out.Photo(ctx, chatID, s.name+".png", png, ""); err != nil {
				return err
			}
		}

		for _, text := range s.texts {
			for _, chunk := range Split(text, MaxMessageLen) {
				if err := out.Text(ctx, chatID, chunk); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
