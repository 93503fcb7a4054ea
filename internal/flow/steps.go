package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
	"github.com/tablemoney/moneybot/internal/session"
)

func entryFlow(f session.Flow, kind model.Kind) *definition {
	return &definition{
		flow: f,
		kind: kind,
		steps: []step{
			categoryStep(f, kind),
			amountStep(kind),
			descriptionStep(),
		},
	}
}

func periodFlow(f session.Flow, empty string) *definition {
	return &definition{
		flow:     f,
		periodic: true,
		empty:    empty,
		steps: []step{
			startYearStep(f),
			startMonthStep(f),
			endYearStep(f),
			endMonthStep(f),
		},
	}
}

func categoryStep(f session.Flow, kind model.Kind) step {
	text := msgIncomeCategory
	if kind == model.KindExpense {
		text = msgExpenseCategory
	}
	return step{
		id:      session.StepCategory,
		buttons: true,
		invalid: msgUnknownCategory,
		ask: func(st *state) question {
			q := question{text: text}
			for _, cat := range st.c.catalog.ByKind(kind) {
				q.choices = append(q.choices, Choice{
					Label:   cat.Label,
					Payload: Payload{Flow: f, Step: session.StepCategory, Value: cat.Key},
				})
			}
			return q
		},
		accept: func(st *state, input string) error {
			cat, ok := st.c.catalog.Lookup(kind, input)
			if !ok {
				return &ledger.ValidationError{Field: "category", Value: input, Reason: "not in catalog"}
			}
			st.sel.Category = cat.Key
			st.sel.Status = cat.Status
			return nil
		},
	}
}

func amountStep(kind model.Kind) step {
	text := msgIncomeAmount
	if kind == model.KindExpense {
		text = msgExpenseAmount
	}
	return step{
		id:      session.StepAmount,
		invalid: msgBadAmount,
		ask: func(st *state) question {
			return question{text: fmt.Sprintf(text, st.categoryLabel())}
		},
		accept: func(st *state, input string) error {
			amount, err := ledger.ParseAmount(input)
			if err != nil {
				return err
			}
			st.sel.Amount = amount
			return nil
		},
	}
}

func descriptionStep() step {
	return step{
		id:      session.StepDescription,
		invalid: msgEmptyDesc,
		ask: func(*state) question {
			return question{text: msgDescription}
		},
		accept: func(st *state, input string) error {
			desc := strings.TrimSpace(input)
			if desc == "" {
				return &ledger.ValidationError{Field: "description", Value: input, Reason: "empty"}
			}
			st.sel.Description = desc
			return nil
		},
	}
}

func startYearStep(f session.Flow) step {
	return step{
		id:      session.StepStartYear,
		buttons: true,
		invalid: msgNoYear,
		ask: func(st *state) question {
			return yearQuestion(f, session.StepStartYear, msgStartYear, st.idx.Years())
		},
		accept: func(st *state, input string) error {
			y, err := parseYear(input)
			if err != nil || !st.idx.HasYear(y) {
				return &ledger.ValidationError{Field: "start year", Value: input, Reason: "no data"}
			}
			st.sel.StartYear = y
			return nil
		},
	}
}

func startMonthStep(f session.Flow) step {
	return step{
		id:      session.StepStartMonth,
		buttons: true,
		invalid: msgNoMonth,
		ask: func(st *state) question {
			text := fmt.Sprintf(msgStartMonth, st.sel.StartYear)
			return monthQuestion(f, session.StepStartMonth, text, st.idx.Months(st.sel.StartYear))
		},
		accept: func(st *state, input string) error {
			m, err := parseMonth(input)
			if err != nil || !st.idx.Has(model.YearMonth{Year: st.sel.StartYear, Month: m}) {
				return &ledger.ValidationError{Field: "start month", Value: input, Reason: "no data"}
			}
			st.sel.StartMonth = m
			return nil
		},
	}
}

func endYearStep(f session.Flow) step {
	return step{
		id:      session.StepEndYear,
		buttons: true,
		invalid: msgBadRange,
		ask: func(st *state) question {
			text := fmt.Sprintf(msgEndYear, int(st.sel.StartMonth), st.sel.StartYear)
			return yearQuestion(f, session.StepEndYear, text, st.idx.YearsFrom(st.sel.StartYear))
		},
		accept: func(st *state, input string) error {
			y, err := parseYear(input)
			if err != nil || y < st.sel.StartYear || !st.idx.HasYear(y) {
				return &ledger.ValidationError{Field: "end year", Value: input, Reason: "no data or before start"}
			}
			st.sel.EndYear = y
			return nil
		},
	}
}

func endMonthStep(f session.Flow) step {
	return step{
		id:      session.StepEndMonth,
		buttons: true,
		invalid: msgBadRange,
		ask: func(st *state) question {
			text := fmt.Sprintf(msgEndMonth, int(st.sel.StartMonth), st.sel.StartYear, st.sel.EndYear)
			return monthQuestion(f, session.StepEndMonth, text, st.idx.MonthsFrom(st.sel.EndYear, st.sel.Start()))
		},
		accept: func(st *state, input string) error {
			m, err := parseMonth(input)
			if err != nil {
				return &ledger.ValidationError{Field: "end month", Value: input, Reason: "not a month"}
			}
			for _, candidate := range st.idx.MonthsFrom(st.sel.EndYear, st.sel.Start()) {
				if candidate.Number == m {
					st.sel.EndMonth = m
					return nil
				}
			}
			return &ledger.ValidationError{Field: "end month", Value: input, Reason: "no data or before start"}
		},
	}
}

// yearQuestion answers itself when only one year is possible.
func yearQuestion(f session.Flow, id session.Step, text string, years []int) question {
	if len(years) == 1 {
		return question{auto: strconv.Itoa(years[0])}
	}
	q := question{text: text}
	for _, y := range years {
		v := strconv.Itoa(y)
		q.choices = append(q.choices, Choice{Label: v, Payload: Payload{Flow: f, Step: id, Value: v}})
	}
	return q
}

func monthQuestion(f session.Flow, id session.Step, text string, months []periods.Month) question {
	q := question{text: text}
	for _, m := range months {
		q.choices = append(q.choices, Choice{
			Label:   fmt.Sprintf("%s (%02d)", m.Label(), int(m.Number)),
			Payload: Payload{Flow: f, Step: id, Value: strconv.Itoa(int(m.Number))},
		})
	}
	return q
}

func parseYear(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseMonth(s string) (time.Month, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 12 {
		return 0, fmt.Errorf("month %d out of range", n)
	}
	return time.Month(n), nil
}
