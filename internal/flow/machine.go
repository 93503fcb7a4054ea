package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
	"github.com/tablemoney/moneybot/internal/session"
)

// definition is the step table of one flow.
type definition struct {
	flow     session.Flow
	kind     model.Kind // entry flows
	periodic bool
	empty    string // sent when a periodic flow finds no data
	steps    []step
}

func (d *definition) index(id session.Step) int {
	for i, s := range d.steps {
		if s.id == id {
			return i
		}
	}
	return -1
}

type step struct {
	id session.Step
	// ask builds the question for the current selection. A non-empty auto
	// answers the step without asking.
	ask func(st *state) question
	// accept validates input and writes it into st.sel. It returns a
	// *ledger.ValidationError for bad input and leaves st.sel untouched then.
	accept func(st *state, input string) error
	// invalid is sent before re-asking after a rejected answer.
	invalid string
	// buttons marks steps answered from a choice list.
	buttons bool
}

type question struct {
	text    string
	choices []Choice
	auto    string
}

// state is what the steps see while one event is handled.
type state struct {
	c   *Controller
	def *definition
	sel *session.Selection
	idx periods.Index
}

func (c *Controller) begin(ctx context.Context, out Responder, ev Event, f session.Flow) error {
	def := c.flows[f]
	st := &state{c: c, def: def, sel: &session.Selection{Flow: f}}

	if def.periodic {
		idx, ok, err := c.loadIndex(ctx, out, ev, def)
		if !ok {
			return err
		}
		st.idx = idx
	}

	sel := c.sessions.Start(ev.UserID, f, def.steps[0].id)
	st.sel = &sel
	c.log.Debug().Int64("user", ev.UserID).Str("flow", string(f)).Msg("flow started")
	return c.advance(ctx, out, ev, st, 0)
}

// loadIndex reports ok=false when the flow cannot go on; the user has then
// been told why.
func (c *Controller) loadIndex(ctx context.Context, out Responder, ev Event, def *definition) (periods.Index, bool, error) {
	idx, err := c.periods.Available()
	if err != nil {
		c.log.Error().Err(err).Msg("scanning periods")
		return nil, false, out.Text(ctx, ev.ChatID, msgTryLater)
	}
	if idx.Empty() {
		c.sessions.Clear(ev.UserID, def.flow)
		return nil, false, out.Text(ctx, ev.ChatID, def.empty)
	}
	return idx, true, nil
}

func (c *Controller) answer(ctx context.Context, out Responder, ev Event, sel session.Selection, input string) error {
	def := c.flows[sel.Flow]
	st := &state{c: c, def: def, sel: &sel}

	if def.periodic {
		idx, ok, err := c.loadIndex(ctx, out, ev, def)
		if !ok {
			return err
		}
		st.idx = idx
	}

	i := def.index(sel.Step)
	if i < 0 {
		return out.Text(ctx, ev.ChatID, msgStale)
	}
	s := def.steps[i]

	if err := s.accept(st, input); err != nil {
		var verr *ledger.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		c.log.Warn().
			Int64("user", ev.UserID).
			Str("flow", string(def.flow)).
			Str("field", verr.Field).
			Str("reason", verr.Reason).
			Msg("input rejected")
		q := s.ask(st)
		if !s.buttons {
			q.choices = nil
		}
		return out.Prompt(ctx, ev.ChatID, s.invalid, q.choices)
	}
	return c.advance(ctx, out, ev, st, i+1)
}

// advance asks the first step from `from` on that needs the user, storing the
// selection at that step, or runs the terminal action when none is left.
func (c *Controller) advance(ctx context.Context, out Responder, ev Event, st *state, from int) error {
	for i := from; i < len(st.def.steps); i++ {
		s := st.def.steps[i]
		q := s.ask(st)

		if q.auto != "" {
			if err := s.accept(st, q.auto); err != nil {
				return fmt.Errorf("auto answer %s for %s: %w", q.auto, s.id, err)
			}
			c.log.Debug().Str("step", string(s.id)).Str("value", q.auto).Msg("step auto-selected")
			continue
		}
		if s.buttons && len(q.choices) == 0 {
			// The data changed under the flow.
			c.sessions.Clear(ev.UserID, st.def.flow)
			return out.Text(ctx, ev.ChatID, st.def.empty)
		}

		st.sel.Step = s.id
		c.sessions.Put(ev.UserID, *st.sel)
		return out.Prompt(ctx, ev.ChatID, q.text, q.choices)
	}
	return c.finish(ctx, out, ev, st)
}

func (c *Controller) finish(ctx context.Context, out Responder, ev Event, st *state) error {
	var err error
	if st.def.periodic {
		err = c.finishPeriod(ctx, out, ev, st)
	} else {
		err = c.finishEntry(ctx, out, ev, st)
	}
	if err == nil {
		return nil
	}

	log := c.log.With().Int64("user", ev.UserID).Str("flow", string(st.def.flow)).Logger()
	last := st.def.steps[len(st.def.steps)-1]
	var verr *ledger.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		log.Info().Msg("no data for chosen period")
		c.sessions.Clear(ev.UserID, st.def.flow)
		return out.Text(ctx, ev.ChatID, msgNoPeriodData)
	case errors.As(err, &verr):
		log.Warn().Err(err).Msg("terminal action rejected entry")
		st.sel.Step = last.id
		c.sessions.Put(ev.UserID, *st.sel)
		return out.Text(ctx, ev.ChatID, last.invalid)
	default:
		// Keep what was collected so repeating the last answer retries.
		log.Error().Err(err).Msg("terminal action failed")
		st.sel.Step = last.id
		c.sessions.Put(ev.UserID, *st.sel)
		return out.Text(ctx, ev.ChatID, msgTryLater)
	}
}

func (c *Controller) finishEntry(ctx context.Context, out Responder, ev Event, st *state) error {
	e := model.Entry{
		Date:        c.now(),
		Category:    st.sel.Category,
		Amount:      st.sel.Amount,
		Kind:        st.def.kind,
		Description: st.sel.Description,
		Status:      st.sel.Status,
	}
	if err := c.recorder.Record(ctx, ev.UserID, e); err != nil {
		return err
	}
	c.sessions.Clear(ev.UserID, st.def.flow)

	msg := msgIncomeSaved
	if e.Kind == model.KindExpense {
		msg = msgExpenseSaved
	}
	return out.Text(ctx, ev.ChatID, fmt.Sprintf(msg, st.categoryLabel(), e.Amount.StringFixed(2)))
}

func (c *Controller) finishPeriod(ctx context.Context, out Responder, ev Event, st *state) error {
	rng, err := periods.NewRange(st.sel.Start(), st.sel.End())
	if err != nil {
		return &ledger.ValidationError{Field: "period", Value: st.sel.End().String(), Reason: err.Error()}
	}

	action, notice := c.report, msgReporting
	if st.def.flow == session.FlowExport {
		action, notice = c.export, msgExporting
	}
	if err := out.Text(ctx, ev.ChatID, fmt.Sprintf(notice, rng.Label())); err != nil {
		return err
	}
	if err := action.Run(ctx, PeriodRequest{UserID: ev.UserID, ChatID: ev.ChatID, Range: rng, Out: out}); err != nil {
		return err
	}
	c.sessions.Clear(ev.UserID, st.def.flow)
	c.log.Info().Int64("user", ev.UserID).Str("flow", string(st.def.flow)).Str("range", rng.Code()).Msg("period flow done")

	if st.def.flow == session.FlowReport && c.insights != nil {
		more := Choice{Label: labelInsights, Payload: Payload{Flow: session.FlowReport, Step: session.StepInsights, Value: rng.Code()}}
		return out.Prompt(ctx, ev.ChatID, msgMoreReports, []Choice{more})
	}
	return nil
}

func (c *Controller) runInsights(ctx context.Context, out Responder, ev Event, code string) error {
	rng, err := periods.ParseCode(code)
	if err != nil || c.insights == nil {
		return out.Text(ctx, ev.ChatID, msgStale)
	}
	err = c.insights.Run(ctx, PeriodRequest{UserID: ev.UserID, ChatID: ev.ChatID, Range: rng, Out: out})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return out.Text(ctx, ev.ChatID, msgNoPeriodData)
	default:
		c.log.Error().Err(err).Str("range", code).Msg("insights failed")
		return out.Text(ctx, ev.ChatID, msgTryLater)
	}
}

func (st *state) categoryLabel() string {
	if cat, ok := st.c.catalog.Lookup(st.def.kind, st.sel.Category); ok {
		return cat.Label
	}
	return st.sel.Category
}
