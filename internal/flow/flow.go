// Package flow drives the guided chat dialogues: entry capture for income
// and expenses, and period selection for reports and exports. Every flow is
// a table of steps walked by one Controller.
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/categories"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
	"github.com/tablemoney/moneybot/internal/session"
)

// ErrNotFound is returned by terminal actions when the chosen period has no
// data. Users see it as an informational message.
var ErrNotFound = errors.New("no data for period")

// Responder delivers output to a chat.
type Responder interface {
	// Prompt sends text with one button per choice. With no choices it is a
	// plain message.
	Prompt(ctx context.Context, chatID int64, text string, choices []Choice) error
	Text(ctx context.Context, chatID int64, text string) error
	File(ctx context.Context, chatID int64, path, caption string) error
	Photo(ctx context.Context, chatID int64, name string, png []byte, caption string) error
}

// Recorder persists a completed entry.
type Recorder interface {
	Record(ctx context.Context, userID int64, e model.Entry) error
}

// PeriodRequest is the input of a period terminal action.
type PeriodRequest struct {
	UserID int64
	ChatID int64
	Range  periods.Range
	Out    Responder
}

// PeriodAction is a terminal action over a period, such as a report.
type PeriodAction interface {
	Run(ctx context.Context, req PeriodRequest) error
}

// PeriodActionFunc adapts a function to PeriodAction.
type PeriodActionFunc func(ctx context.Context, req PeriodRequest) error

func (f PeriodActionFunc) Run(ctx context.Context, req PeriodRequest) error { return f(ctx, req) }

// PeriodSource reports which months have data.
type PeriodSource interface {
	Available() (periods.Index, error)
}

// PeriodSourceFunc adapts a function to PeriodSource.
type PeriodSourceFunc func() (periods.Index, error)

func (f PeriodSourceFunc) Available() (periods.Index, error) { return f() }

// Options configures a Controller.
type Options struct {
	Sessions *session.Store
	Catalog  *categories.Catalog
	Periods  PeriodSource
	Recorder Recorder

	Report   PeriodAction
	Insights PeriodAction // optional
	Export   PeriodAction

	// AllowedUsers restricts the bot to these ids; empty allows everyone.
	AllowedUsers []int64

	Now    func() time.Time
	Logger zerolog.Logger
}

// Controller routes events through the flow tables.
type Controller struct {
	sessions *session.Store
	catalog  *categories.Catalog
	periods  PeriodSource
	recorder Recorder
	report   PeriodAction
	insights PeriodAction
	export   PeriodAction
	allowed  map[int64]bool
	now      func() time.Time
	log      zerolog.Logger

	flows map[session.Flow]*definition
}

// New creates a Controller.
func New(opts Options) *Controller {
	c := &Controller{
		sessions: opts.Sessions,
		catalog:  opts.Catalog,
		periods:  opts.Periods,
		recorder: opts.Recorder,
		report:   opts.Report,
		insights: opts.Insights,
		export:   opts.Export,
		allowed:  make(map[int64]bool, len(opts.AllowedUsers)),
		now:      opts.Now,
		log:      opts.Logger.With().Str("component", "flow").Logger(),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sessions == nil {
		c.sessions = session.NewStore(0)
	}
	for _, id := range opts.AllowedUsers {
		c.allowed[id] = true
	}
	c.flows = map[session.Flow]*definition{
		session.FlowIncome:  entryFlow(session.FlowIncome, model.KindIncome),
		session.FlowExpense: entryFlow(session.FlowExpense, model.KindExpense),
		session.FlowReport:  periodFlow(session.FlowReport, msgNoReportData),
		session.FlowExport:  periodFlow(session.FlowExport, msgNoExportData),
	}
	return c
}

// Handle processes one event. Errors are returned only when the responder
// itself fails; everything else becomes a message to the user.
func (c *Controller) Handle(ctx context.Context, out Responder, ev Event) error {
	if len(c.allowed) > 0 && !c.allowed[ev.UserID] {
		c.log.Warn().Int64("user", ev.UserID).Msg("user not allowed")
		return out.Text(ctx, ev.ChatID, msgNotAllowed)
	}

	switch ev.Kind {
	case EventCommand:
		return c.command(ctx, out, ev)
	case EventButton:
		return c.button(ctx, out, ev)
	default:
		return c.text(ctx, out, ev)
	}
}

func (c *Controller) command(ctx context.Context, out Responder, ev Event) error {
	switch ev.Command {
	case "start":
		return out.Prompt(ctx, ev.ChatID, msgWelcome, menuChoices())
	case "income":
		return c.begin(ctx, out, ev, session.FlowIncome)
	case "expense":
		return c.begin(ctx, out, ev, session.FlowExpense)
	case "report":
		return c.begin(ctx, out, ev, session.FlowReport)
	case "export":
		return c.begin(ctx, out, ev, session.FlowExport)
	case "cancel":
		if c.sessions.ClearUser(ev.UserID) == 0 {
			return out.Text(ctx, ev.ChatID, msgNothing)
		}
		return out.Text(ctx, ev.ChatID, msgCancelled)
	default:
		return out.Text(ctx, ev.ChatID, msgHelp)
	}
}

func (c *Controller) button(ctx context.Context, out Responder, ev Event) error {
	p := ev.Payload
	if !p.Flow.Valid() {
		c.log.Debug().Str("data", ev.Raw).Msg("undecodable button")
		return out.Text(ctx, ev.ChatID, msgStale)
	}

	switch p.Step {
	case session.StepMenu:
		return c.begin(ctx, out, ev, p.Flow)
	case session.StepInsights:
		return c.runInsights(ctx, out, ev, p.Value)
	}

	sel, ok := c.sessions.Get(ev.UserID, p.Flow)
	if !ok || sel.Step != p.Step {
		c.log.Debug().
			Int64("user", ev.UserID).
			Str("flow", string(p.Flow)).
			Str("step", string(p.Step)).
			Msg("stale button")
		return out.Text(ctx, ev.ChatID, msgStale)
	}
	return c.answer(ctx, out, ev, sel, p.Value)
}

func (c *Controller) text(ctx context.Context, out Responder, ev Event) error {
	if f, ok := menuFlow(ev.Text); ok {
		return c.begin(ctx, out, ev, f)
	}
	sel, ok := c.sessions.Latest(ev.UserID, session.StepAmount, session.StepDescription)
	if !ok {
		return out.Prompt(ctx, ev.ChatID, msgMenu, menuChoices())
	}
	return c.answer(ctx, out, ev, sel, ev.Text)
}

func menuChoices() []Choice {
	return []Choice{
		{Label: labelIncome, Payload: Payload{Flow: session.FlowIncome, Step: session.StepMenu}},
		{Label: labelExpense, Payload: Payload{Flow: session.FlowExpense, Step: session.StepMenu}},
		{Label: labelReport, Payload: Payload{Flow: session.FlowReport, Step: session.StepMenu}},
		{Label: labelExport, Payload: Payload{Flow: session.FlowExport, Step: session.StepMenu}},
	}
}

// MenuLabels returns the main menu texts, for reply keyboards.
func MenuLabels() []string {
	return []string{labelIncome, labelExpense, labelReport, labelExport}
}

func menuFlow(text string) (session.Flow, bool) {
	for _, ch := range menuChoices() {
		if ch.Label == text {
			return ch.Payload.Flow, true
		}
	}
	return "", false
}
