package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/activity"
	"github.com/tablemoney/moneybot/internal/config"
	"github.com/tablemoney/moneybot/internal/flow"
	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
	"github.com/tablemoney/moneybot/internal/session"
)

const (
	testUser = int64(7)
	testChat = int64(70)
)

type chatOut struct {
	mu     sync.Mutex
	texts  []string
	files  []string
	photos []string
}

func (c *chatOut) Prompt(_ context.Context, _ int64, text string, _ []flow.Choice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *chatOut) Text(ctx context.Context, chatID int64, text string) error {
	return c.Prompt(ctx, chatID, text, nil)
}

func (c *chatOut) File(_ context.Context, _ int64, path, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, path)
	return nil
}

func (c *chatOut) Photo(_ context.Context, _ int64, name string, _ []byte, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.photos = append(c.photos, name)
	return nil
}

func (c *chatOut) joined() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.texts, "\n")
}

type fakeMirror struct {
	sheets []string
	rows   [][]string
	full   bool
}

func (f *fakeMirror) Enqueue(sheet string, row []string) bool {
	if f.full {
		return false
	}
	f.sheets = append(f.sheets, sheet)
	f.rows = append(f.rows, row)
	return true
}

func entry(y int, m time.Month, d int, kind model.Kind, cat, amount, desc string) model.Entry {
	return model.Entry{
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Category:    cat,
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Description: desc,
		Status:      model.StatusActive,
	}
}

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Sessions.TTL = 0
	rt, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return rt
}

func seed(t *testing.T, rt *Runtime) {
	t.Helper()
	rec := NewRecorder(rt.Store, nil, rt.Trail, zerolog.Nop())
	for _, e := range []model.Entry{
		entry(2024, time.November, 5, model.KindIncome, "зарплата", "1000", "оклад"),
		entry(2024, time.November, 10, model.KindExpense, "питание", "300", "продукты"),
		entry(2024, time.December, 3, model.KindIncome, "зарплата", "1500", "оклад"),
		entry(2024, time.December, 20, model.KindExpense, "квартира", "500", "аренда"),
	} {
		require.NoError(t, rec.Record(context.Background(), testUser, e))
	}
}

func press(t *testing.T, rt *Runtime, out flow.Responder, f session.Flow, st session.Step, value string) {
	t.Helper()
	p := flow.Payload{Flow: f, Step: st, Value: value}
	require.NoError(t, rt.Controller.Handle(context.Background(), out, flow.Event{
		Kind: flow.EventButton, UserID: testUser, ChatID: testChat, Payload: p, Raw: p.Encode(),
	}))
}

func command(t *testing.T, rt *Runtime, out flow.Responder, name string) {
	t.Helper()
	require.NoError(t, rt.Controller.Handle(context.Background(), out, flow.Event{
		Kind: flow.EventCommand, UserID: testUser, ChatID: testChat, Command: name,
	}))
}

func TestRecorder_MirrorsAndLogs(t *testing.T) {
	store := ledger.NewStore(t.TempDir(), zerolog.Nop())
	trail := activity.New(store.Dir())
	mirror := &fakeMirror{}
	rec := NewRecorder(store, mirror, trail, zerolog.Nop())

	e := entry(2024, time.November, 5, model.KindIncome, " зарплата ", "1000.5", " оклад ")
	require.NoError(t, rec.Record(context.Background(), testUser, e))

	require.Equal(t, []string{"11_November_2024"}, mirror.sheets)
	assert.Equal(t, []string{"05.11.2024", "зарплата", "1000.50", "доход", "оклад", "активный"}, mirror.rows[0])

	got, err := store.Read(ledger.PartitionOf(model.YearMonth{Year: 2024, Month: time.November}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "зарплата", got[0].Category)

	events, err := trail.Read()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, activity.ActionRecorded, events[0].Action)
	assert.Equal(t, "inc", events[0].Flow)
	assert.Equal(t, testUser, events[0].UserID)
}

func TestRecorder_FullQueueStillPersists(t *testing.T) {
	store := ledger.NewStore(t.TempDir(), zerolog.Nop())
	rec := NewRecorder(store, &fakeMirror{full: true}, nil, zerolog.Nop())

	require.NoError(t, rec.Record(context.Background(), testUser,
		entry(2024, time.November, 5, model.KindExpense, "питание", "10", "кофе")))

	parts, err := store.Partitions()
	require.NoError(t, err)
	assert.Len(t, parts, 1)
}

func TestRecorder_RejectsInvalid(t *testing.T) {
	store := ledger.NewStore(t.TempDir(), zerolog.Nop())
	rec := NewRecorder(store, nil, nil, zerolog.Nop())

	err := rec.Record(context.Background(), testUser,
		entry(2024, time.November, 5, model.KindExpense, "питание", "0", "кофе"))
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)

	parts, err := store.Partitions()
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestReportFlow_EndToEnd(t *testing.T) {
	rt := newRuntime(t)
	seed(t, rt)
	out := &chatOut{}

	command(t, rt, out, "report")
	press(t, rt, out, session.FlowReport, session.StepStartMonth, "11")
	press(t, rt, out, session.FlowReport, session.StepEndMonth, "12")

	text := out.joined()
	assert.Contains(t, text, "Ноябрь 2024 - Декабрь 2024")
	assert.Contains(t, text, "2,500.00")
	assert.Contains(t, text, "800.00")
	assert.Contains(t, text, "1,700.00")
	assert.NotEmpty(t, out.photos)

	press(t, rt, out, session.FlowReport, session.StepInsights, "202411-202412")

	events, err := rt.Trail.Read()
	require.NoError(t, err)
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, activity.ActionReport)
	assert.Contains(t, actions, activity.ActionInsights)
}

func TestExportFlow_EndToEnd(t *testing.T) {
	rt := newRuntime(t)
	seed(t, rt)
	out := &chatOut{}

	command(t, rt, out, "export")
	press(t, rt, out, session.FlowExport, session.StepStartMonth, "12")
	press(t, rt, out, session.FlowExport, session.StepEndMonth, "12")

	require.Len(t, out.files, 1)
	assert.True(t, strings.HasSuffix(out.files[0], "12_December_2024.csv"))
}

func TestActions_NoData(t *testing.T) {
	rt := newRuntime(t)
	actions := NewActions(rt.Store, nil, zerolog.Nop())
	rng, err := periods.NewRange(model.YearMonth{Year: 2024, Month: 1}, model.YearMonth{Year: 2024, Month: 2})
	require.NoError(t, err)
	req := flow.PeriodRequest{UserID: testUser, ChatID: testChat, Range: rng, Out: &chatOut{}}

	assert.ErrorIs(t, actions.Report().Run(context.Background(), req), flow.ErrNotFound)
	assert.ErrorIs(t, actions.Insights().Run(context.Background(), req), flow.ErrNotFound)
	assert.ErrorIs(t, actions.Export().Run(context.Background(), req), flow.ErrNotFound)
}

func TestActions_Periods(t *testing.T) {
	rt := newRuntime(t)
	seed(t, rt)

	idx, err := NewActions(rt.Store, nil, zerolog.Nop()).Periods().Available()
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, idx.Years())
	assert.Len(t, idx.Months(2024), 2)
}

func TestRuntime_StartAndClose(t *testing.T) {
	rt := newRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	rt.Start(ctx)
	cancel()
	assert.NoError(t, rt.Close(context.Background()))
	assert.Nil(t, rt.Syncer)
}
