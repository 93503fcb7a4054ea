package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tablemoney/moneybot/internal/flow"
	"github.com/tablemoney/moneybot/internal/session"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []flow.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, _ flow.Responder, ev flow.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.err
}

func (h *recordingHandler) all() []flow.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]flow.Event(nil), h.events...)
}

func commandMessage(userID, chatID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func TestToEvent_Command(t *testing.T) {
	ev, ok := ToEvent(tgbotapi.Update{Message: commandMessage(1, 2, "/report")})
	require.True(t, ok)
	assert.Equal(t, flow.EventCommand, ev.Kind)
	assert.Equal(t, "report", ev.Command)
	assert.Equal(t, int64(1), ev.UserID)
	assert.Equal(t, int64(2), ev.ChatID)
}

func TestToEvent_Text(t *testing.T) {
	ev, ok := ToEvent(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 2},
		Text: "1500.50",
	}})
	require.True(t, ok)
	assert.Equal(t, flow.EventText, ev.Kind)
	assert.Equal(t, "1500.50", ev.Text)
}

func TestToEvent_Callback(t *testing.T) {
	data := flow.Payload{Flow: session.FlowReport, Step: session.StepStartYear, Value: "2024"}.Encode()
	ev, ok := ToEvent(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 2}},
		Data:    data,
	}})
	require.True(t, ok)
	assert.Equal(t, flow.EventButton, ev.Kind)
	assert.Equal(t, "cb1", ev.CallbackID)
	assert.Equal(t, session.FlowReport, ev.Payload.Flow)
	assert.Equal(t, "2024", ev.Payload.Value)
}

func TestToEvent_BadCallbackKeepsRaw(t *testing.T) {
	ev, ok := ToEvent(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 2}},
		Data:    "report_2024",
	}})
	require.True(t, ok)
	assert.Equal(t, "report_2024", ev.Raw)
	assert.False(t, ev.Payload.Flow.Valid())
}

func TestToEvent_Ignored(t *testing.T) {
	_, ok := ToEvent(tgbotapi.Update{})
	assert.False(t, ok)

	_, ok = ToEvent(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 2},
	}})
	assert.False(t, ok)
}

func TestKeyboard(t *testing.T) {
	short := []flow.Choice{
		{Label: "2023", Payload: flow.Payload{Flow: session.FlowReport, Step: session.StepStartYear, Value: "2023"}},
		{Label: "2024", Payload: flow.Payload{Flow: session.FlowReport, Step: session.StepStartYear, Value: "2024"}},
		{Label: "2025", Payload: flow.Payload{Flow: session.FlowReport, Step: session.StepStartYear, Value: "2025"}},
		{Label: "2026", Payload: flow.Payload{Flow: session.FlowReport, Step: session.StepStartYear, Value: "2026"}},
	}
	kb := Keyboard(short)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 3)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "rep|sy|2023", *kb.InlineKeyboard[0][0].CallbackData)

	wide := []flow.Choice{
		{Label: "Добавить доход", Payload: flow.Payload{Flow: session.FlowIncome, Step: session.StepMenu}},
		{Label: "Получить отчет", Payload: flow.Payload{Flow: session.FlowReport, Step: session.StepMenu}},
	}
	kb = Keyboard(wide)
	assert.Len(t, kb.InlineKeyboard, 2)
}

func TestResponder_Prompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)

	var sent tgbotapi.MessageConfig
	client.EXPECT().Send(gomock.Any()).DoAndReturn(func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		sent = c.(tgbotapi.MessageConfig)
		return tgbotapi.Message{}, nil
	})

	r := NewResponder(client)
	choices := []flow.Choice{{Label: "2024", Payload: flow.Payload{Flow: session.FlowExport, Step: session.StepEndYear, Value: "2024"}}}
	require.NoError(t, r.Prompt(context.Background(), 42, "<b>Выберите</b>", choices))

	assert.Equal(t, int64(42), sent.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, sent.ParseMode)
	markup, ok := sent.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "out|ey|2024", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestResponder_TextHasNoKeyboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)
	client.EXPECT().Send(gomock.Any()).DoAndReturn(func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		assert.Nil(t, c.(tgbotapi.MessageConfig).ReplyMarkup)
		return tgbotapi.Message{}, nil
	})

	require.NoError(t, NewResponder(client).Text(context.Background(), 1, "hi"))
}

func TestResponder_FileAndPhoto(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)

	gomock.InOrder(
		client.EXPECT().Send(gomock.AssignableToTypeOf(tgbotapi.DocumentConfig{})).DoAndReturn(func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
			doc := c.(tgbotapi.DocumentConfig)
			assert.Equal(t, tgbotapi.FilePath("/data/11_November_2024.csv"), doc.File)
			assert.Equal(t, "ноябрь", doc.Caption)
			return tgbotapi.Message{}, nil
		}),
		client.EXPECT().Send(gomock.AssignableToTypeOf(tgbotapi.PhotoConfig{})).Return(tgbotapi.Message{}, errors.New("too big")),
	)

	r := NewResponder(client)
	require.NoError(t, r.File(context.Background(), 1, "/data/11_November_2024.csv", "ноябрь"))
	err := r.Photo(context.Background(), 1, "summary.png", []byte{1, 2}, "")
	assert.ErrorContains(t, err, "sending photo")
}

func TestResponder_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewResponder(client).Text(ctx, 1, "hi"), context.Canceled)
}

func TestDispatch_AnswersCallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)
	client.EXPECT().Request(gomock.AssignableToTypeOf(tgbotapi.CallbackConfig{})).
		DoAndReturn(func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
			assert.Equal(t, "cb7", c.(tgbotapi.CallbackConfig).CallbackQueryID)
			return &tgbotapi.APIResponse{Ok: true}, nil
		})

	h := &recordingHandler{}
	bot := NewBot(client, h, zerolog.Nop())
	bot.Dispatch(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb7",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 2}},
		Data:    "inc|go|",
	}})

	events := h.all()
	require.Len(t, events, 1)
	assert.Equal(t, session.FlowIncome, events[0].Payload.Flow)
}

func TestRun_DispatchesAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := &recordingHandler{err: errors.New("responder down")}
	bot := NewBot(NewMockClient(ctrl), h, zerolog.Nop())

	updates := make(chan tgbotapi.Update, 3)
	for i := 1; i <= 3; i++ {
		updates <- tgbotapi.Update{UpdateID: i, Message: commandMessage(int64(i), 1, "/start")}
	}
	close(updates)

	bot.Run(context.Background(), updates)
	assert.Len(t, h.all(), 3)
}

func TestRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := &recordingHandler{}
	bot := NewBot(NewMockClient(ctrl), h, zerolog.Nop())
	srv := httptest.NewServer(bot.Router(context.Background(), "/webhook"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"update_id":5,"message":{"message_id":1,"date":0,"from":{"id":9},"chat":{"id":9,"type":"private"},"text":"hello"}}`
	resp, err = http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/webhook", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bot.Wait()
	events := h.all()
	require.Len(t, events, 1)
	assert.Equal(t, "hello", events[0].Text)
	assert.Equal(t, int64(9), events[0].UserID)
}
