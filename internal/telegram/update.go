package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tablemoney/moneybot/internal/flow"
)

// ToEvent converts an update into a flow event. Updates the bot does not
// handle, such as edits or non-text messages, report false.
func ToEvent(u tgbotapi.Update) (flow.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return flow.Event{}, false
		}
		ev := flow.Event{
			Kind:       flow.EventButton,
			UserID:     q.From.ID,
			ChatID:     q.Message.Chat.ID,
			Raw:        q.Data,
			CallbackID: q.ID,
		}
		// An undecodable payload leaves ev.Payload zero; the controller
		// answers it as a stale button.
		if p, err := flow.DecodePayload(q.Data); err == nil {
			ev.Payload = p
		}
		return ev, true

	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil || m.Text == "" {
			return flow.Event{}, false
		}
		ev := flow.Event{
			UserID: m.From.ID,
			ChatID: m.Chat.ID,
			Text:   m.Text,
		}
		if m.IsCommand() {
			ev.Kind = flow.EventCommand
			ev.Command = m.Command()
		} else {
			ev.Kind = flow.EventText
		}
		return ev, true
	}
	return flow.Event{}, false
}
