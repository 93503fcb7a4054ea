package telegram

import (
	"context"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tablemoney/moneybot/internal/flow"
)

// wideLabel is the label length above which buttons get a row of their own.
const wideLabel = 12

// Responder sends flow output as HTML messages with inline keyboards.
type Responder struct {
	client Client
}

var _ flow.Responder = (*Responder)(nil)

// NewResponder creates a Responder.
func NewResponder(client Client) *Responder {
	return &Responder{client: client}
}

func (r *Responder) Prompt(ctx context.Context, chatID int64, text string, choices []flow.Choice) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(choices) > 0 {
		msg.ReplyMarkup = Keyboard(choices)
	}
	return r.send(ctx, msg, "message")
}

func (r *Responder) Text(ctx context.Context, chatID int64, text string) error {
	return r.Prompt(ctx, chatID, text, nil)
}

func (r *Responder) File(ctx context.Context, chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	return r.send(ctx, doc, "document")
}

func (r *Responder) Photo(ctx context.Context, chatID int64, name string, png []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	photo.Caption = caption
	return r.send(ctx, photo, "photo")
}

func (r *Responder) send(ctx context.Context, c tgbotapi.Chattable, what string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.client.Send(c); err != nil {
		return fmt.Errorf("sending %s: %w", what, err)
	}
	return nil
}

// Keyboard lays choices out as inline buttons: three per row when the labels
// are short, otherwise one per row.
func Keyboard(choices []flow.Choice) tgbotapi.InlineKeyboardMarkup {
	perRow := 3
	for _, c := range choices {
		if utf8.RuneCountInString(c.Label) > wideLabel {
			perRow = 1
			break
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Payload.Encode()))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
