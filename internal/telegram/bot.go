package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/flow"
	"github.com/tablemoney/moneybot/internal/logger"
)

// Handler consumes decoded events. *flow.Controller implements it.
type Handler interface {
	Handle(ctx context.Context, out flow.Responder, ev flow.Event) error
}

// Bot dispatches updates to a Handler, one goroutine per update.
type Bot struct {
	client  Client
	handler Handler
	out     *Responder
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewBot creates a Bot.
func NewBot(client Client, handler Handler, log zerolog.Logger) *Bot {
	return &Bot{
		client:  client,
		handler: handler,
		out:     NewResponder(client),
		log:     log.With().Str("component", "telegram").Logger(),
	}
}

// Dispatch handles one update synchronously.
func (b *Bot) Dispatch(ctx context.Context, u tgbotapi.Update) {
	ev, ok := ToEvent(u)
	if !ok {
		b.log.Debug().Int("update_id", u.UpdateID).Msg("update ignored")
		return
	}

	if ev.CallbackID != "" {
		if _, err := b.client.Request(tgbotapi.NewCallback(ev.CallbackID, "")); err != nil {
			b.log.Warn().Err(err).Msg("answering callback")
		}
	}

	log := b.log.With().Int64("user", ev.UserID).Int("update_id", u.UpdateID).Logger()
	ctx = logger.WithContext(ctx, log)
	if err := b.handler.Handle(ctx, b.out, ev); err != nil {
		log.Error().Err(err).Msg("handling update")
	}
}

// Run dispatches updates until the channel closes or ctx ends, then waits
// for in-flight handlers.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.Dispatch(ctx, u)
			}()
		}
	}
}

// Poll removes any webhook and long-polls api until ctx ends.
func (b *Bot) Poll(ctx context.Context, api *tgbotapi.BotAPI, timeout int) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("removing webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := api.GetUpdatesChan(u)

	b.log.Info().Str("bot", api.Self.UserName).Msg("polling for updates")
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	b.Run(ctx, updates)
	return nil
}

// RegisterWebhook points Telegram at url.
func (b *Bot) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("building webhook: %w", err)
	}
	if _, err := b.client.Request(wh); err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	return nil
}

// Router serves the webhook at path plus a health check.
func (b *Bot) Router(ctx context.Context, path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		var u tgbotapi.Update
		if err := json.NewDecoder(req.Body).Decode(&u); err != nil {
			b.log.Warn().Err(err).Msg("bad webhook payload")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		// Reply at once; Telegram retries slow webhooks.
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.Dispatch(ctx, u)
		}()
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// ServeWebhook registers url and serves updates on listen until ctx ends.
func (b *Bot) ServeWebhook(ctx context.Context, url, path, listen string) error {
	if err := b.RegisterWebhook(url); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           b.Router(ctx, path),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		b.log.Info().Str("listen", listen).Str("path", path).Msg("serving webhook")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	b.wg.Wait()
	return err
}

// Wait blocks until in-flight handlers finish.
func (b *Bot) Wait() {
	b.wg.Wait()
}
