package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/app"
	"github.com/tablemoney/moneybot/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (long polling, or a webhook when telegram.webhook.url is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *globalOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := newLogger(cfg)

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	rt.Start(ctx)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("sync queue not drained")
		}
		log.Info().Msg("bot stopped")
	}()

	tg := cfg.Telegram
	api, err := telegram.NewAPI(tg.Token, telegram.ProxyConfig{
		Server: tg.Proxy.Server,
		User:   tg.Proxy.User,
		Pass:   tg.Proxy.Pass,
	})
	if err != nil {
		return err
	}
	bot := telegram.NewBot(api, rt.Controller, log)

	if tg.Webhook.URL == "" {
		return bot.Poll(ctx, api, tg.PollTimeout)
	}

	u, err := url.Parse(tg.Webhook.URL)
	if err != nil {
		return fmt.Errorf("parsing webhook url: %w", err)
	}
	path := u.Path
	if path == "" || path == "/" {
		path = "/webhook"
	}
	return bot.ServeWebhook(ctx, tg.Webhook.URL, path, tg.Webhook.Listen)
}
