// Package app wires the store, flows and integrations into a running bot.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/activity"
	"github.com/tablemoney/moneybot/internal/config"
	"github.com/tablemoney/moneybot/internal/flow"
	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/session"
	"github.com/tablemoney/moneybot/internal/sheets"
)

// Runtime holds the long-lived components of a bot process.
type Runtime struct {
	Config     *config.Config
	Store      *ledger.Store
	Sessions   *session.Store
	Trail      *activity.Log
	Syncer     *sheets.Syncer // nil when sheets are disabled
	Controller *flow.Controller

	log zerolog.Logger
}

// New builds a Runtime from cfg. It does not start background work.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Runtime, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	rt := &Runtime{
		Config:   cfg,
		Store:    ledger.NewStore(cfg.Storage.DataDir, log),
		Sessions: session.NewStore(cfg.Sessions.TTL),
		Trail:    activity.New(cfg.Storage.DataDir),
		log:      log,
	}

	if cfg.Sheets.Enabled {
		client, err := sheets.NewClient(ctx, sheets.ClientConfig{
			SpreadsheetID:     cfg.Sheets.SpreadsheetID,
			CredentialsFile:   cfg.Sheets.CredentialsFile,
			CredentialsBase64: cfg.Sheets.CredentialsBase64,
			Timeout:           cfg.Sheets.Timeout,
			Header:            ledger.Header,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to sheets: %w", err)
		}
		rt.Syncer = rt.newSyncer(client)
	}

	var mirror Enqueuer
	if rt.Syncer != nil {
		mirror = rt.Syncer
	}
	actions := NewActions(rt.Store, rt.Trail, log)
	rt.Controller = flow.New(flow.Options{
		Sessions:     rt.Sessions,
		Catalog:      catalog,
		Periods:      actions.Periods(),
		Recorder:     NewRecorder(rt.Store, mirror, rt.Trail, log),
		Report:       actions.Report(),
		Insights:     actions.Insights(),
		Export:       actions.Export(),
		AllowedUsers: cfg.Telegram.AllowedUsers,
		Logger:       log,
	})
	return rt, nil
}

func (rt *Runtime) newSyncer(app sheets.Appender) *sheets.Syncer {
	retry := sheets.DefaultRetryConfig
	retry.MaxRetries = rt.Config.Sheets.MaxRetries
	return sheets.NewSyncer(app, sheets.SyncerOptions{
		QueueSize: rt.Config.Sheets.QueueSize,
		Retry:     retry,
		OnFailure: func(job sheets.Job, err error) {
			note(rt.Trail, rt.log, activity.Event{
				Action:  activity.ActionSyncFailed,
				Details: fmt.Sprintf("%s: %v", job.Sheet, err),
			})
		},
	}, rt.log)
}

// Start launches the sync worker and the session sweeper. The sweeper stops
// when ctx ends; the worker keeps draining until Close.
func (rt *Runtime) Start(ctx context.Context) {
	if rt.Syncer != nil {
		rt.Syncer.Start(context.WithoutCancel(ctx))
	}
	if ttl := rt.Config.Sessions.TTL; ttl > 0 {
		go rt.sweep(ctx, ttl)
	}
}

func (rt *Runtime) sweep(ctx context.Context, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rt.Sessions.Sweep(); n > 0 {
				rt.log.Debug().Int("removed", n).Msg("expired selections swept")
			}
		}
	}
}

// Close drains pending sync work until ctx expires.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.Syncer == nil {
		return nil
	}
	return rt.Syncer.Stop(ctx)
}
