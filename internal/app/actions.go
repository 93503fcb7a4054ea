package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/activity"
	"github.com/tablemoney/moneybot/internal/export"
	"github.com/tablemoney/moneybot/internal/flow"
	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/logger"
	"github.com/tablemoney/moneybot/internal/periods"
	"github.com/tablemoney/moneybot/internal/report"
	"github.com/tablemoney/moneybot/internal/session"
)

// Actions implements the terminal steps of the report and export flows.
type Actions struct {
	store *ledger.Store
	trail *activity.Log
	log   zerolog.Logger
}

// NewActions creates Actions. trail may be nil.
func NewActions(store *ledger.Store, trail *activity.Log, log zerolog.Logger) *Actions {
	return &Actions{store: store, trail: trail, log: log}
}

// Periods lists the months that have a partition.
func (a *Actions) Periods() flow.PeriodSource {
	return flow.PeriodSourceFunc(func() (periods.Index, error) {
		return periods.Scan(a.store)
	})
}

// Report sends the aggregate report of the requested range.
func (a *Actions) Report() flow.PeriodAction {
	return flow.PeriodActionFunc(func(ctx context.Context, req flow.PeriodRequest) error {
		log := a.requestLog(ctx, req)
		entries, err := report.Load(a.store, req.Range, log)
		if err != nil {
			return err
		}
		r, err := report.Build(req.Range, entries)
		if errors.Is(err, report.ErrNoData) {
			return flow.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := report.SendReport(ctx, req.Out, req.ChatID, r, log); err != nil {
			return fmt.Errorf("sending report: %w", err)
		}
		a.done(req, session.FlowReport, activity.ActionReport, req.Range.Code())
		return nil
	})
}

// Insights sends the additional analytics of the requested range.
func (a *Actions) Insights() flow.PeriodAction {
	return flow.PeriodActionFunc(func(ctx context.Context, req flow.PeriodRequest) error {
		log := a.requestLog(ctx, req)
		entries, err := report.Load(a.store, req.Range, log)
		if err != nil {
			return err
		}
		in, err := report.BuildInsights(req.Range, entries)
		if errors.Is(err, report.ErrNoData) {
			return flow.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := report.SendInsights(ctx, req.Out, req.ChatID, in, log); err != nil {
			return fmt.Errorf("sending insights: %w", err)
		}
		a.done(req, session.FlowReport, activity.ActionInsights, req.Range.Code())
		return nil
	})
}

// Export sends the partition files of the requested range.
func (a *Actions) Export() flow.PeriodAction {
	return flow.PeriodActionFunc(func(ctx context.Context, req flow.PeriodRequest) error {
		log := a.requestLog(ctx, req)
		parts, err := export.Select(a.store, req.Range)
		if errors.Is(err, export.ErrNoFiles) {
			return flow.ErrNotFound
		}
		if err != nil {
			return err
		}
		res, err := export.Deliver(ctx, req.Out, req.ChatID, a.store, parts, log)
		if err != nil {
			return fmt.Errorf("delivering files: %w", err)
		}
		a.done(req, session.FlowExport, activity.ActionExport,
			fmt.Sprintf("%s, sent %d, failed %d", req.Range.Code(), len(res.Sent), len(res.Failed)))
		return nil
	})
}

func (a *Actions) requestLog(ctx context.Context, req flow.PeriodRequest) zerolog.Logger {
	log := logger.FromContext(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = a.log
	}
	return log.With().Str("range", req.Range.Code()).Logger()
}

func (a *Actions) done(req flow.PeriodRequest, f session.Flow, action, details string) {
	note(a.trail, a.log, activity.Event{
		UserID:  req.UserID,
		Flow:    string(f),
		Action:  action,
		Details: details,
	})
}
