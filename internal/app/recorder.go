package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/activity"
	"github.com/tablemoney/moneybot/internal/flow"
	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/session"
)

// Enqueuer accepts rows for the remote mirror without blocking.
type Enqueuer interface {
	Enqueue(sheet string, row []string) bool
}

// Recorder writes entries to the local store first. The remote mirror and
// the activity trail are best-effort.
type Recorder struct {
	store  *ledger.Store
	mirror Enqueuer // nil when sync is off
	trail  *activity.Log
	log    zerolog.Logger
}

var _ flow.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder. mirror and trail may be nil.
func NewRecorder(store *ledger.Store, mirror Enqueuer, trail *activity.Log, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, mirror: mirror, trail: trail, log: log}
}

func (r *Recorder) Record(ctx context.Context, userID int64, e model.Entry) error {
	e, err := ledger.Normalize(e)
	if err != nil {
		r.log.Warn().Err(err).Int64("user", userID).Msg("entry rejected")
		return err
	}
	p, err := r.store.Record(e)
	if err != nil {
		return err
	}

	if r.mirror != nil && !r.mirror.Enqueue(p.Key(), ledger.MarshalEntry(e)) {
		r.log.Warn().Str("partition", p.Name).Msg("entry not queued for sync")
	}

	flowName := session.FlowExpense
	if e.Kind == model.KindIncome {
		flowName = session.FlowIncome
	}
	note(r.trail, r.log, activity.Event{
		UserID:  userID,
		Flow:    string(flowName),
		Action:  activity.ActionRecorded,
		Details: fmt.Sprintf("%s, %s, %s", p.Key(), e.Category, e.Amount.StringFixed(2)),
	})
	return nil
}

func note(trail *activity.Log, log zerolog.Logger, ev activity.Event) {
	if trail == nil {
		return
	}
	if err := trail.Record(ev); err != nil {
		log.Error().Err(err).Str("action", ev.Action).Msg("activity log write failed")
	}
}
