package report

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
)

// Source is the read side of the record store.
type Source interface {
	Partitions() ([]ledger.Partition, error)
	Read(p ledger.Partition) ([]model.Entry, error)
}

// Load reads every partition of rng. A malformed partition is skipped with a
// warning; the rest still load.
func Load(src Source, rng periods.Range, log zerolog.Logger) ([]model.Entry, error) {
	parts, err := src.Partitions()
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	var entries []model.Entry
	for _, p := range rng.Filter(parts) {
		got, err := src.Read(p)
		var merr *ledger.MalformedPartitionError
		switch {
		case errors.As(err, &merr):
			log.Warn().Err(err).Str("partition", p.Name).Msg("skipping malformed partition")
			continue
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", p.Name, err)
		}
		entries = append(entries, got...)
	}
	return entries, nil
}
