package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/periods"
	"github.com/tablemoney/moneybot/internal/report"
)

func newReportCommand(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the report for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			store := openStore(cfg, log)

			idx, err := periods.Scan(store)
			if err != nil {
				return err
			}
			rng, err := resolveRange(idx, from, to)
			if err != nil {
				return err
			}

			entries, err := report.Load(store, rng, log)
			if err != nil {
				return err
			}
			r, err := report.Build(rng, entries)
			if errors.Is(err, report.ErrNoData) {
				fmt.Fprintf(cmd.OutOrStdout(), "No entries for %s.\n", rng.Label())
				return nil
			}
			if err != nil {
				return err
			}
			return report.WritePlain(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first month, YYYY-MM (default: earliest)")
	cmd.Flags().StringVar(&to, "to", "", "last month, YYYY-MM (default: latest)")

	return cmd
}
