package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
)

func newPeriodsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List the months that have data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			idx, err := periods.Scan(openStore(cfg, newLogger(cfg)))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if idx.Empty() {
				fmt.Fprintln(out, "No data.")
				return nil
			}
			for _, y := range idx.Years() {
				var names []string
				for _, m := range idx.Months(y) {
					names = append(names, m.Label())
				}
				fmt.Fprintf(out, "%d: %s\n", y, strings.Join(names, ", "))
			}
			return nil
		},
	}
}

// resolveRange turns --from/--to into a Range, defaulting to the whole span
// of idx.
func resolveRange(idx periods.Index, from, to string) (periods.Range, error) {
	first, last, ok := idx.Span()
	if !ok && (from == "" || to == "") {
		return periods.Range{}, fmt.Errorf("no data; pass --from and --to")
	}

	start, end := first, last
	if from != "" {
		ym, err := model.ParseYearMonth(from)
		if err != nil {
			return periods.Range{}, fmt.Errorf("--from: %w", err)
		}
		start = ym
	}
	if to != "" {
		ym, err := model.ParseYearMonth(to)
		if err != nil {
			return periods.Range{}, fmt.Errorf("--to: %w", err)
		}
		end = ym
	}
	return periods.NewRange(start, end)
}
