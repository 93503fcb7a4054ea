package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/export"
	"github.com/tablemoney/moneybot/internal/periods"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var from, to, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Zip the partition files of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store := openStore(cfg, newLogger(cfg))

			idx, err := periods.Scan(store)
			if err != nil {
				return err
			}
			rng, err := resolveRange(idx, from, to)
			if err != nil {
				return err
			}
			parts, err := export.Select(store, rng)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = export.ArchiveName(rng)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating archive: %w", err)
			}
			if err := export.Archive(f, store, parts); err != nil {
				f.Close()
				os.Remove(outPath)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing archive: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", len(parts), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first month, YYYY-MM (default: earliest)")
	cmd.Flags().StringVar(&to, "to", "", "last month, YYYY-MM (default: latest)")
	cmd.Flags().StringVar(&outPath, "out", "", "archive path (default: generated name)")

	return cmd
}
