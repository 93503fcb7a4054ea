package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/importer"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var format string
	var keep bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load entries from CSV files in <data_dir>/import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q", format)
			}

			files, err := importer.Scan(cfg.Storage.DataDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "Nothing to import.")
				return nil
			}

			store := openStore(cfg, newLogger(cfg))
			for _, f := range files {
				sum, err := importer.File(store, parser, f.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d entries\n", f.Name, sum.Total())
				if keep {
					continue
				}
				if err := importer.MarkProcessed(cfg.Storage.DataDir, f.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "sheet", "file format: sheet or ledger")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave files in place after import")

	return cmd
}
