package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/backup"
)

func newBackupCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload partition files to Cloud Storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			gcs, err := backup.NewGCS(cmd.Context(), cfg.Backup.Bucket, cfg.Backup.Timeout)
			if err != nil {
				return err
			}
			defer gcs.Close()

			res, err := backup.New(gcs, cfg.Backup.Prefix, log).Push(cmd.Context(), openStore(cfg, log))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), "Uploaded", res)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "restore",
		Short: "Download partition files missing from the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			gcs, err := backup.NewGCS(cmd.Context(), cfg.Backup.Bucket, cfg.Backup.Timeout)
			if err != nil {
				return err
			}
			defer gcs.Close()

			res, err := backup.New(gcs, cfg.Backup.Prefix, newLogger(cfg)).Restore(cmd.Context(), cfg.Storage.DataDir)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), "Restored", res)
		},
	})

	return cmd
}

func printResult(out io.Writer, verb string, res backup.Result) error {
	fmt.Fprintf(out, "%s %d files\n", verb, len(res.Done))
	if len(res.Failed) == 0 {
		return nil
	}

	names := make([]string, 0, len(res.Failed))
	for name := range res.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  failed %s: %v\n", name, res.Failed[name])
	}
	return fmt.Errorf("%d files failed", len(res.Failed))
}
