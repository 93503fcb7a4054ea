package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tablemoney/moneybot/internal/buildinfo"
	"github.com/tablemoney/moneybot/internal/config"
	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/logger"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "moneybot",
		Short:   "Personal finance Telegram bot",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(opts),
		newPeriodsCommand(opts),
		newReportCommand(opts),
		newExportCommand(opts),
		newBackupCommand(opts),
		newImportCommand(opts),
	)

	return rootCmd
}

// load reads the config file, then the environment on top of it.
func (o *globalOptions) load() (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Options{Level: cfg.Log.Level, Console: cfg.Log.Console, Out: os.Stderr})
}

func openStore(cfg *config.Config, log zerolog.Logger) *ledger.Store {
	return ledger.NewStore(cfg.Storage.DataDir, log)
}
