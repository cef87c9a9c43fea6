// Package cmd implements the apartment-watcher command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"apartment-watcher/config"
	"apartment-watcher/storage"
	"apartment-watcher/utils"
)

var (
	// envFile overrides the default .env lookup.
	envFile string

	rootCmd = &cobra.Command{
		Use:          "apartment-watcher",
		Short:        "Watches an OLX search and announces new apartments on Telegram",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default ./.env)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newExportCommand())
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		return config.LoadFile(envFile)
	}
	return config.Load(), nil
}

// newLogger builds the console logger. The journal sink is attached by the
// caller when the command writes history.
func newLogger(cfg *config.Config) (*utils.Logger, *time.Location) {
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, falling back to UTC\n", err)
		loc = time.UTC
	}
	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Level:    utils.ParseLevel(cfg.LogLevel),
		Color:    cfg.LogColor,
		Location: loc,
	})
	return logger, loc
}

// attachJournal mirrors every non-debug log line into the JSON log journal.
func attachJournal(cfg *config.Config, logger *utils.Logger) {
	logger.SetSink(storage.NewLogJournal(cfg.LogsFile, cfg.MaxLogEntries))
}
