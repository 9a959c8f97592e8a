// Package commands holds the regscrape subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"regscrape/internal/config"
	"regscrape/internal/logger"
)

var (
	configPath string
	logLevel   string
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:           "regscrape",
	Short:         "regscrape scrapes regulatory and sanction lists into spreadsheets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/regscrape.yaml", "Path to the configuration file.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config.")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "Directory for the spreadsheets; overrides the config.")
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	return 0
}

// load reads the configuration and applies the command-line overrides.
func load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.ApplyOverrides(config.Overrides{LogLevel: logLevel, OutputDir: outputDir}); err != nil {
		return nil, nil, err
	}

	return cfg, logger.NewLogger(cfg.Scraper.Logging.Level), nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)

	return t
}
