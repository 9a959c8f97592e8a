package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"regscrape/internal/pipeline"
	"regscrape/internal/sources"
)

var errNoSources = errors.New("name at least one source or pass --all")

var (
	runAll      bool
	noTranslate bool
)

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run every enabled source in the config.")
	runCmd.Flags().BoolVar(&noTranslate, "no-translate", false, "Skip the translated spreadsheets.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <source>... | --all",
	Short: "Crawls sources and writes their spreadsheets.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := load()
		if err != nil {
			return err
		}

		names := args
		if runAll {
			names = nil
			for _, src := range cfg.GetEnabledSources() {
				names = append(names, src.Name)
			}
		}

		if len(names) == 0 {
			return errNoSources
		}

		var opts []pipeline.Option
		if noTranslate {
			opts = append(opts, pipeline.WithoutTranslation())
		}

		runner := pipeline.NewRunner(cfg, sources.DefaultRegistry(), log, opts...)

		reports, runErr := runner.RunAll(cmd.Context(), names)

		if len(reports) > 0 {
			t := newTable()
			t.AppendHeader(table.Row{"Source", "Rows", "Pages", "Failed", "Output", "Translated", "Duration"})

			for _, r := range reports {
				translated := "-"
				if r.TranslatedPath != "" {
					translated = filepath.Base(r.TranslatedPath)
				}

				t.AppendRow(table.Row{
					r.Source,
					r.Rows,
					r.Crawl.Fetched(),
					r.Crawl.Failed,
					filepath.Base(r.Output),
					translated,
					r.Duration.Round(time.Millisecond),
				})
			}

			t.Render()
		}

		if runErr != nil {
			return fmt.Errorf("run failed: %w", runErr)
		}

		return nil
	},
}
