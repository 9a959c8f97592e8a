package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"regscrape/internal/sources"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the known sources and whether the config enables them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := load()
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Source", "Output", "Enabled", "Translate", "Description"})

		for _, def := range sources.DefaultRegistry().All() {
			srcCfg, _ := cfg.Source(def.Name)
			b := def.Bind(srcCfg, sources.Env{})

			enabled := srcCfg != nil && srcCfg.Enabled

			translate := "-"
			if b.Translation != nil {
				translate = b.Translation.From + " → " + b.Translation.To
			}

			t.AppendRow(table.Row{def.Name, b.OutputName, enabled, translate, def.Description})
		}

		t.Render()

		return nil
	},
}
