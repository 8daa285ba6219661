package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/templar/internal/infrastructure/sqlite"
	"github.com/zjrosen/templar/internal/presentation"
)

var (
	historyTemplate string
	historyLimit    int
)

var historyListCmd = &cobra.Command{
	Use:   "history:list",
	Short: "List recorded migration runs",
	Long: `List migration runs recorded in the history store, most recent first.

Examples:
  templar history:list --template web
  templar history:list --template web --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("history is disabled; enable it in the config file")
		}

		db, err := sqlite.NewDB(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		runs, err := db.Runs().ListForTemplate(historyTemplate, historyLimit)
		if err != nil {
			return err
		}

		dtos := make([]presentation.RunDTO, 0, len(runs))
		for _, run := range runs {
			dtos = append(dtos, presentation.NewRunDTO(run))
		}
		return presentation.WriteJSON(os.Stdout, dtos)
	},
}

func init() {
	historyListCmd.Flags().StringVarP(&historyTemplate, "template", "t", "", "Template id (required)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most N runs (0 = all)")
	_ = historyListCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(historyListCmd)
}
