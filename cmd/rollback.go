package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/migration"
)

var rollbackOutput string

var rollbackCmd = &cobra.Command{
	Use:   "rollback BACKUP_FILE",
	Short: "Restore a document from a pre-migration backup",
	Long: `Restore the template document captured before a migration ran. The backup
file is the one reported in the migration output (or found in the backup
directory). The restored document is printed to stdout unless --output is
given.

Examples:
  templar rollback .templar/backups/web_2026-08-26T10-00-00Z_backup.json -o web.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}

		executor := migration.NewExecutor(eng.versions, eng.migrations, migration.Options{})
		doc, err := executor.Rollback(args[0])
		if err != nil {
			return err
		}

		if rollbackOutput == "" {
			data, err := document.MarshalJSON(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}
		return writeDocument(rollbackOutput, doc)
	},
}

func init() {
	rollbackCmd.Flags().StringVarP(&rollbackOutput, "output", "o", "", "Write the restored document here instead of stdout")
	rootCmd.AddCommand(rollbackCmd)
}
