package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/templar/internal/presentation"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the manifest's version requirements",
	Long: `Run constraint resolution over the manifest's requirements block: for each
listed template, pick the highest registered version satisfying every declared
range. The result is printed as JSON; unsatisfiable templates are reported as
conflicts and the command exits non-zero.

Examples:
  templar resolve
  templar resolve | jq '.resolved'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}

		reqs, err := eng.manifest.ResolverRequirements()
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			return fmt.Errorf("manifest %s declares no requirements", cfg.ManifestPath)
		}

		result, err := eng.resolver.Resolve(cmd.Context(), reqs)
		if err != nil {
			return err
		}

		if err := presentation.WriteJSON(os.Stdout, presentation.NewResolutionDTO(result)); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("resolution failed with %d conflict(s)", len(result.Conflicts))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
