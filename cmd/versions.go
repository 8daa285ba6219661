package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/templar/internal/presentation"
	"github.com/zjrosen/templar/internal/registry"
)

var (
	versionsTemplate   string
	versionsPrerelease bool
)

var versionsListCmd = &cobra.Command{
	Use:   "versions:list",
	Short: "List registered template versions",
	Long: `List registered template versions as JSON, newest first, with the latest
and latest-stable versions marked.

Examples:
  # List every template in the manifest
  templar versions:list

  # One template only
  templar versions:list --template web

  # Include prerelease versions in the listing
  templar versions:list --prerelease

  # Parse specific fields with jq
  templar versions:list | jq '.[].latest'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}

		ids := eng.versions.TemplateIDs()
		if versionsTemplate != "" {
			ids = []string{versionsTemplate}
		}

		dtos := make([]presentation.TemplateDTO, 0, len(ids))
		for _, id := range ids {
			entry, err := eng.versions.Entry(id)
			if err != nil {
				return fmt.Errorf("template %s: %w", id, err)
			}
			if !versionsPrerelease {
				entry = stableOnly(entry)
			}
			dtos = append(dtos, presentation.NewTemplateDTO(entry))
		}

		return presentation.WriteJSON(os.Stdout, dtos)
	},
}

func init() {
	versionsListCmd.Flags().StringVarP(&versionsTemplate, "template", "t", "", "List a single template")
	versionsListCmd.Flags().BoolVar(&versionsPrerelease, "prerelease", false, "Include prerelease versions")
	rootCmd.AddCommand(versionsListCmd)
}

// stableOnly filters prerelease versions out of an entry's listing. A
// template with no stable versions at all is returned unfiltered rather than
// as an empty block.
func stableOnly(entry *registry.Entry) *registry.Entry {
	kept := make([]*registry.TemplateVersion, 0, len(entry.Versions))
	for _, tv := range entry.Versions {
		if tv.Version.IsStable() {
			kept = append(kept, tv)
		}
	}
	if len(kept) == 0 || len(kept) == len(entry.Versions) {
		return entry
	}

	filtered := *entry
	filtered.Versions = kept
	filtered.Latest = kept[0].Version
	return &filtered
}
