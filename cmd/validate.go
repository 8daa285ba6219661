package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/templar/internal/manifest"
	"github.com/zjrosen/templar/internal/watcher"
)

var validateWatch bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the template manifest",
	Long: `Check the manifest for problems: unparseable versions, malformed
requirement ranges, invalid migration definitions, and migration chains that
cannot be walked from their lowest to their highest version.

With --watch the manifest is re-validated whenever the file changes, until
interrupted.

Examples:
  templar validate
  templar validate --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		if !validateWatch {
			ok, err := validateManifest(cfg.ManifestPath)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("manifest validation failed")
			}
			return nil
		}

		w, err := watcher.New(watcher.DefaultConfig(cfg.ManifestPath))
		if err != nil {
			return err
		}
		changes, err := w.Start()
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()

		// Validate once up front, then on every change.
		if _, err := validateManifest(cfg.ManifestPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		for {
			select {
			case <-changes:
				if _, err := validateManifest(cfg.ManifestPath); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
			case <-sig:
				return nil
			case <-cmd.Context().Done():
				return nil
			}
		}
	},
}

func init() {
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "Re-validate whenever the manifest changes")
	rootCmd.AddCommand(validateCmd)
}

// validateManifest loads and validates the manifest, printing each problem.
// It returns false when problems were found.
func validateManifest(path string) (bool, error) {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	m, err := manifest.Load(os.DirFS(dir), file)
	if err != nil {
		return false, err
	}

	problems := m.Validate()
	if len(problems) == 0 {
		fmt.Fprintf(os.Stdout, "%s: ok\n", path)
		return true, nil
	}
	for _, p := range problems {
		fmt.Fprintf(os.Stdout, "%s: %v\n", path, p)
	}
	return false, nil
}
