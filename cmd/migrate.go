package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/history"
	"github.com/zjrosen/templar/internal/infrastructure/sqlite"
	"github.com/zjrosen/templar/internal/migration"
	"github.com/zjrosen/templar/internal/paths"
	"github.com/zjrosen/templar/internal/presentation"
	"github.com/zjrosen/templar/internal/pubsub"
	"github.com/zjrosen/templar/internal/semver"
	"github.com/zjrosen/templar/internal/tracing"
)

var (
	migrateTemplate  string
	migrateFrom      string
	migrateTo        string
	migrateLenient   bool
	migrateBackupDir string
	migrateOutput    string
	migrateDiff      bool
	migrateVerbose   bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate FILE",
	Short: "Migrate a template document to a newer version",
	Long: `Apply registered migration steps to a template document, walking the chain
from --from to --to (or to the latest registered version when --to is
omitted). A backup of the pre-migration document is captured first when
backups are enabled; the migrated document is written back to FILE unless
--output is given. The outcome is printed as JSON.

The document may be JSON or YAML (detected by file extension); output is
always JSON.

Examples:
  # Migrate to the latest registered version
  templar migrate web.json --template web --from 1.0.0

  # Migrate to a specific version, collecting failures instead of aborting
  templar migrate web.yaml --template web --from 1.0.0 --to 1.2.0 --lenient

  # Show a line diff of the changes
  templar migrate web.json --template web --from 1.0.0 --diff`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}

		from, err := semver.Parse(migrateFrom)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		original := doc.Clone()

		tracerProvider, err := newTracerProvider()
		if err != nil {
			return err
		}
		defer func() { _ = tracerProvider.Shutdown(cmd.Context()) }()

		events := pubsub.NewBroker[migration.StepEvent]()
		defer events.Close()
		if migrateVerbose {
			watchSteps(cmd.Context(), events)
		}

		executor := migration.NewExecutor(eng.versions, eng.migrations, migration.Options{
			Strict:            cfg.Strict && !migrateLenient,
			BackupsEnabled:    cfg.Backup.Enabled,
			IncludePrerelease: cfg.AllowPrerelease,
			Tracer:            tracerProvider.Tracer(),
			Events:            events,
		})

		backupDir := migrateBackupDir
		if backupDir == "" {
			backupDir = cfg.Backup.Dir
		}

		result, runErr := runMigration(cmd.Context(), executor, eng.migrations, doc, from, backupDir)
		recordRun(migrateTemplate, from.String(), migrateTo, result, runErr)
		if runErr != nil {
			return runErr
		}

		if migrateDiff {
			diff, diffErr := presentation.DocumentDiff(original, result.Template)
			if diffErr == nil && diff != "" {
				fmt.Fprint(os.Stderr, diff)
			}
		}

		if result.Success {
			out := migrateOutput
			if out == "" {
				out = args[0]
			}
			if err := writeDocument(out, result.Template); err != nil {
				return err
			}
		}

		if err := presentation.WriteJSON(os.Stdout, presentation.NewMigrationDTO(result)); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("migration finished with %d error(s)", len(result.Errors))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateTemplate, "template", "t", "", "Template id (required)")
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "Current document version (required)")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "Target version (default: latest registered)")
	migrateCmd.Flags().BoolVar(&migrateLenient, "lenient", false, "Run every step and collect failures instead of aborting on the first")
	migrateCmd.Flags().StringVar(&migrateBackupDir, "backup-dir", "", "Backup directory (default: from config)")
	migrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "Write the migrated document here instead of FILE")
	migrateCmd.Flags().BoolVar(&migrateDiff, "diff", false, "Print a line diff of the changes to stderr")
	migrateCmd.Flags().BoolVarP(&migrateVerbose, "verbose", "v", false, "Print per-step progress to stderr")
	_ = migrateCmd.MarkFlagRequired("template")
	_ = migrateCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(migrateCmd)
}

// runMigration dispatches to an explicit-target or latest-target migration.
func runMigration(ctx context.Context, executor *migration.Executor, migrations *migration.Registry, doc document.Document, from semver.Version, backupDir string) (migration.Result, error) {
	if migrateTo == "" {
		return executor.AutoMigrate(ctx, migrateTemplate, doc, from, backupDir)
	}

	to, err := semver.Parse(migrateTo)
	if err != nil {
		return migration.Result{}, fmt.Errorf("--to: %w", err)
	}
	path, err := migration.NewPathfinder(migrations).FindPath(migrateTemplate, from, to)
	if err != nil {
		return migration.Result{}, err
	}
	return executor.Migrate(ctx, migrateTemplate, doc, path, backupDir)
}

// watchSteps prints step progress lines to stderr as the executor publishes
// them.
func watchSteps(ctx context.Context, events *pubsub.Broker[migration.StepEvent]) {
	sub := events.Subscribe(ctx)
	go func() {
		for event := range sub {
			step := event.Payload
			switch event.Type {
			case pubsub.CreatedEvent:
				fmt.Fprintf(os.Stderr, "step %d/%d %s...\n", step.Index+1, step.Total, step.StepID)
			case pubsub.CompletedEvent:
				fmt.Fprintf(os.Stderr, "step %d/%d %s ok\n", step.Index+1, step.Total, step.StepID)
			case pubsub.FailedEvent:
				fmt.Fprintf(os.Stderr, "step %d/%d %s FAILED: %s\n", step.Index+1, step.Total, step.StepID, step.Err)
			}
		}
	}()
}

// recordRun persists the migration outcome when history is enabled. History
// failures never fail the migration itself.
func recordRun(templateID, from, to string, result migration.Result, runErr error) {
	if !cfg.History.Enabled {
		return
	}

	db, err := sqlite.NewDB(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer func() { _ = db.Close() }()

	if to == "" {
		to = "latest"
	}
	run := history.NewRun(templateID, from, to)

	errs := result.Errors
	if runErr != nil {
		errs = append(errs, runErr.Error())
	}
	run.RecordOutcome(result.Success && runErr == nil, result.StepsApplied,
		errs, result.Warnings, result.BackupPath, result.ExecutionTime)

	if err := db.Runs().Save(run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run failed: %v\n", err)
	}
}

// newTracerProvider builds the tracing provider from config, defaulting the
// file exporter's path into the project data directory.
func newTracerProvider() (*tracing.Provider, error) {
	tcfg := cfg.Tracing
	if tcfg.Enabled && tcfg.Exporter == "file" && tcfg.FilePath == "" {
		tcfg.FilePath = paths.DefaultTraceFile("")
	}
	return tracing.NewProvider(tcfg)
}

// readDocument loads a JSON or YAML template document, detected by extension.
func readDocument(path string) (document.Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user-supplied document
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err := document.UnmarshalYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing YAML document: %w", err)
		}
		return doc, nil
	default:
		doc, err := document.UnmarshalJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing JSON document: %w", err)
		}
		return doc, nil
	}
}

// writeDocument writes the migrated document as 2-space-indented JSON.
func writeDocument(path string, doc document.Document) error {
	data, err := document.MarshalJSON(doc)
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
