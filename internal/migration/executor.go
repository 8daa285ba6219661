package migration

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/pubsub"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/semver"
)

// Result is the aggregate outcome of a Migrate or AutoMigrate call.
type Result struct {
	Success       bool
	Template      document.Document
	Errors        []string
	Warnings      []string
	ExecutionTime time.Duration
	BackupPath    string
	StepsApplied  int
}

// StepEvent is published on the executor's event broker as each step starts
// and finishes.
type StepEvent struct {
	TemplateID string
	StepID     string
	Index      int // zero-based position in the path
	Total      int
	Err        string // "" on success
}

// Options configures an Executor.
type Options struct {
	// Strict aborts the whole operation on the first step failure. When
	// false, failures accumulate and execution continues through all
	// remaining steps using the best available document state.
	Strict bool

	// BackupsEnabled gates snapshot capture; a backup is taken only when
	// this is set and the call supplies a backup directory.
	BackupsEnabled bool

	// IncludePrerelease lets AutoMigrate target a prerelease latest version.
	IncludePrerelease bool

	// Tracer instruments path and step execution; nil means no tracing.
	Tracer trace.Tracer

	// Events receives per-step progress; nil disables publishing.
	Events *pubsub.Broker[StepEvent]
}

// Executor applies discovered migration paths to documents, with backup
// capture and strict/lenient failure handling. It owns no cross-call
// concurrency control: two concurrent migrations of the same template id
// must be serialized by the caller.
type Executor struct {
	versions   registry.Provider
	pathfinder *Pathfinder
	opts       Options
}

// NewExecutor creates an executor over the version registry and migration
// registry.
func NewExecutor(versions registry.Provider, migrations *Registry, opts Options) *Executor {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("templar")
	}
	return &Executor{
		versions:   versions,
		pathfinder: NewPathfinder(migrations),
		opts:       opts,
	}
}

// Migrate applies a path's steps sequentially to doc, feeding each step the
// previous step's output. A backup of the pre-migration state is captured
// first when enabled and backupDir is non-empty.
//
// In strict mode the first step failure aborts with a *MigrationError
// carrying the step index, id, and cause. In lenient mode failures accumulate
// as error strings, every remaining step still runs, and the Result reports
// Success false without an error return.
func (e *Executor) Migrate(ctx context.Context, templateID string, doc document.Document, path *Path, backupDir string) (Result, error) {
	start := time.Now()

	ctx, span := e.opts.Tracer.Start(ctx, "migration.path", trace.WithAttributes(
		attribute.String("template.id", templateID),
		attribute.String("migration.from", path.From.String()),
		attribute.String("migration.to", path.To.String()),
		attribute.Int("migration.steps", len(path.Steps)),
	))
	defer span.End()

	result := Result{Template: doc}

	if e.opts.BackupsEnabled && backupDir != "" {
		backupPath, err := writeBackup(backupDir, templateID, doc)
		if err != nil {
			span.SetStatus(codes.Error, "backup failed")
			return result, &MigrationError{TemplateID: templateID, StepIndex: -1, Err: err}
		}
		result.BackupPath = backupPath
	}

	current := doc
	for i, step := range path.Steps {
		e.publish(pubsub.CreatedEvent, StepEvent{
			TemplateID: templateID, StepID: step.ID, Index: i, Total: len(path.Steps),
		})

		stepResult, err := e.runStep(ctx, step, current)

		// Later steps observe earlier changes even after a reported
		// failure, so adopt whatever state the step produced.
		if stepResult.Doc != nil {
			current = stepResult.Doc
		}
		result.Warnings = append(result.Warnings, stepResult.Warnings...)

		if err == nil && stepResult.Success {
			result.StepsApplied++
			e.publish(pubsub.CompletedEvent, StepEvent{
				TemplateID: templateID, StepID: step.ID, Index: i, Total: len(path.Steps),
			})
			continue
		}

		cause := err
		if cause == nil {
			cause = fmt.Errorf("step reported failure: %s", joinOrDefault(stepResult.Errors, "no detail"))
		}
		e.publish(pubsub.FailedEvent, StepEvent{
			TemplateID: templateID, StepID: step.ID, Index: i, Total: len(path.Steps), Err: cause.Error(),
		})
		log.ErrorErr(log.CatMigrate, "migration step failed", cause,
			"template", templateID, "step", step.ID, "index", i)

		if e.opts.Strict {
			span.SetStatus(codes.Error, "step failed")
			result.Template = current
			result.ExecutionTime = time.Since(start)
			return result, &MigrationError{TemplateID: templateID, StepIndex: i, StepID: step.ID, Err: cause}
		}

		result.Errors = append(result.Errors, fmt.Sprintf("step %d (%s): %v", i, step.ID, cause))
		result.Errors = append(result.Errors, stepResult.Errors...)
	}

	result.Template = current
	result.Success = len(result.Errors) == 0
	result.ExecutionTime = time.Since(start)

	if result.Success {
		log.Info(log.CatMigrate, "migration completed",
			"template", templateID, "from", path.From.String(), "to", path.To.String(),
			"steps", result.StepsApplied, "duration", result.ExecutionTime)
	} else {
		span.SetStatus(codes.Error, "migration completed with failures")
	}
	return result, nil
}

// runStep invokes one step inside its own span, converting panics in
// user-supplied step functions into ordinary step failures.
func (e *Executor) runStep(ctx context.Context, step *Script, doc document.Document) (result StepResult, err error) {
	ctx, span := e.opts.Tracer.Start(ctx, "migration.step", trace.WithAttributes(
		attribute.String("step.id", step.ID),
		attribute.String("step.from", step.FromVersion.String()),
		attribute.String("step.to", step.ToVersion.String()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = StepResult{}
			err = fmt.Errorf("step panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "step failed")
		}
	}()

	if step.Migrate == nil {
		return StepResult{}, fmt.Errorf("%w: %s", ErrMissingMigrateFunc, step.ID)
	}
	return step.Migrate(ctx, doc)
}

// AutoMigrate discovers a path from currentVersion to the template's latest
// registered version and applies it. Calling at the latest version is a
// successful no-op carrying an informational warning. Returns a
// *MigrationError when no version is registered or no path exists.
func (e *Executor) AutoMigrate(ctx context.Context, templateID string, doc document.Document, currentVersion semver.Version, backupDir string) (Result, error) {
	latest, err := e.versions.GetLatest(templateID, e.opts.IncludePrerelease)
	if err != nil {
		return Result{Template: doc}, &MigrationError{TemplateID: templateID, StepIndex: -1, Err: err}
	}

	if currentVersion.Equal(latest.Version) {
		return Result{
			Success:  true,
			Template: doc,
			Warnings: []string{fmt.Sprintf("template %s is already at latest version %s", templateID, latest.Version)},
		}, nil
	}

	path, err := e.pathfinder.FindPath(templateID, currentVersion, latest.Version)
	if err != nil {
		return Result{Template: doc}, &MigrationError{TemplateID: templateID, StepIndex: -1, Err: err}
	}
	return e.Migrate(ctx, templateID, doc, path, backupDir)
}

// Rollback restores a previously captured snapshot. It is a pure restore:
// per-step rollback functions are never consulted. Failures are always
// *RollbackError values, never panics.
func (e *Executor) Rollback(backupPath string) (document.Document, error) {
	return readBackup(backupPath)
}

func (e *Executor) publish(eventType pubsub.EventType, event StepEvent) {
	if e.opts.Events != nil {
		e.opts.Events.Publish(eventType, event)
	}
}

func joinOrDefault(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	out := items[0]
	for _, item := range items[1:] {
		out += "; " + item
	}
	return out
}
