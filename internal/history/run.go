// Package history records completed migration runs: which template moved
// between which versions, whether it succeeded, and where the backup lives.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunNotFoundError is returned when a run lookup matches nothing.
type RunNotFoundError struct {
	GUID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("migration run not found: %s", e.GUID)
}

// Run is one recorded migration execution. ID is the database identity (zero
// until saved); GUID is the stable external identifier.
type Run struct {
	id   int64
	guid string

	templateID  string
	fromVersion string
	toVersion   string

	success      bool
	stepsApplied int
	errors       []string
	warnings     []string
	backupPath   string

	duration  time.Duration
	createdAt time.Time
}

// NewRun creates a run record for a just-finished migration.
func NewRun(templateID, fromVersion, toVersion string) *Run {
	return &Run{
		guid:        uuid.NewString(),
		templateID:  templateID,
		fromVersion: fromVersion,
		toVersion:   toVersion,
		createdAt:   time.Now(),
	}
}

// ReconstituteRun rebuilds a run from persisted state.
func ReconstituteRun(
	id int64,
	guid string,
	templateID, fromVersion, toVersion string,
	success bool,
	stepsApplied int,
	errs, warnings []string,
	backupPath string,
	duration time.Duration,
	createdAt time.Time,
) *Run {
	return &Run{
		id:           id,
		guid:         guid,
		templateID:   templateID,
		fromVersion:  fromVersion,
		toVersion:    toVersion,
		success:      success,
		stepsApplied: stepsApplied,
		errors:       errs,
		warnings:     warnings,
		backupPath:   backupPath,
		duration:     duration,
		createdAt:    createdAt,
	}
}

// RecordOutcome captures the execution result on the run.
func (r *Run) RecordOutcome(success bool, stepsApplied int, errs, warnings []string, backupPath string, duration time.Duration) {
	r.success = success
	r.stepsApplied = stepsApplied
	r.errors = errs
	r.warnings = warnings
	r.backupPath = backupPath
	r.duration = duration
}

func (r *Run) ID() int64               { return r.id }
func (r *Run) GUID() string            { return r.guid }
func (r *Run) TemplateID() string      { return r.templateID }
func (r *Run) FromVersion() string     { return r.fromVersion }
func (r *Run) ToVersion() string       { return r.toVersion }
func (r *Run) Success() bool           { return r.success }
func (r *Run) StepsApplied() int       { return r.stepsApplied }
func (r *Run) Errors() []string        { return r.errors }
func (r *Run) Warnings() []string      { return r.warnings }
func (r *Run) BackupPath() string      { return r.backupPath }
func (r *Run) Duration() time.Duration { return r.duration }
func (r *Run) CreatedAt() time.Time    { return r.createdAt }

// SetID assigns the database identity after the first save.
func (r *Run) SetID(id int64) { r.id = id }

// Repository persists migration runs.
type Repository interface {
	// Save inserts new runs (ID zero) and updates existing ones.
	Save(run *Run) error

	// FindByGUID returns a run by its external identifier, or a
	// *RunNotFoundError.
	FindByGUID(guid string) (*Run, error)

	// ListForTemplate returns a template's runs, newest first. A limit of
	// zero means no limit.
	ListForTemplate(templateID string, limit int) ([]*Run, error)

	// Close releases repository resources.
	Close() error
}
