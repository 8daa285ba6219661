package migration

import (
	"errors"
	"fmt"
)

// Path discovery errors
var (
	ErrNoMigrations = errors.New("no migrations registered for template")
	ErrNoPath       = errors.New("no migration path")
	ErrCycle        = errors.New("cycle detected in migration chain")
	ErrOvershoot    = errors.New("migration chain overshoots target version")
)

// Script validation errors
var (
	ErrNilScript           = errors.New("migration script cannot be nil")
	ErrSameVersion         = errors.New("migration source and target versions are identical")
	ErrDowngrade           = errors.New("migration target version must be greater than its source")
	ErrMissingMigrateFunc  = errors.New("migration script has no migrate function")
	ErrMissingRollbackFunc = errors.New("reversible migration script has no rollback function")
)

// MigrationError reports a failed or impossible migration. In strict mode it
// carries the index and id of the first failing step and the underlying cause.
type MigrationError struct {
	TemplateID string
	StepIndex  int    // -1 when no step was reached (path discovery, backup)
	StepID     string // "" when no step was reached
	Err        error
}

func (e *MigrationError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("migration of %s failed at step %d (%s): %v", e.TemplateID, e.StepIndex, e.StepID, e.Err)
	}
	return fmt.Sprintf("migration of %s failed: %v", e.TemplateID, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// RollbackError reports an unreadable or corrupt backup. Rollback fails
// closed: no partial document is ever returned alongside one.
type RollbackError struct {
	BackupPath string
	Reason     string
	Err        error
}

func (e *RollbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rollback from %s failed: %s: %v", e.BackupPath, e.Reason, e.Err)
	}
	return fmt.Sprintf("rollback from %s failed: %s", e.BackupPath, e.Reason)
}

func (e *RollbackError) Unwrap() error { return e.Err }
