package migration

import (
	"context"
	"time"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/semver"
)

// StepResult is the structured outcome of one migration step. Steps report
// business failures here rather than through the error return, which is
// reserved for exceptional conditions.
type StepResult struct {
	Success  bool
	Doc      document.Document
	Errors   []string
	Warnings []string
}

// MigrateFunc transforms a document across one version boundary.
type MigrateFunc func(ctx context.Context, doc document.Document) (StepResult, error)

// RollbackFunc undoes a step's transformation. Required for reversible
// scripts by validation; not invoked by any automatic reverse walk. Restore
// goes through backup snapshots.
type RollbackFunc func(ctx context.Context, doc document.Document) (document.Document, error)

// Script is one edge in a template's migration chain.
type Script struct {
	ID          string
	FromVersion semver.Version
	ToVersion   semver.Version
	Description string

	Migrate  MigrateFunc
	Rollback RollbackFunc

	// EstimatedDuration feeds the path's total-duration estimate; zero when
	// unknown.
	EstimatedDuration time.Duration

	Reversible bool
}

// ValidateScript returns every contract violation found in a script rather
// than stopping at the first. Registration does not validate; callers run
// this explicitly.
func ValidateScript(s *Script) []error {
	if s == nil {
		return []error{ErrNilScript}
	}

	var problems []error
	switch cmp := s.ToVersion.Compare(s.FromVersion); {
	case cmp == 0:
		problems = append(problems, ErrSameVersion)
	case cmp < 0:
		problems = append(problems, ErrDowngrade)
	}
	if s.Migrate == nil {
		problems = append(problems, ErrMissingMigrateFunc)
	}
	if s.Reversible && s.Rollback == nil {
		problems = append(problems, ErrMissingRollbackFunc)
	}
	return problems
}
