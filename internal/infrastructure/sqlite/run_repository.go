package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/templar/internal/history"
)

// runColumns is the list of columns to select for run queries.
const runColumns = `id, guid, template_id, from_version, to_version, success,
	steps_applied, errors, warnings, backup_path, duration_ms, created_at`

// runRepository implements history.Repository using SQLite.
type runRepository struct {
	db *sql.DB
}

func newRunRepository(db *sql.DB) *runRepository {
	return &runRepository{db: db}
}

// Ensure runRepository implements history.Repository.
var _ history.Repository = (*runRepository)(nil)

// scanRun scans a row into a RunModel.
func scanRun(scanner interface{ Scan(...any) error }) (*RunModel, error) {
	var model RunModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.TemplateID, &model.FromVersion, &model.ToVersion,
		&model.Success, &model.StepsApplied, &model.Errors, &model.Warnings,
		&model.BackupPath, &model.DurationMS, &model.CreatedAt,
	)
	return &model, err
}

// Save persists a run. New runs (ID == 0) are inserted and assigned their
// database identity; existing runs are updated in place.
func (r *runRepository) Save(run *history.Run) error {
	model := toRunModel(run)

	if run.ID() == 0 {
		result, err := r.db.Exec(
			`INSERT INTO runs (
				guid, template_id, from_version, to_version, success,
				steps_applied, errors, warnings, backup_path, duration_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			model.GUID, model.TemplateID, model.FromVersion, model.ToVersion, model.Success,
			model.StepsApplied, model.Errors, model.Warnings, model.BackupPath,
			model.DurationMS, model.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		run.SetID(id)
		return nil
	}

	_, err := r.db.Exec(
		`UPDATE runs SET
			success = ?, steps_applied = ?, errors = ?, warnings = ?,
			backup_path = ?, duration_ms = ?
		WHERE id = ?`,
		model.Success, model.StepsApplied, model.Errors, model.Warnings,
		model.BackupPath, model.DurationMS, model.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// FindByGUID retrieves a run by its external identifier.
// Returns *history.RunNotFoundError if no matching run exists.
func (r *runRepository) FindByGUID(guid string) (*history.Run, error) {
	row := r.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE guid = ?`,
		guid,
	)
	model, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &history.RunNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run by guid: %w", err)
	}
	return model.toDomain(), nil
}

// ListForTemplate retrieves a template's runs ordered by created_at
// descending (newest first). A limit of zero means no limit.
func (r *runRepository) ListForTemplate(templateID string, limit int) ([]*history.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE template_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{templateID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*history.Run
	for rows.Next() {
		model, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

// Close releases any resources held by the repository.
// This is a no-op because the connection is owned by the DB struct.
func (r *runRepository) Close() error {
	return nil
}
