package sqlite

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/templar/internal/history"
)

// RunModel represents the database row for the runs table. Time values are
// Unix milliseconds for duration and Unix seconds for timestamps; string
// slices are JSON encoded.
type RunModel struct {
	ID           int64
	GUID         string
	TemplateID   string
	FromVersion  string
	ToVersion    string
	Success      bool
	StepsApplied int
	Errors       *string // nullable, JSON encoded
	Warnings     *string // nullable, JSON encoded
	BackupPath   *string // nullable
	DurationMS   int64
	CreatedAt    int64 // Unix timestamp
}

// toRunModel converts a domain run to its database row.
func toRunModel(r *history.Run) *RunModel {
	m := &RunModel{
		ID:           r.ID(),
		GUID:         r.GUID(),
		TemplateID:   r.TemplateID(),
		FromVersion:  r.FromVersion(),
		ToVersion:    r.ToVersion(),
		Success:      r.Success(),
		StepsApplied: r.StepsApplied(),
		DurationMS:   r.Duration().Milliseconds(),
		CreatedAt:    r.CreatedAt().Unix(),
	}
	if encoded := encodeStrings(r.Errors()); encoded != "" {
		m.Errors = &encoded
	}
	if encoded := encodeStrings(r.Warnings()); encoded != "" {
		m.Warnings = &encoded
	}
	if r.BackupPath() != "" {
		backupPath := r.BackupPath()
		m.BackupPath = &backupPath
	}
	return m
}

// toDomain converts a database row back to a domain run.
func (m *RunModel) toDomain() *history.Run {
	var backupPath string
	if m.BackupPath != nil {
		backupPath = *m.BackupPath
	}
	return history.ReconstituteRun(
		m.ID,
		m.GUID,
		m.TemplateID,
		m.FromVersion,
		m.ToVersion,
		m.Success,
		m.StepsApplied,
		decodeStrings(m.Errors),
		decodeStrings(m.Warnings),
		backupPath,
		time.Duration(m.DurationMS)*time.Millisecond,
		time.Unix(m.CreatedAt, 0),
	)
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func decodeStrings(encoded *string) []string {
	if encoded == nil {
		return nil
	}
	var values []string
	_ = json.Unmarshal([]byte(*encoded), &values)
	return values
}
