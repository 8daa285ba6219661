// Package presentation converts domain results into the JSON shapes the CLI
// prints.
package presentation

import (
	"sort"

	"github.com/zjrosen/templar/internal/history"
	"github.com/zjrosen/templar/internal/migration"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/resolver"
)

// VersionDTO is one registered version in versions:list output.
type VersionDTO struct {
	Version        string            `json:"version"`
	ReleaseDate    string            `json:"releaseDate,omitempty"`
	CompatibleWith string            `json:"compatibleWith,omitempty"`
	Deprecated     *DeprecationDTO   `json:"deprecated,omitempty"`
	MigrationFrom  map[string]string `json:"migrationFrom,omitempty"`
	Latest         bool              `json:"latest,omitempty"`
	LatestStable   bool              `json:"latestStable,omitempty"`
}

// DeprecationDTO mirrors a version's deprecation marker.
type DeprecationDTO struct {
	Message    string `json:"message"`
	ReplacedBy string `json:"replacedBy,omitempty"`
}

// TemplateDTO is one template's block in versions:list output.
type TemplateDTO struct {
	TemplateID   string       `json:"templateId"`
	Latest       string       `json:"latest"`
	LatestStable string       `json:"latestStable,omitempty"`
	Versions     []VersionDTO `json:"versions"`
}

// NewTemplateDTO builds the listing for one registry entry.
func NewTemplateDTO(entry *registry.Entry) TemplateDTO {
	dto := TemplateDTO{
		TemplateID: entry.TemplateID,
		Latest:     entry.Latest.String(),
		Versions:   make([]VersionDTO, 0, len(entry.Versions)),
	}
	if entry.LatestStable != nil {
		dto.LatestStable = entry.LatestStable.String()
	}

	for _, tv := range entry.Versions {
		v := VersionDTO{
			Version:       tv.Version.String(),
			ReleaseDate:   tv.ReleaseDate,
			MigrationFrom: tv.MigrationFrom,
			Latest:        tv.Version.Equal(entry.Latest),
		}
		if tv.CompatibleWith != nil {
			v.CompatibleWith = tv.CompatibleWith.String()
		}
		if tv.Deprecated != nil {
			v.Deprecated = &DeprecationDTO{
				Message:    tv.Deprecated.Message,
				ReplacedBy: tv.Deprecated.ReplacedBy,
			}
		}
		if entry.LatestStable != nil {
			v.LatestStable = tv.Version.Equal(*entry.LatestStable)
		}
		dto.Versions = append(dto.Versions, v)
	}
	return dto
}

// ResolutionDTO is the resolve command's output.
type ResolutionDTO struct {
	Success   bool              `json:"success"`
	Resolved  map[string]string `json:"resolved,omitempty"`
	Conflicts []ConflictDTO     `json:"conflicts,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// ConflictDTO is one unsatisfiable template in resolution output.
type ConflictDTO struct {
	TemplateID string   `json:"templateId"`
	Ranges     []string `json:"ranges"`
}

// NewResolutionDTO converts a resolver result.
func NewResolutionDTO(result resolver.Result) ResolutionDTO {
	dto := ResolutionDTO{
		Success:  result.Success,
		Warnings: result.Warnings,
	}
	if len(result.Resolved) > 0 {
		dto.Resolved = make(map[string]string, len(result.Resolved))
		for id, tv := range result.Resolved {
			dto.Resolved[id] = tv.Version.String()
		}
	}
	for _, c := range result.Conflicts {
		ranges := make([]string, len(c.Ranges))
		for i, r := range c.Ranges {
			ranges[i] = r.String()
		}
		dto.Conflicts = append(dto.Conflicts, ConflictDTO{TemplateID: c.TemplateID, Ranges: ranges})
	}
	sort.Slice(dto.Conflicts, func(i, j int) bool {
		return dto.Conflicts[i].TemplateID < dto.Conflicts[j].TemplateID
	})
	return dto
}

// MigrationDTO is the migrate command's output.
type MigrationDTO struct {
	Success         bool     `json:"success"`
	StepsApplied    int      `json:"stepsApplied"`
	ExecutionTimeMS int64    `json:"executionTimeMs"`
	BackupPath      string   `json:"backupPath,omitempty"`
	Errors          []string `json:"errors,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// NewMigrationDTO converts an executor result.
func NewMigrationDTO(result migration.Result) MigrationDTO {
	return MigrationDTO{
		Success:         result.Success,
		StepsApplied:    result.StepsApplied,
		ExecutionTimeMS: result.ExecutionTime.Milliseconds(),
		BackupPath:      result.BackupPath,
		Errors:          result.Errors,
		Warnings:        result.Warnings,
	}
}

// RunDTO is one recorded run in history:list output.
type RunDTO struct {
	GUID         string   `json:"guid"`
	TemplateID   string   `json:"templateId"`
	FromVersion  string   `json:"fromVersion"`
	ToVersion    string   `json:"toVersion"`
	Success      bool     `json:"success"`
	StepsApplied int      `json:"stepsApplied"`
	DurationMS   int64    `json:"durationMs"`
	BackupPath   string   `json:"backupPath,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	CreatedAt    string   `json:"createdAt"`
}

// NewRunDTO converts a history run.
func NewRunDTO(run *history.Run) RunDTO {
	return RunDTO{
		GUID:         run.GUID(),
		TemplateID:   run.TemplateID(),
		FromVersion:  run.FromVersion(),
		ToVersion:    run.ToVersion(),
		Success:      run.Success(),
		StepsApplied: run.StepsApplied(),
		DurationMS:   run.Duration().Milliseconds(),
		BackupPath:   run.BackupPath(),
		Errors:       run.Errors(),
		Warnings:     run.Warnings(),
		CreatedAt:    run.CreatedAt().UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
