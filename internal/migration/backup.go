package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/log"
)

// maxBackupSize caps rollback reads; larger backup files fail closed.
const maxBackupSize = 2 << 20 // 2 MiB

// backupTimeLayout is ISO-8601 with millisecond precision; colons and dots
// are replaced with dashes for the filename.
const backupTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// backupFileName builds {templateId}_{sanitized-timestamp}_backup.json.
func backupFileName(templateID string, now time.Time) string {
	stamp := now.UTC().Format(backupTimeLayout)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s_%s_backup.json", templateID, stamp)
}

// writeBackup serializes the document's current state to a timestamped file
// inside dir, creating the directory recursively if absent.
func writeBackup(dir, templateID string, doc document.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	data, err := document.MarshalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("serializing backup: %w", err)
	}

	path := filepath.Join(dir, backupFileName(templateID, time.Now()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}

	log.Info(log.CatBackup, "captured backup", "template", templateID, "path", path)
	return path, nil
}

// readBackup reads and parses a backup snapshot. Every failure is a
// *RollbackError: missing file, oversized file, or unparsable content.
func readBackup(path string) (document.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &RollbackError{BackupPath: path, Reason: "backup file unreadable", Err: err}
	}
	if info.Size() > maxBackupSize {
		return nil, &RollbackError{
			BackupPath: path,
			Reason:     fmt.Sprintf("backup file exceeds %d byte limit (%d bytes)", maxBackupSize, info.Size()),
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the caller-recorded backup location
	if err != nil {
		return nil, &RollbackError{BackupPath: path, Reason: "backup file unreadable", Err: err}
	}

	doc, err := document.UnmarshalJSON(data)
	if err != nil {
		return nil, &RollbackError{BackupPath: path, Reason: "backup file malformed", Err: err}
	}

	log.Info(log.CatBackup, "restored backup", "path", path)
	return doc, nil
}
