package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/templar/internal/document"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadDocument_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "web.json", `{"name": "web", "port": 8080}`)

	doc, err := readDocument(path)
	require.NoError(t, err)
	require.Equal(t, "web", doc["name"])
	require.Equal(t, json.Number("8080"), doc["port"])
}

func TestReadDocument_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "web.yaml", "name: web\nport: 8080\n")

	doc, err := readDocument(path)
	require.NoError(t, err)
	require.Equal(t, "web", doc["name"])
	require.Equal(t, 8080, doc["port"])
}

func TestReadDocument_Missing(t *testing.T) {
	_, err := readDocument(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading document")
}

func TestReadDocument_MalformedJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "web.json", `{"name":`)

	_, err := readDocument(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing JSON document")
}

func TestWriteDocument_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	doc := document.Document{"name": "web", "replicas": json.Number("3")}

	require.NoError(t, writeDocument(path, doc))

	got, err := readDocument(path)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestValidateManifest_Clean(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "templar.yaml", `
templates:
  - id: web
    versions:
      - version: 1.0.0
      - version: 1.1.0
`)

	ok, err := validateManifest(path)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateManifest_ReportsProblems(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "templar.yaml", `
templates:
  - id: web
    versions:
      - version: not-a-version
`)

	ok, err := validateManifest(path)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateManifest_MissingFile(t *testing.T) {
	_, err := validateManifest(filepath.Join(t.TempDir(), "templar.yaml"))
	require.Error(t, err)
}
