package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/templar/internal/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())
	require.NotNil(t, provider.Tracer(), "disabled provider still hands out a usable tracer")

	// Spans on the no-op tracer are inert but safe.
	_, span := provider.Tracer().Start(context.Background(), "test")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "carrier-pigeon"})
	require.ErrorContains(t, err, "unsupported exporter type")
}

func TestNewProvider_FileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "file"})
	require.ErrorContains(t, err, "file_path required")
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	provider, err := NewProvider(config.TracingConfig{
		Enabled:  true,
		Exporter: "file",
		FilePath: tracePath,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "migration.path")
	span.SetAttributes(attribute.String("template.id", "web"))
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	file, err := os.Open(tracePath)
	require.NoError(t, err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan(), "at least one span line should be written")

	var record SpanRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	require.Equal(t, "migration.path", record.Name)
	require.Equal(t, "web", record.Attributes["template.id"])
	require.NotEmpty(t, record.TraceID)
	require.NotEmpty(t, record.SpanID)
}
