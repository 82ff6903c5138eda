package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDevLogger tests the development logger's pretty JSON output
func TestDevLogger(t *testing.T) {
	var buf bytes.Buffer
	devLogger := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	devLogger.Info("test message", "key", "value")
	output := buf.String()
	t.Logf("Raw output: %q", output)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output is not valid JSON: %s", output)

	assert.Equal(t, "test message", result["msg"])
	assert.Equal(t, "value", result["key"])
	assert.Equal(t, "INFO", result["level"])
	assert.Contains(t, output, "\n  ", "expected indented output")
}

// TestDevLogger_WithKeepsAttrs tests that derived loggers stay pretty and
// carry their attributes.
func TestDevLogger_WithKeepsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil)).With("run_id", "abc")

	logger.Info("scoped", "n", 3)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "abc", result["run_id"])
	assert.Equal(t, float64(3), result["n"])
	assert.Contains(t, buf.String(), "\n  ")
}

// TestProdLogger tests the production logger's JSON output
func TestProdLogger(t *testing.T) {
	var buf bytes.Buffer
	prodLogger := slog.New(slog.NewJSONHandler(&buf, nil))

	prodLogger.Info("test message", "key", "value")

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "test message", result["msg"])
	assert.Equal(t, "value", result["key"])
	assert.Equal(t, "INFO", result["level"])
}

func TestNew(t *testing.T) {
	tests := []struct {
		format   string
		wantErr  bool
		wantJSON bool
		silent   bool
	}{
		{format: FormatJSON, wantJSON: true},
		{format: FormatPretty, wantJSON: true},
		{format: FormatText},
		{format: FormatNone, silent: true},
		{format: "", silent: true},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("format_"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(tt.format, &buf, slog.LevelInfo)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			logger.Info("hello", "k", "v")
			if tt.silent {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), "hello")
			if tt.wantJSON {
				var result map[string]interface{}
				assert.NoError(t, json.Unmarshal(buf.Bytes(), &result))
			}
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(FormatJSON, &buf, slog.LevelWarn)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

// TestForRun tests that run-scoped loggers tag every record.
func TestForRun(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ForRun(base, "run-1", "my property", 42).Info("property_run_started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "my property", entry["test"])
	assert.Equal(t, float64(42), entry["seed"])
	assert.Equal(t, "property_run_started", entry["msg"])
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard.Enabled(context.Background(), slog.LevelError))
}
