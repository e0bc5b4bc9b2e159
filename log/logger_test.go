package log_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mwantia/cmdparse/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    log.LogLevel
		wantErr bool
	}{
		{"debug", log.Debug, false},
		{"INFO", log.Info, false},
		{"", log.Info, false},
		{"warning", log.Warn, false},
		{"error", log.Error, false},
		{"off", log.Off, false},
		{"loud", log.Info, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := log.Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("parser", log.Warn, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("shown %d", 3)
	logger.Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  [parser] shown 3")
	assert.Contains(t, out, "ERROR [parser] shown 4")
}

func TestLogger_NamedAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("service", log.Debug, &buf)

	logger.Named("parser").With("token", "abc").With("param", "count").Debug("rewinding")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[service/parser]")
	assert.True(t, strings.HasSuffix(line, "rewinding param=count token=abc"), line)
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("service", log.Info, &buf)
	logger.JSON = true

	logger.With("command", "echo").Info("executed in %dms", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "service", entry["service"])
	assert.Equal(t, "executed in 3ms", entry["message"])
	assert.Equal(t, map[string]any{"command": "echo"}, entry["fields"])
}

func TestLogger_NopAndNil(t *testing.T) {
	logger := log.NewNopLogger()
	assert.False(t, logger.Enabled(log.Error))
	logger.Error("nothing")

	var nilLogger *log.Logger
	assert.False(t, nilLogger.Enabled(log.Debug))
	nilLogger.Info("must not panic")
}
