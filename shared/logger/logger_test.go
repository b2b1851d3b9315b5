package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &Config{Level: "debug", Format: "json"})

	log.Debug("poll tick skipped", slog.String("job_id", "j1"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "poll tick skipped", entry["msg"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantLines int
	}{
		{level: "debug", wantLines: 4},
		{level: "info", wantLines: 3},
		{level: "warn", wantLines: 2},
		{level: "error", wantLines: 1},
		{level: "bogus", wantLines: 3}, // unknown level falls back to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, &Config{Level: tt.level, Format: "json"})

			log.Debug("d")
			log.Info("i")
			log.Warn("w")
			log.Error("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Len(t, lines, tt.wantLines)
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &Config{Level: "info", Format: "console"})

	log.Info("job created", slog.String("job_id", "j1"))

	out := buf.String()
	assert.Contains(t, out, "job created")
	assert.Contains(t, out, "j1")
}

func TestNew_NilConfig(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, nil)

	log.Info("started")
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}
