package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", false)
	log.Info("hidden")
	log.Warn("postcondition failed", "selector", "0x12345678")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "time=")
	assert.Contains(t, out, `msg="postcondition failed" selector=0x12345678`)

	buf.Reset()
	newLogger(&buf, "error", true).Debug("cut sent")
	assert.Contains(t, buf.String(), "cut sent")
	assert.Contains(t, buf.String(), "source=")
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/migrate_protocol.go", shortPath("/home/dev/facet-cli/internal/usecase/migrate_protocol.go"))
	assert.Equal(t, "internal/usecase/x.go", shortPath("/build/src/internal/usecase/x.go"))
	assert.Equal(t, "main.go", shortPath("/tmp/main.go"))
}
