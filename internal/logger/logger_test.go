package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestZapConfig_DefaultsToStderr(t *testing.T) {
	cfg := zapConfig(Config{})
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
	assert.Equal(t, []string{"stderr"}, cfg.ErrorOutputPaths)
	assert.NotContains(t, cfg.OutputPaths, "stdout")

	cfg = zapConfig(Config{OutputPaths: []string{"/tmp/editor.log"}})
	assert.Equal(t, []string{"/tmp/editor.log"}, cfg.OutputPaths)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNew_WritesAtConfiguredLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.log")
	log, err := New(Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Info("hidden")
	log.With(String("document", "home")).Warn("shown", Int("blocks", 3))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"shown"`)
	assert.Contains(t, string(data), `"document":"home"`)
	assert.Contains(t, string(data), `"blocks":3`)
}
