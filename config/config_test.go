// ABOUTME: Tests for loading and validating collector settings
// ABOUTME: Covers defaults, byte sizes, strict decoding and conversion to gc.Config

package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/tricolor/gc"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, gc.DefaultPause, cfg.Pause)
	assert.Equal(t, gc.DefaultStepMul, cfg.StepMul)
	assert.Equal(t, uint64(0), cfg.MemoryLimitBytes())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
pause: 150
stepmul: 400
threshold: 64KB
memory_limit: 2MB
debug: true
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Pause)
	assert.Equal(t, 400, cfg.StepMul)
	assert.Equal(t, uint64(2*1024*1024), cfg.MemoryLimitBytes())
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	g := cfg.GC(nil)
	assert.Equal(t, 150, g.Pause)
	assert.Equal(t, 400, g.StepMul)
	assert.Equal(t, uint64(64*1024), g.Threshold)
	assert.True(t, g.Debug)
	store, ok := g.Storage.(*gc.LimitStorage)
	require.True(t, ok)
	assert.Equal(t, uint64(2*1024*1024), store.Limit)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("debug: true\n"))
	require.NoError(t, err)
	assert.Equal(t, gc.DefaultPause, cfg.Pause)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		invalid bool
	}{
		{"unknown key", "pauses: 3\n", false},
		{"bad yaml", "pause: [\n", false},
		{"zero pause", "pause: 0\n", true},
		{"negative stepmul", "stepmul: -5\n", true},
		{"bad size", "memory_limit: lots\n", true},
		{"threshold above limit", "threshold: 2MB\nmemory_limit: 1MB\n", true},
		{"bad level", "log_level: chatty\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pause: 300\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Pause)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte("pause: 120\nmemory_limit: 1MB\n"))
	require.NoError(t, err)
	data, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Pause, back.Pause)
	assert.Equal(t, cfg.MemoryLimitBytes(), back.MemoryLimitBytes())
}

func TestLogger(t *testing.T) {
	cfg, err := Parse([]byte("log_level: warn\n"))
	require.NoError(t, err)
	var buf bytes.Buffer
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
