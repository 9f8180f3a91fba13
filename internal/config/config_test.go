package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fortio.org/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyUsesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "kaulin> ", cfg.Prompt)
	assert.Equal(t, 10000, cfg.MaxCallDepth)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Color)
}

func TestDecodeOverridesFields(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
prompt: "> "
history_file: /tmp/kaulin_history
max_call_depth: 500
log_level: verbose
color: false
`))
	require.NoError(t, err)
	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, "/tmp/kaulin_history", cfg.HistoryFile)
	assert.Equal(t, 500, cfg.MaxCallDepth)
	assert.False(t, cfg.Color)
	assert.Equal(t, log.Verbose, cfg.Level())
}

func TestDecodeZeroDepthFallsBackToDefault(t *testing.T) {
	cfg, err := Decode(strings.NewReader("max_call_depth: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.MaxCallDepth)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "promt: x\n"},
		{"negative depth", "max_call_depth: -1\n"},
		{"bad level", "log_level: kovaa\n"},
		{"wrong type", "max_call_depth: paljon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDecodeExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg, err := Decode(strings.NewReader("history_file: ~/hist\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "hist"), cfg.HistoryFile)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puuttuu.yml")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, Default().Prompt, cfg.Prompt)

	_, err = Load(path, true)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("prompt: \"ka> \"\n"), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "ka> ", cfg.Prompt)
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("outo: 1\n"), 0o644))

	_, err := Load(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
