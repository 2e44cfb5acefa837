package libemit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libemit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_MissingFileIsSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/libemit.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxListeners, cfg.Listeners.Max)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
listeners:
  max: 25
log:
  level: debug
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Listeners.Max)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "listeners:\n  max: 25\nlog:\n  level: debug\n")
	t.Setenv("LIBEMIT_LISTENERS_MAX", "30")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Listeners.Max)
	assert.Equal(t, "debug", cfg.Log.Level)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--listeners.max=40"}))

	cfg, err = LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Listeners.Max)
	// unset flags do not override lower layers
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "listeners:\n  max: -3\n")
	_, err := LoadConfig(path, nil)
	require.ErrorIs(t, err, ErrOutOfRange)

	path = writeConfig(t, "log:\n  level: loud\n")
	_, err = LoadConfig(path, nil)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestConfig_Apply(t *testing.T) {
	d := NewDefaults()
	cfg := DefaultConfig()
	cfg.Listeners.Max = 2

	require.NoError(t, cfg.Apply(d))
	assert.Equal(t, 2, d.MaxListeners())

	cfg.Listeners.Max = -1
	require.ErrorIs(t, cfg.Apply(d), ErrOutOfRange)
	assert.Equal(t, 2, d.MaxListeners())
}

func TestConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Log.Level = "error"
	logger := cfg.NewLogger(&buf)

	logger.Warnf("dropped")
	assert.Empty(t, buf.String())

	logger.Errorf("kept %d", 1)
	assert.Contains(t, buf.String(), "kept 1")
}
