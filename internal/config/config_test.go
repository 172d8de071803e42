package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 115200, cfg.Baud)
	require.Equal(t, "frame.dump", cfg.DumpPath)
	require.Equal(t, "elf.dump", cfg.FlashPath)
	require.Equal(t, 2*time.Second, cfg.Transport.WarmupDelay)
}

func TestLoadOverlaysOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
device = "/dev/ttyUSB0"
warmup_ms = 500
backoff_multiplier = 3.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", cfg.Device)
	require.Equal(t, 500*time.Millisecond, cfg.Transport.WarmupDelay)
	require.Equal(t, 3.0, cfg.Transport.Backoff.Multiplier)
	// untouched keys keep their defaults
	require.Equal(t, 115200, cfg.Baud)
	require.Equal(t, 100*time.Millisecond, cfg.Transport.ReadTimeout)
}

func TestLoadRejectsInvalidBaud(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `baud = 0`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsZeroWriteAttempts(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `write_attempts = 0`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadMalformedToml(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `device = [`)
	_, err := Load(path)
	require.Error(t, err)
}
