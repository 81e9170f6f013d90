package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:15550", cfg.Addr)
	assert.Equal(t, 65536, cfg.MaxFrame)
	assert.Equal(t, FramingLine, cfg.Framing)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvAddr, "127.0.0.1:16000")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogBuffer, "50")
	t.Setenv(EnvLogFile, "")
	t.Setenv(EnvFraming, FramingFrame)
	t.Setenv(EnvDialBackoff, "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:16000", cfg.Addr)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 50, cfg.LogBuffer)
	assert.Empty(t, cfg.LogFile, "an explicitly empty log file disables file logging")
	assert.Equal(t, FramingFrame, cfg.Framing)
	assert.Equal(t, 250*time.Millisecond, cfg.DialBackoff)
}

func TestLoad_FromDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STASIS_HTTP_ADDR=localhost:9090\nSTASIS_MAX_FRAME=1024\n"), 0o600))

	// godotenv sets process variables; register them for cleanup.
	t.Setenv(EnvHTTPAddr, "")
	t.Setenv(EnvMaxFrame, "")
	os.Unsetenv(EnvHTTPAddr)
	os.Unsetenv(EnvMaxFrame)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", cfg.HTTPAddr)
	assert.Equal(t, 1024, cfg.MaxFrame)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad integer", func(t *testing.T) {
		t.Setenv(EnvLogBuffer, "lots")
		_, err := Load()
		assert.ErrorContains(t, err, EnvLogBuffer)
	})

	t.Run("bad framing", func(t *testing.T) {
		t.Setenv(EnvFraming, "json")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("bad address", func(t *testing.T) {
		t.Setenv(EnvAddr, "no-port")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad backoff", func(t *testing.T) {
		t.Setenv(EnvDialBackoff, "soon")
		_, err := Load()
		assert.ErrorContains(t, err, EnvDialBackoff)
	})
}
