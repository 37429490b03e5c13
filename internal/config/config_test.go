package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTempConfig(t, "symbols: [USD_JPY]\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.TFQE.ATRStopMult)
	assert.Equal(t, 6.0, cfg.Limits.GetPerSec)
	assert.Equal(t, 5000, cfg.ClockSkewMaxMs)
}

func TestLoad_RejectsUnknownSymbol(t *testing.T) {
	path := writeTempConfig(t, "symbols: [XXX_YYY]\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permitted pairs")
}

func TestLoad_RejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsBadSessionClock(t *testing.T) {
	path := writeTempConfig(t, "symbols: [USD_JPY]\ntfqe:\n  session_start: \"25:99\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_start")
}

func TestLoad_TradingEnabledRequiresCredentials(t *testing.T) {
	os.Unsetenv("GMOFX_API_KEY")
	os.Unsetenv("GMOFX_API_SECRET")
	path := writeTempConfig(t, "symbols: [USD_JPY]\ntrading:\n  enabled: true\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GMOFX_API_KEY")
}

func TestLoad_TradingEnabledSucceedsWithEnvCredentials(t *testing.T) {
	t.Setenv("GMOFX_API_KEY", "k")
	t.Setenv("GMOFX_API_SECRET", "s")
	path := writeTempConfig(t, "symbols: [USD_JPY]\ntrading:\n  enabled: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.API.Key)
	assert.Equal(t, "s", cfg.API.Secret)
}

func TestLoad_RejectsNonPositiveRateLimit(t *testing.T) {
	path := writeTempConfig(t, "symbols: [USD_JPY]\nlimits:\n  get_per_sec: 0\n  post_per_sec: 1\n  ws_sub_per_sec: 1\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsPostgresEnabledWithoutDSN(t *testing.T) {
	path := writeTempConfig(t, "symbols: [USD_JPY]\npostgres:\n  enabled: true\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.dsn")
}
