package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEAGUE_JWT_KEY", "secret")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, ":8443", cfg.Addr)
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.Equal(t, 64, cfg.MaxRoundDepth)
	require.False(t, cfg.Dev)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	t.Setenv("LEAGUE_JWT_KEY", "secret")
	t.Setenv("LEAGUE_ADDR", ":9000")
	t.Setenv("LEAGUE_DEV", "true")
	t.Setenv("LEAGUE_MAX_ROUND_DEPTH", "8")

	cfg, err := Load([]string{"--addr", ":9443", "--access-ttl", "15m"})
	require.NoError(t, err)
	require.Equal(t, ":9443", cfg.Addr, "flag wins")
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.True(t, cfg.Dev)
	require.Equal(t, 8, cfg.MaxRoundDepth)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("LEAGUE_DSN=postgres://file/league\n"), 0o600))
	t.Setenv("LEAGUE_JWT_KEY", "secret")
	// registered so the variable is restored once the test ends
	t.Setenv("LEAGUE_DSN", "")
	require.NoError(t, os.Unsetenv("LEAGUE_DSN"))

	cfg, err := Load(nil, filepath.Join(dir, "missing.env"), file)
	require.NoError(t, err)
	require.Equal(t, "postgres://file/league", cfg.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LEAGUE_JWT_KEY", "")
	_, err := Load(nil)
	require.ErrorContains(t, err, "jwt signing key")

	t.Setenv("LEAGUE_JWT_KEY", "secret")
	_, err = Load([]string{"--max-round-depth", "0"})
	require.ErrorContains(t, err, "max round depth")

	t.Setenv("LEAGUE_ACCESS_TTL", "soon")
	_, err = Load(nil)
	require.Error(t, err)

	t.Setenv("LEAGUE_ACCESS_TTL", "1h")
	_, err = Load([]string{"--unknown"})
	require.Error(t, err)
}
