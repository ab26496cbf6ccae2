package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.DefaultTeamSize)
	assert.Equal(t, 30*time.Second, cfg.GracePeriod)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.RewardInterval)
	assert.Equal(t, 6, cfg.RewardRounds)
	assert.Equal(t, 3, cfg.OfferSize)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("LOBBY_ADDR", ":9000")
	t.Setenv("LOBBY_GRACE_PERIOD", "1m")
	t.Setenv("LOBBY_DEFAULT_TEAM_SIZE", "3")
	t.Setenv("LOBBY_ALLOWED_ORIGINS", "example.com,*.example.org")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, time.Minute, cfg.GracePeriod)
	assert.Equal(t, 3, cfg.DefaultTeamSize)
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.AllowedOrigins)
}

func TestParseError(t *testing.T) {
	t.Setenv("LOBBY_GRACE_PERIOD", "soon")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	t.Setenv("LOBBY_DEFAULT_TEAM_SIZE", "9")
	t.Setenv("LOBBY_OFFER_SIZE", "0")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOBBY_DEFAULT_TEAM_SIZE")
	assert.Contains(t, err.Error(), "LOBBY_OFFER_SIZE")

	cfg := Config{DefaultTeamSize: 0, RewardRounds: -1}
	assert.Len(t, multierr.Errors(unwrap(cfg.Validate())), 6)
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOBBY_REWARD_ROUNDS=2\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOBBY_REWARD_ROUNDS") })

	// process environment beats the file
	t.Setenv("LOBBY_OFFER_SIZE", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.RewardRounds)
	assert.Equal(t, 4, cfg.OfferSize)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func unwrap(err error) error {
	type wrapper interface{ Unwrap() error }
	if w, ok := err.(wrapper); ok {
		return w.Unwrap()
	}
	return err
}
