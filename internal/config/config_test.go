package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6, cfg.MinPlayers)
	assert.Equal(t, 20, cfg.MaxPlayers)

	s := cfg.RoomSettings()
	assert.Equal(t, 30, s.NightDuration)
	assert.Equal(t, 60, s.DayDuration)
	assert.True(t, s.EnableDoctor)
	assert.True(t, s.EnableDetective)

	timing := cfg.Timing()
	assert.Equal(t, 3*time.Second, timing.RoleReveal)
	assert.Equal(t, 10*time.Second, timing.DisconnectWait)
	assert.Equal(t, 30*time.Minute, timing.RoomExpiry)
	assert.Equal(t, 500*time.Millisecond, timing.VoteGrace)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("NIGHT_DURATION_SECONDS", "45")
	t.Setenv("ENABLE_DOCTOR", "false")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 45, cfg.RoomSettings().NightDuration)
	assert.False(t, cfg.RoomSettings().EnableDoctor)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mafia.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_players: 4\nmax_players: 8\nfrontend_url: https://a.example, https://b.example\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MinPlayers)
	assert.Equal(t, 8, cfg.MaxPlayers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MIN_PLAYERS", "8")
	t.Setenv("MAX_PLAYERS", "6")

	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
