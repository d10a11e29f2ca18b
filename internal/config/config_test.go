package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/duet/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.LoadFile(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.Call.RingTimeout)
	assert.Equal(t, 15*time.Second, cfg.Call.JoinGrace)
	assert.Equal(t, 2, cfg.Call.MaxParticipants)
	assert.Equal(t, "replace", cfg.Call.InvitePolicy)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
}

func TestFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	body := []byte("port: 9090\ncall:\n  ring_timeout: 30s\n  invite_policy: reject\nclient:\n  user_id: alice\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("DUET_CLIENT_DISPLAY_NAME", "Alice")

	cfg, err := config.LoadFile(config.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Call.RingTimeout)
	assert.Equal(t, "reject", cfg.Call.InvitePolicy)
	assert.Equal(t, "alice", cfg.Client.UserID)
	assert.Equal(t, "Alice", cfg.Client.DisplayName)
}

func TestValidate(t *testing.T) {
	v := config.New()
	v.Set("call.max_participants", 3)
	_, err := config.LoadFile(v, "")
	assert.ErrorIs(t, err, config.ErrInvalid)

	v = config.New()
	v.Set("call.invite_policy", "queue")
	_, err = config.LoadFile(v, "")
	assert.ErrorIs(t, err, config.ErrInvalid)
}
