package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLogLevelSources(t *testing.T) {
	cfg, _, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Setenv("DUET_LOG_LEVEL", "debug")
	cfg, _, err = loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "env applies without the flag")

	cfg, _, err = loadConfig([]string{"--log-level=error"})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, opts, err := loadConfig([]string{"--loopback", "--user", "alice", "--name", "Alice", "--policy", "reject"})
	require.NoError(t, err)
	assert.True(t, opts.loopback)
	assert.Equal(t, "alice", cfg.Client.UserID)
	assert.Equal(t, "Alice", cfg.Client.DisplayName)
	assert.Equal(t, "reject", cfg.Call.InvitePolicy)

	_, _, err = loadConfig([]string{"--policy", "ignore"})
	require.Error(t, err)
	_, _, err = loadConfig([]string{"--no-such-flag"})
	require.Error(t, err)
}

func TestSetLogLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	require.NoError(t, setLogLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	require.NoError(t, setLogLevel(""))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	require.Error(t, setLogLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
