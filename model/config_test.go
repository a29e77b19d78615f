package model

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, DefaultExportsFile, cfg.ExportsFile)
	assert.Equal(t, DefaultExportfsBin, cfg.ExportfsBin)
	assert.Equal(t, 30*time.Second, cfg.LockTimeout)
	assert.True(t, cfg.CheckMountpoint)
	assert.Equal(t, DefaultExportsFile+".lock", cfg.LockPath())
}

func TestConfigOverrides(t *testing.T) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{
		"NFS_EXPORTS_FILE":     "/tmp/x.exports",
		"NFS_EXPORTS_LOCK":     "/run/x.lock",
		"NFS_LOCK_TIMEOUT":     "0s",
		"NFS_CHECK_MOUNTPOINT": "false",
	}})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.exports", cfg.ExportsFile)
	assert.Equal(t, "/run/x.lock", cfg.LockPath())
	assert.Zero(t, cfg.LockTimeout)
	assert.False(t, cfg.CheckMountpoint)
}

func TestAgentConfigRequiresTokens(t *testing.T) {
	_, err := env.ParseAsWithOptions[AgentConfig](env.Options{Environment: map[string]string{}})
	assert.Error(t, err)

	cfg, err := env.ParseAsWithOptions[AgentConfig](env.Options{Environment: map[string]string{
		"AGENT_TOKENS": "ops:secret",
	}})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Minute, cfg.CommitInterval)
	assert.Equal(t, DefaultExportsFile, cfg.ExportsFile)
}
