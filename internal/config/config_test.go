package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, filepath.Join("config", "services.json"), cfg.ServicesFile)
	assert.Equal(t, "compose", cfg.ComposeDir)
	assert.Equal(t, filepath.Join("static", "images"), cfg.FallbackImagesDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 256, cfg.Retention)
	assert.Equal(t, 15*time.Second, cfg.KumaCacheTTL)
	assert.Empty(t, cfg.KumaURL)
	assert.NotEmpty(t, cfg.JobsDB)
}

func TestLoadServiceRootDerivations(t *testing.T) {
	t.Setenv("SERVICE_ROOT", "/srv/dockhand")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/dockhand", "services.json"), cfg.ServicesFile)
	assert.Equal(t, filepath.Join("/srv/dockhand", "images"), cfg.ImagesDir)
	assert.Equal(t, "/srv/dockhand", cfg.ComposeDir, "compose dir defaults to the service root")
}

func TestLoadComposeDirOverride(t *testing.T) {
	t.Setenv("SERVICE_ROOT", "/srv/dockhand")
	t.Setenv("COMPOSE_DIR", "/srv/stacks")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/stacks", cfg.ComposeDir)
}

func TestLoadKumaSettings(t *testing.T) {
	t.Setenv("UPTIME_KUMA_URL", "http://kuma.local:3001/")
	t.Setenv("UPTIME_KUMA_API_KEY", "uk1_secret")
	t.Setenv("KUMA_CACHE_TTL", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://kuma.local:3001/", cfg.KumaURL)
	assert.Equal(t, "uk1_secret", cfg.KumaAPIKey)
	assert.Equal(t, time.Minute, cfg.KumaCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DOCKHAND_ADDR", "127.0.0.1:8080")
	t.Setenv("DOCKHAND_WORKERS", "2")
	t.Setenv("DOCKHAND_RETENTION", "16")
	t.Setenv("DOCKHAND_JOBS_DB", "/var/lib/dockhand/jobs.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 16, cfg.Retention)
	assert.Equal(t, "/var/lib/dockhand/jobs.db", cfg.JobsDB)
}

func TestLoadRejectsBadWorkerCount(t *testing.T) {
	t.Setenv("DOCKHAND_WORKERS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCKHAND_WORKERS")
}

func TestLoadRejectsBadRetention(t *testing.T) {
	t.Setenv("DOCKHAND_RETENTION", "-5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCKHAND_RETENTION")
}

func TestLoadClampsNegativeTTL(t *testing.T) {
	t.Setenv("KUMA_CACHE_TTL", "-1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.KumaCacheTTL)
}
