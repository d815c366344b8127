package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dockhand/dockhand/internal/paths"
)

// Config is the environment-driven server configuration. A .env file in the
// working directory is honored before the process environment is read.
type Config struct {
	Addr string

	// ServicesFile is the services.json to serve; ComposeDir anchors the
	// relative compose paths inside it.
	ServicesFile string
	ComposeDir   string

	// ImagesDir is the user-provided icon directory (may not exist);
	// FallbackImagesDir holds the bundled placeholder icons.
	ImagesDir         string
	FallbackImagesDir string

	KumaURL      string
	KumaAPIKey   string
	KumaCacheTTL time.Duration

	Workers   int
	Retention int
	JobsDB    string
}

// Load reads configuration from the environment.
//
// Recognized variables: DOCKHAND_ADDR, SERVICE_ROOT, COMPOSE_DIR,
// UPTIME_KUMA_URL, UPTIME_KUMA_API_KEY, KUMA_CACHE_TTL, DOCKHAND_WORKERS,
// DOCKHAND_RETENTION, DOCKHAND_JOBS_DB.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("DOCKHAND_ADDR", ":5000")
	v.SetDefault("DOCKHAND_WORKERS", 4)
	v.SetDefault("DOCKHAND_RETENTION", 256)
	v.SetDefault("DOCKHAND_JOBS_DB", paths.DefaultJobsDBPath())
	v.SetDefault("KUMA_CACHE_TTL", 15)
	v.SetDefault("SERVICE_ROOT", "")
	v.SetDefault("COMPOSE_DIR", "")
	v.SetDefault("UPTIME_KUMA_URL", "")
	v.SetDefault("UPTIME_KUMA_API_KEY", "")
	v.AutomaticEnv()

	cfg := &Config{
		Addr:         v.GetString("DOCKHAND_ADDR"),
		KumaURL:      v.GetString("UPTIME_KUMA_URL"),
		KumaAPIKey:   v.GetString("UPTIME_KUMA_API_KEY"),
		KumaCacheTTL: time.Duration(v.GetInt("KUMA_CACHE_TTL")) * time.Second,
		Workers:      v.GetInt("DOCKHAND_WORKERS"),
		Retention:    v.GetInt("DOCKHAND_RETENTION"),
		JobsDB:       v.GetString("DOCKHAND_JOBS_DB"),
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("DOCKHAND_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Retention < 1 {
		return nil, fmt.Errorf("DOCKHAND_RETENTION must be at least 1, got %d", cfg.Retention)
	}
	if cfg.KumaCacheTTL < 0 {
		cfg.KumaCacheTTL = 0
	}

	serviceRoot := v.GetString("SERVICE_ROOT")
	composeDir := v.GetString("COMPOSE_DIR")
	if serviceRoot != "" {
		cfg.ServicesFile = filepath.Join(serviceRoot, "services.json")
		cfg.ImagesDir = filepath.Join(serviceRoot, "images")
		if composeDir == "" {
			composeDir = serviceRoot
		}
	} else {
		cfg.ServicesFile = filepath.Join("config", "services.json")
		if composeDir == "" {
			composeDir = "compose"
		}
	}
	cfg.ComposeDir = composeDir
	cfg.FallbackImagesDir = filepath.Join("static", "images")

	return cfg, nil
}
