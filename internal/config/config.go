package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ConfigFile string // path to the whatip.yaml file (optional, empty = built-in defaults only)

	DetectTimeout  time.Duration // overall budget for one public address detection
	DetectWorkers  int           // concurrent probes in race mode (default: 3)
	ResolveWorkers int           // concurrent lookups in batch resolution (default: 5)

	ReloadInterval time.Duration // interval to re-read the config file (default: 1h)
	SweepInterval  time.Duration // interval to sweep expired cache records (default: 5m)
}

func Load() *Config {
	return &Config{
		// Server settings
		ListenPort:      getenv("WHATIP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("WHATIP_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("WHATIP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("WHATIP_PRETTY_LOG", true),

		// Service/resolver configuration file
		ConfigFile: getenv("WHATIP_CONFIG_FILE", ""),

		// Detection
		DetectTimeout:  mustDuration("WHATIP_DETECT_TIMEOUT", 10*time.Second),
		DetectWorkers:  getenvInt("WHATIP_DETECT_WORKERS", 3),
		ResolveWorkers: getenvInt("WHATIP_RESOLVE_WORKERS", 5),

		// Background workers
		ReloadInterval: mustDuration("WHATIP_RELOAD_INTERVAL", time.Hour),
		SweepInterval:  mustDuration("WHATIP_SWEEP_INTERVAL", 5*time.Minute),
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
