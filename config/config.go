// Package config reads service settings from the environment, optionally
// seeded from .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/seo-optimizer/metacheck/logging"
)

// Config holds every setting of the HTTP service.
type Config struct {
	Port    string
	GinMode string
	// DevMode exposes detailed statistics.
	DevMode bool
	DataDir string

	Log logging.Config

	FetchTimeout    time.Duration
	FetchProxies    []string
	FetchMaxBody    int64
	CacheTTL        time.Duration
	CacheMaxEntries int
	// RedisAddr enables the shared report cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		Port:            "8082",
		GinMode:         gin.ReleaseMode,
		DataDir:         "data",
		Log:             logging.Config{Level: "info", Format: logging.FormatConsole},
		FetchTimeout:    15 * time.Second,
		FetchMaxBody:    5 << 20,
		CacheTTL:        30 * time.Minute,
		CacheMaxEntries: 1000,
		RateLimitRPS:    2,
		RateLimitBurst:  5,
		AllowedOrigins:  []string{"*"},
	}
}

// LoadEnvFiles loads .env.development if present, else .env. Variables
// already set in the environment win. It reports which file was loaded, or
// "" when neither exists.
func LoadEnvFiles(dir string) string {
	for _, name := range []string{".env.development", ".env"} {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Default()

	cfg.Port = stringVar("PORT", cfg.Port)
	cfg.GinMode = stringVar("GIN_MODE", cfg.GinMode)
	cfg.DataDir = stringVar("DATA_DIR", cfg.DataDir)
	cfg.Log.Level = stringVar("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = stringVar("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = stringVar("LOG_FILE", cfg.Log.File)
	cfg.RedisAddr = stringVar("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = stringVar("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.FetchProxies = listVar("FETCH_PROXIES", cfg.FetchProxies)
	cfg.AllowedOrigins = listVar("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	var err error
	if cfg.DevMode, err = boolVar("DEV_MODE", cfg.DevMode); err != nil {
		return cfg, err
	}
	if cfg.FetchTimeout, err = durationVar("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return cfg, err
	}
	if cfg.FetchMaxBody, err = int64Var("FETCH_MAX_BODY", cfg.FetchMaxBody); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = durationVar("CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}
	maxEntries, err := int64Var("CACHE_MAX_ENTRIES", int64(cfg.CacheMaxEntries))
	if err != nil {
		return cfg, err
	}
	cfg.CacheMaxEntries = int(maxEntries)
	if cfg.RateLimitRPS, err = floatVar("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return cfg, err
	}
	burst, err := int64Var("RATE_LIMIT_BURST", int64(cfg.RateLimitBurst))
	if err != nil {
		return cfg, err
	}
	cfg.RateLimitBurst = int(burst)
	if v, ok := lookup("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return cfg, fmt.Errorf("REDIS_DB: invalid database index %q", v)
		}
		cfg.RedisDB = db
	}

	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return cfg, fmt.Errorf("GIN_MODE: unknown mode %q", cfg.GinMode)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func stringVar(name, def string) string {
	if v, ok := lookup(name); ok {
		return v
	}
	return def
}

func listVar(name string, def []string) []string {
	v, ok := lookup(name)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func boolVar(name string, def bool) (bool, error) {
	v, ok := lookup(name)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	return b, nil
}

func durationVar(name string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(name)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("%s: invalid duration %q", name, v)
	}
	return d, nil
}

func int64Var(name string, def int64) (int64, error) {
	v, ok := lookup(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: invalid positive integer %q", name, v)
	}
	return n, nil
}

func floatVar(name string, def float64) (float64, error) {
	v, ok := lookup(name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def, fmt.Errorf("%s: invalid positive number %q", name, v)
	}
	return f, nil
}
