package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Addr string

	Grace          time.Duration
	SweepInterval  time.Duration
	ChallengeTTL   time.Duration
	GroupTeardown  time.Duration
	StartSettle    time.Duration
	ArchiveTimeout time.Duration

	MaxTotalMinutes float64
	MaxIncrementSec float64

	RedisURL         string
	DatabaseURL      string
	ResultWebhookURL string
	MessagesDir      string
}

// Defaults returns the configuration used when no env var is set.
func Defaults() *AppConfig {
	return &AppConfig{
		Addr:            ":3000",
		Grace:           300 * time.Millisecond,
		SweepInterval:   2 * time.Second,
		ChallengeTTL:    15 * time.Second,
		GroupTeardown:   60 * time.Second,
		StartSettle:     time.Second,
		ArchiveTimeout:  10 * time.Second,
		MaxTotalMinutes: 180,
		MaxIncrementSec: 180,
	}
}

// Load reads the environment after applying an optional .env file. Variables that
// are already set win over .env entries.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*AppConfig, error) {
	cfg := Defaults()

	if v := strings.TrimSpace(os.Getenv("ARENA_ADDR")); v != "" {
		cfg.Addr = v
	}
	cfg.Grace = envMillis("GRACE_MS", cfg.Grace, true)
	cfg.SweepInterval = envMillis("SWEEP_INTERVAL_MS", cfg.SweepInterval, false)
	cfg.StartSettle = envMillis("START_SETTLE_MS", cfg.StartSettle, true)
	cfg.ChallengeTTL = envSeconds("CHALLENGE_TTL_SEC", cfg.ChallengeTTL)
	cfg.GroupTeardown = envSeconds("GROUP_TEARDOWN_SEC", cfg.GroupTeardown)
	cfg.ArchiveTimeout = envSeconds("ARCHIVE_TIMEOUT_SEC", cfg.ArchiveTimeout)

	if v := strings.TrimSpace(os.Getenv("MAX_TOTAL_MINUTES")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.MaxTotalMinutes = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_INCREMENT_SEC")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.MaxIncrementSec = f
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.ResultWebhookURL = strings.TrimSpace(os.Getenv("RESULT_WEBHOOK_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the arena cannot run with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("ARENA_ADDR is required")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL_MS must be positive")
	}
	if c.SweepInterval <= c.Grace {
		return errors.New("SWEEP_INTERVAL_MS must exceed GRACE_MS")
	}
	if c.ChallengeTTL <= 0 {
		return errors.New("CHALLENGE_TTL_SEC must be positive")
	}
	return nil
}

func envMillis(key string, def time.Duration, allowZero bool) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
