package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every runtime setting. It is parsed once in main and handed
// to constructors; nothing reads the environment after startup.
type Config struct {
	Addr       string `env:"LURELAB_ADDR" envDefault:":8080"`
	SQLitePath string `env:"LURELAB_SQLITE_PATH" envDefault:"lurelab.db"`
	LogMode    string `env:"LURELAB_LOG_MODE" envDefault:"dev"`

	// SecretKey keys the session-token MAC. Rotating it invalidates every
	// outstanding auth cookie.
	SecretKey string `env:"LURELAB_SECRET_KEY" envDefault:"change-me-in-production"`

	AuthCookieName   string        `env:"LURELAB_AUTH_COOKIE" envDefault:"lure_auth"`
	AuthCookieMaxAge time.Duration `env:"LURELAB_AUTH_COOKIE_MAX_AGE" envDefault:"336h"` // 14 days

	SessionCookieName   string        `env:"LURELAB_SESSION_COOKIE" envDefault:"lure_session_id"`
	SessionCookieMaxAge time.Duration `env:"LURELAB_SESSION_COOKIE_MAX_AGE" envDefault:"720h"` // 30 days
}

// Parse loads Config from environment variables.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
