package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr %q", cfg.Addr)
	}
	if cfg.AuthCookieMaxAge != 14*24*time.Hour {
		t.Fatalf("auth cookie max age %v, want 14 days", cfg.AuthCookieMaxAge)
	}
	if cfg.SessionCookieMaxAge != 30*24*time.Hour {
		t.Fatalf("session cookie max age %v, want 30 days", cfg.SessionCookieMaxAge)
	}
	if cfg.AuthCookieName == "" || cfg.SessionCookieName == "" {
		t.Fatalf("cookie names must default to non-empty values")
	}
	if cfg.AuthCookieName == cfg.SessionCookieName {
		t.Fatalf("auth and guest cookies must not share a name")
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("LURELAB_ADDR", ":9090")
	t.Setenv("LURELAB_AUTH_COOKIE", "custom_auth")
	t.Setenv("LURELAB_AUTH_COOKIE_MAX_AGE", "1h")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.AuthCookieName != "custom_auth" || cfg.AuthCookieMaxAge != time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
