// Package config provides the environment-backed configuration provider
// that container factories read their settings from.
//
// The container itself treats configuration as opaque data: a factory asks
// the provider for a named section and passes the values into whatever it
// constructs.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider reads configuration from the process environment, optionally
// seeded from .env files.
type Provider struct{}

// Load reads .env (if present) and returns a Provider. Call once at
// bootstrap:
//
//	cfg := config.Load()
//	b.RegisterInstance("config", cfg)
func Load(envFiles ...string) *Provider {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Provider{}
}

// Get returns a raw value, falling back to defaultVal.
func (p *Provider) Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int value.
func (p *Provider) GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool value.
func (p *Provider) GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// Section returns every value whose name starts with prefix, with the
// prefix stripped — e.g. Section("DB_") yields {"HOST": ..., "PORT": ...}.
// The result is a plain map, ready to hand into a container factory.
func (p *Provider) Section(prefix string) map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" {
			out[rest] = v
		}
	}
	return out
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
