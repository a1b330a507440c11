// Package config loads and validates application configuration.
//
// CONFIGURATION STRATEGY:
// Everything comes from environment variables (12-factor style), read
// through viper so each setting gets a typed field and a default in ONE
// place instead of os.Getenv calls scattered across main. A local .env
// file is loaded first by godotenv in main — viper then sees those
// variables like any other.
//
// The JWT secret is validated here, at startup, on purpose: a server that
// would reject every login anyway should fail fast with a clear message,
// not limp along and confuse whoever deploys it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server needs to start. It is assembled once
// in main and handed down the dependency graph — no package reads an env
// var after startup.
type Config struct {
	Port           int           `mapstructure:"PORT"`
	Env            string        `mapstructure:"APP_ENV"` // "development" or "production"
	DBPath         string        `mapstructure:"DB_PATH"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	AllowedOrigins []string      `mapstructure:"ALLOWED_ORIGINS"`

	// GitHub OAuth is optional: leave the client ID empty and the
	// /auth/github routes simply aren't registered.
	GitHubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `mapstructure:"GITHUB_CALLBACK_URL"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_PATH", "data/blog.db")
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")

	// EXPLICIT BINDS, NOT AutomaticEnv:
	// viper's Unmarshal only walks keys it already knows about, and
	// AutomaticEnv alone doesn't register any — it only intercepts direct
	// Get calls. A key that has no default (JWT_SECRET deliberately has
	// none) would be invisible to Unmarshal even with the env var set, so
	// every key is bound by name here.
	for _, key := range []string{
		"PORT", "APP_ENV", "DB_PATH", "JWT_SECRET", "TOKEN_TTL",
		"ALLOWED_ORIGINS", "GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET",
		"GITHUB_CALLBACK_URL",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	// Default the OAuth callback to the conventional local URL so dev
	// setups only need the client ID and secret.
	if cfg.GitHubClientID != "" && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT must be a valid port number, got %d", c.Port)
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required (generate one with: openssl rand -hex 32)")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 || c.TokenTTL > 24*time.Hour {
		return fmt.Errorf("config: TOKEN_TTL must be between 0 and 24h, got %s", c.TokenTTL)
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("config: APP_ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode
// (pretty logs, relaxed cookie security).
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}
