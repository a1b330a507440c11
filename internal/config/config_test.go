package config

import (
	"strings"
	"testing"
	"time"
)

// testSecret is long enough to pass the 16-character minimum.
const testSecret = "a-perfectly-valid-32-char-secret!"

// setBaseEnv sets the one variable Load requires. t.Setenv restores the
// previous value when the test ends, so tests don't leak into each other.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
}

// =========================================================================
// Load TESTS
// =========================================================================

func TestLoad_SecretFromEnvIsEnough(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with JWT_SECRET set in env failed: %v", err)
	}
	if cfg.JWTSecret != testSecret {
		t.Errorf("JWTSecret = %q, want the env value", cfg.JWTSecret)
	}

	// Everything else falls back to its default.
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want default development", cfg.Env)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %s, want default 1h", cfg.TokenTTL)
	}
	if cfg.DBPath != "data/blog.db" {
		t.Errorf("DBPath = %q, want default data/blog.db", cfg.DBPath)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PATH", "/var/lib/blog/prod.db")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if cfg.DBPath != "/var/lib/blog/prod.db" {
		t.Errorf("DBPath = %q, want the env value", cfg.DBPath)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %s, want 30m", cfg.TokenTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("AllowedOrigins = %v, want the comma-split env value", cfg.AllowedOrigins)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false for production")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() without JWT_SECRET should fail")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error should name the missing variable, got: %v", err)
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() with a short JWT_SECRET should fail")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"port zero", "PORT", "0"},
		{"port out of range", "PORT", "70000"},
		{"ttl above 24h", "TOKEN_TTL", "48h"},
		{"ttl negative", "TOKEN_TTL", "-5m"},
		{"unknown environment", "APP_ENV", "staging"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s should fail", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_GitHubCallbackDefaulted(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GITHUB_CLIENT_ID", "client-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "client-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GitHubCallbackURL != "http://localhost:8080/auth/github/callback" {
		t.Errorf("GitHubCallbackURL = %q, want the conventional local default", cfg.GitHubCallbackURL)
	}
}

func TestLoad_NoGitHubMeansNoCallback(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GitHubCallbackURL != "" {
		t.Errorf("GitHubCallbackURL = %q, want empty when OAuth is unconfigured", cfg.GitHubCallbackURL)
	}
}
