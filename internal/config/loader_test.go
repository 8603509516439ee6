package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allVariables = []string{
	"CALENDAR_HTTP_PORT",
	"CALENDAR_SQLITE_DSN",
	"CALENDAR_AUTH_SECRET",
	"CALENDAR_TOKEN_TTL",
	"CALENDAR_ALLOWED_ORIGINS",
	"CALENDAR_LOG_LEVEL",
	"CALENDAR_LOG_FORMAT",
	"CALENDAR_BUSINESS_TZ",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVariables {
		// t.Setenv restores the previous value once the test ends.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		const secret = "super-secret-value"
		t.Setenv("CALENDAR_AUTH_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "calendar.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.AuthSecret != secret {
			t.Fatalf("expected auth secret to be %q, got %q", secret, cfg.AuthSecret)
		}
		if cfg.TokenTTL != 12*time.Hour {
			t.Fatalf("expected default token TTL 12h, got %s", cfg.TokenTTL)
		}
		if cfg.BusinessLocation != time.UTC {
			t.Fatalf("expected UTC business location, got %v", cfg.BusinessLocation)
		}
		if len(cfg.AllowedOrigins) != 0 {
			t.Fatalf("expected no allowed origins, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("errors when the secret is missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		if !strings.Contains(err.Error(), "CALENDAR_AUTH_SECRET") {
			t.Fatalf("expected error to name the secret variable, got %q", err.Error())
		}
	})

	t.Run("rejects short secrets and bad values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CALENDAR_AUTH_SECRET", "short")
		t.Setenv("CALENDAR_HTTP_PORT", "70000")
		t.Setenv("CALENDAR_BUSINESS_TZ", "Mars/Olympus")
		t.Setenv("CALENDAR_LOG_FORMAT", "xml")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected validation error")
		}
		for _, name := range []string{"CALENDAR_AUTH_SECRET", "CALENDAR_HTTP_PORT", "CALENDAR_BUSINESS_TZ", "CALENDAR_LOG_FORMAT"} {
			if !strings.Contains(err.Error(), name) {
				t.Fatalf("expected %s in %q", name, err.Error())
			}
		}
	})

	t.Run("parses duration, list and location fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CALENDAR_AUTH_SECRET", "secret-value-0123456789")
		t.Setenv("CALENDAR_HTTP_PORT", "9090")
		t.Setenv("CALENDAR_SQLITE_DSN", "file:/tmp/calendar.db")
		t.Setenv("CALENDAR_TOKEN_TTL", "24h")
		t.Setenv("CALENDAR_ALLOWED_ORIGINS", "http://localhost:5173, ,https://calendar.example.com")
		t.Setenv("CALENDAR_BUSINESS_TZ", "Asia/Tokyo")
		t.Setenv("CALENDAR_LOG_FORMAT", "json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.TokenTTL != 24*time.Hour {
			t.Fatalf("expected token TTL 24h, got %s", cfg.TokenTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/calendar.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://calendar.example.com" {
			t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
		}
		if cfg.BusinessLocation == nil || cfg.BusinessLocation.String() != "Asia/Tokyo" {
			t.Fatalf("unexpected location: %v", cfg.BusinessLocation)
		}
	})

	t.Run("reads dotenv files without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "test.env")
		content := "CALENDAR_AUTH_SECRET=dotenv-secret-0123456789\nCALENDAR_HTTP_PORT=7070\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write dotenv: %v", err)
		}
		t.Setenv("CALENDAR_HTTP_PORT", "6060")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.AuthSecret != "dotenv-secret-0123456789" {
			t.Fatalf("expected secret from dotenv, got %q", cfg.AuthSecret)
		}
		if cfg.HTTPPort != 6060 {
			t.Fatalf("expected environment to win, got %d", cfg.HTTPPort)
		}
	})
}
