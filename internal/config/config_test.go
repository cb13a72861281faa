package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WEBHOOK_SECRET", "s3cr3t")
	t.Setenv("DATABASE_URL", "sqlite:///messages.db")
}

func TestLoadRequiresSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("WEBHOOK_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without WEBHOOK_SECRET")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadRejectsNonSqliteURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/messages")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a non-local store")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("redis must be off unless configured")
	}
}

func TestDatabasePath(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"sqlite:///data/messages.db", "data/messages.db"},
		{"sqlite://messages.db", "messages.db"},
		{"messages.db", "messages.db"},
	}
	for _, tc := range cases {
		cfg := &Config{DatabaseURL: tc.url}
		got, err := cfg.DatabasePath()
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.url, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.url, tc.want, got)
		}
	}

	cfg := &Config{DatabaseURL: "mysql://localhost/db"}
	if _, err := cfg.DatabasePath(); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
