package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	durations := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 10 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"TokenTTL", cfg.Auth.TokenTTL, 5 * 24 * time.Hour},
		{"TokenClockSkew", cfg.Auth.TokenClockSkew, 0},
		{"LoginAttemptWindow", cfg.LoginAttempts.Window, 15 * time.Minute},
		{"SweepInterval", cfg.LoginAttempts.SweepInterval, time.Minute},
		{"BaseDelay", cfg.Timing.BaseDelay, 500 * time.Millisecond},
	}
	for _, tt := range durations {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.LoginAttempts.MaxAttempts != 5 {
		t.Errorf("MaxAttempts: got %d, want 5", cfg.LoginAttempts.MaxAttempts)
	}
	if cfg.Auth.TokenIssuer != "Support Portal" || cfg.Auth.TokenAudience != "User Management Portal" {
		t.Errorf("unexpected issuer/audience: %q %q", cfg.Auth.TokenIssuer, cfg.Auth.TokenAudience)
	}
	if cfg.Email.Enabled {
		t.Error("email should be disabled by default")
	}
	if cfg.Portal.BaseURL != "http://localhost:8081" {
		t.Errorf("BaseURL: got %q", cfg.Portal.BaseURL)
	}
	if len(cfg.Server.AllowedOrigins) == 0 || cfg.Server.AllowedOrigins[0] != "http://localhost:4200" {
		t.Errorf("AllowedOrigins: got %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_ATTEMPT_WINDOW", "5m")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("TOKEN_CLOCK_SKEW", "30s")
	t.Setenv("AUTH_DELAY_BASE_MS", "100")
	t.Setenv("AUTH_DELAY_ON_SUCCESS", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.LoginAttempts.MaxAttempts != 3 {
		t.Errorf("MaxAttempts: got %d, want 3", cfg.LoginAttempts.MaxAttempts)
	}
	if cfg.LoginAttempts.Window != 5*time.Minute {
		t.Errorf("Window: got %v", cfg.LoginAttempts.Window)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour || cfg.Auth.TokenClockSkew != 30*time.Second {
		t.Errorf("token settings: got %v %v", cfg.Auth.TokenTTL, cfg.Auth.TokenClockSkew)
	}
	if cfg.Timing.BaseDelay != 100*time.Millisecond || !cfg.Timing.DelayOnSuccess {
		t.Errorf("timing: got %+v", cfg.Timing)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "172.16.0.0/12" {
		t.Errorf("TrustedProxies: got %v", cfg.Server.TrustedProxies)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout: got %v, want default", cfg.Server.ReadTimeout)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"zero max attempts", map[string]string{"LOGIN_MAX_ATTEMPTS": "0"}, "LOGIN_MAX_ATTEMPTS"},
		{"sub-second ttl", map[string]string{"TOKEN_TTL": "500ms"}, "TOKEN_TTL"},
		{"negative skew", map[string]string{"TOKEN_CLOCK_SKEW": "-1s"}, "TOKEN_CLOCK_SKEW"},
		{"email without sender", map[string]string{"EMAIL_ENABLED": "true"}, "EMAIL_FROM"},
		{"missing db password", map[string]string{"DB_PASSWORD": ""}, "DB_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "test")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestValidateJWTSecret(t *testing.T) {
	if err := validateJWTSecret("short", "development"); err == nil {
		t.Error("expected short secret to fail")
	}
	if err := validateJWTSecret(strings.Repeat("a", 32), "production"); err == nil {
		t.Error("expected 32-char secret to fail in production")
	}
	if err := validateJWTSecret(strings.Repeat("a", 64), "production"); err != nil {
		t.Errorf("expected 64-char secret to pass, got %v", err)
	}
}
