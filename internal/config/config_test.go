package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.App.Port)
	}
	if cfg.Storage.Provider != "local" {
		t.Errorf("expected local storage, got %q", cfg.Storage.Provider)
	}
	if cfg.Storage.Local.SigningKey == "" {
		t.Error("expected a development signing key outside production")
	}
	if cfg.Rides.StrictStatusTransitions {
		t.Error("expected permissive status transitions by default")
	}
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("expected /ws, got %q", cfg.WebSocket.Path)
	}
	if cfg.Events.Broker != "none" {
		t.Errorf("expected no broker, got %q", cfg.Events.Broker)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("RIDES_STRICT_STATUS_TRANSITIONS", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("IDEMPOTENCY_TTL", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.App.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("expected 127.0.0.1:9090, got %q", got)
	}
	if !cfg.Rides.StrictStatusTransitions {
		t.Error("expected strict transitions")
	}
	if got := cfg.Events.Kafka.Brokers; len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("unexpected brokers %v", got)
	}
	if cfg.Security.IdempotencyTTL != 90*time.Minute {
		t.Errorf("expected 90m, got %v", cfg.Security.IdempotencyTTL)
	}
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("PUSH_ENABLED", "maybe")
	t.Setenv("REDIS_RIDE_CACHE_TTL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.App.Port)
	}
	if cfg.Push.Enabled {
		t.Error("expected push disabled")
	}
	if cfg.Redis.RideCacheTTL != 30*time.Second {
		t.Errorf("expected default ttl, got %v", cfg.Redis.RideCacheTTL)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown storage",
			env:     map[string]string{"STORAGE_PROVIDER": "ftp"},
			wantErr: "storage provider",
		},
		{
			name:    "unknown auth",
			env:     map[string]string{"AUTH_PROVIDER": "ldap"},
			wantErr: "auth provider",
		},
		{
			name:    "jwt without secret",
			env:     map[string]string{"AUTH_PROVIDER": "jwt"},
			wantErr: "AUTH_JWT_SECRET",
		},
		{
			name:    "unknown broker",
			env:     map[string]string{"EVENTS_BROKER": "nats"},
			wantErr: "events broker",
		},
		{
			name:    "resend without key",
			env:     map[string]string{"EMAIL_PROVIDER": "resend"},
			wantErr: "RESEND_API_KEY",
		},
		{
			name:    "unknown email provider",
			env:     map[string]string{"EMAIL_PROVIDER": "pigeon"},
			wantErr: "email provider",
		},
		{
			name:    "local storage in production needs a key",
			env:     map[string]string{"APP_ENV": "production"},
			wantErr: "STORAGE_LOCAL_SIGNING_KEY",
		},
		{
			name: "jwt with secret",
			env:  map[string]string{"AUTH_PROVIDER": "jwt", "AUTH_JWT_SECRET": "s3cret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEmailConfig_From(t *testing.T) {
	tests := []struct {
		name string
		cfg  EmailConfig
		want string
	}{
		{"with name", EmailConfig{FromEmail: "a@b.edu", FromName: "Campus Rides"}, "Campus Rides <a@b.edu>"},
		{"address only", EmailConfig{FromEmail: "a@b.edu"}, "a@b.edu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.From(); got != tt.want {
				t.Errorf("From() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPNSConfig_Configured(t *testing.T) {
	c := &APNSConfig{KeyID: "k", TeamID: "t", KeyFile: "f"}
	if c.Configured() {
		t.Error("expected unconfigured without bundle id")
	}
	c.BundleID = "edu.campus.rides"
	if !c.Configured() {
		t.Error("expected configured")
	}
}
