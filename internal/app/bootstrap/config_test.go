package bootstrap

import (
	"strings"
	"testing"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		BackendBaseURL:    "http://localhost:5000",
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "sudhub_test",
		SessionKey:        "short-dev-key",
		SessionName:       "sudhub-session",
		MaxUploadMB:       25,
		AuditLogAuth:      "all",
		AuditLogWorkspace: "db",
		AuditLogAdmin:     "off",
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, validConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		mutate func(*AppConfig)
		want   string
	}{
		{"bad mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "" }, "MongoDB"},
		{"relative backend", "dev", func(c *AppConfig) { c.BackendBaseURL = "/api" }, "absolute"},
		{"ftp backend", "dev", func(c *AppConfig) { c.BackendBaseURL = "ftp://files.example.com" }, "absolute"},
		{"short key in prod", "prod", func(c *AppConfig) {}, "session_key"},
		{"zero upload", "dev", func(c *AppConfig) { c.MaxUploadMB = 0 }, "max_upload_mb"},
		{"unknown audit mode", "dev", func(c *AppConfig) { c.AuditLogWorkspace = "verbose" }, "audit_log_workspace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, zap.NewNop())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateConfig_LongKeyInProd(t *testing.T) {
	cfg := validConfig()
	cfg.SessionKey = strings.Repeat("k", minProdSessionKey)
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := AppConfig{MaxUploadMB: 3}
	if got := cfg.MaxUploadBytes(); got != 3<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", got, 3<<20)
	}
}
