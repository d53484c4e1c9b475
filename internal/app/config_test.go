package app

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if cfg.Auth.Storage != TokenStorageTypeEnv || cfg.Auth.EnvKey != "PLATFORMSH_API_TOKEN" {
		t.Errorf("Auth = %+v, want env storage on PLATFORMSH_API_TOKEN", cfg.Auth)
	}
	if cfg.Session.Storage != TokenStorageTypeNone {
		t.Errorf("Session.Storage = %q, want none", cfg.Session.Storage)
	}
	if cfg.API.AccountsURL != "https://accounts.platform.sh" {
		t.Errorf("AccountsURL = %q", cfg.API.AccountsURL)
	}
	if cfg.API.USURL != "https://us.platform.sh" || cfg.API.EUURL != "https://eu.platform.sh" {
		t.Errorf("regional URLs = %q, %q", cfg.API.USURL, cfg.API.EUURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestApplyDefaultsStorageSpecific(t *testing.T) {
	cfg := &Config{
		Session: StorageConfig{Storage: TokenStorageTypeEnv},
	}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatal(err)
	}
	if cfg.Session.EnvKey != "PLATFORMSH_SESSION_TOKEN" {
		t.Errorf("Session.EnvKey = %q, want PLATFORMSH_SESSION_TOKEN", cfg.Session.EnvKey)
	}

	cfg = &Config{Auth: StorageConfig{Storage: TokenStorageTypeFile}}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if !strings.HasSuffix(cfg.Auth.File, "api-token") {
		t.Errorf("Auth.File = %q, want default api-token path", cfg.Auth.File)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json format", mutate: func(c *Config) { c.LogFormat = LogFormatJSON }},
		{name: "otel format with grpc export", mutate: func(c *Config) {
			c.LogFormat = LogFormatOTel
			c.Telemetry = TelemetryConfig{OTLPEndpoint: "http://localhost:4317", OTLPProtocol: OTLPProtocolGRPC}
		}},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "unknown otlp protocol", mutate: func(c *Config) { c.Telemetry.OTLPProtocol = "udp" }, wantErr: true},
		{name: "invalid accounts url", mutate: func(c *Config) { c.API.AccountsURL = "not a url" }, wantErr: true},
		{name: "auth storage none", mutate: func(c *Config) { c.Auth.Storage = TokenStorageTypeNone }, wantErr: true},
		{name: "unknown session storage", mutate: func(c *Config) { c.Session.Storage = "vault" }, wantErr: true},
		{name: "file storage without path", mutate: func(c *Config) {
			c.Session = StorageConfig{Storage: TokenStorageTypeFile}
		}, wantErr: true},
		{name: "keyring without user", mutate: func(c *Config) {
			c.Auth = StorageConfig{Storage: TokenStorageTypeKeyring}
		}, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
