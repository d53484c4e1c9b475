package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/platformsh-client/internal/platform"
	"github.com/florianilch/platformsh-client/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	// LogFormatOTel writes OpenTelemetry log records to stderr.
	LogFormatOTel LogFormat = "otel"
)

// OTLPProtocol selects the OTLP log exporter transport.
type OTLPProtocol string

const (
	OTLPProtocolHTTP OTLPProtocol = "http"
	OTLPProtocolGRPC OTLPProtocol = "grpc"
)

// TokenStorageType represents the different storage types supported for stored tokens.
type TokenStorageType string

const (
	TokenStorageTypeNone    TokenStorageType = "none"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat      = LogFormatText
	DefaultConfigOTLPProtocol   = OTLPProtocolHTTP
	DefaultConfigAccountsURL    = platform.DefaultAccountsURL
	DefaultConfigUSURL          = platform.DefaultUSURL
	DefaultConfigEUURL          = platform.DefaultEUURL
	DefaultConfigAPITimeout     = platform.DefaultTimeout
	DefaultConfigAuthStorage    = TokenStorageTypeEnv
	DefaultConfigAuthEnvKey     = "PLATFORMSH_API_TOKEN"
	DefaultConfigSessionStorage = TokenStorageTypeNone
	DefaultConfigSessionEnvKey  = "PLATFORMSH_SESSION_TOKEN"
)

// TelemetryConfig holds optional OpenTelemetry log export settings.
type TelemetryConfig struct {
	// OTLPEndpoint enables OTLP log export when set, e.g. http://localhost:4318.
	OTLPEndpoint string       `json:"otlp_endpoint" validate:"omitempty,url"`
	OTLPProtocol OTLPProtocol `json:"otlp_protocol" validate:"oneof=http grpc"`
}

// MetricsConfig controls export of client counters.
type MetricsConfig struct {
	// Textfile, when set, receives the counters in Prometheus text format on exit,
	// e.g. a node_exporter textfile collector directory entry ending in .prom.
	Textfile string `json:"textfile"`
}

// APIConfig holds the Platform.sh hosts.
type APIConfig struct {
	AccountsURL string        `json:"accounts_url" validate:"required,url"`
	USURL       string        `json:"us_url" validate:"required,url"`
	EUURL       string        `json:"eu_url" validate:"required,url"`
	Timeout     time.Duration `json:"timeout"`
}

// StorageConfig describes where a token is stored.
type StorageConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=none file env keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewTokenStore creates a TokenStore for the configured storage.
// Returns nil for storage type none.
func (s *StorageConfig) NewTokenStore(keyringService string) (tokenstore.TokenStore, error) {
	switch s.Storage {
	case TokenStorageTypeNone:
		return nil, nil
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(s.File)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvStore(s.EnvKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(keyringService, s.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Storage)
	}
}

// applyDefaults fills storage-specific settings. fileName is used below the user config dir.
func (s *StorageConfig) applyDefaults(fileName, envKey string) error {
	switch s.Storage {
	case TokenStorageTypeFile:
		if s.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("file required (auto-detect failed: %w)", err)
			}
			s.File = filepath.Join(configDir, "platformsh-client", fileName)
		}
	case TokenStorageTypeKeyring:
		if s.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("keyring_user required (auto-detect failed: %w)", err)
			}
			s.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv:
		if s.EnvKey == "" {
			s.EnvKey = envKey
		}
	}
	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Storage {
	case TokenStorageTypeFile:
		if s.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeEnv:
		if s.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if s.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}
	return nil
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json otel"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Metrics   MetricsConfig   `json:"metrics"`
	API       APIConfig       `json:"api"`
	// Auth locates the long-lived API token.
	Auth StorageConfig `json:"auth"`
	// Session optionally persists the session token between invocations.
	Session StorageConfig `json:"session"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Telemetry.OTLPProtocol == "" {
		c.Telemetry.OTLPProtocol = DefaultConfigOTLPProtocol
	}
	if c.API.AccountsURL == "" {
		c.API.AccountsURL = DefaultConfigAccountsURL
	}
	if c.API.USURL == "" {
		c.API.USURL = DefaultConfigUSURL
	}
	if c.API.EUURL == "" {
		c.API.EUURL = DefaultConfigEUURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Session.Storage == "" {
		c.Session.Storage = DefaultConfigSessionStorage
	}

	// Dynamic defaults based on storage type
	if err := c.Auth.applyDefaults("api-token", DefaultConfigAuthEnvKey); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Session.applyDefaults("session-token", DefaultConfigSessionEnvKey); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Auth.Storage == TokenStorageTypeNone {
		return errors.New("auth storage cannot be none, the api token is required")
	}
	if c.API.Timeout < 0 {
		return errors.New("api timeout cannot be negative")
	}

	if err := c.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Session.validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	return nil
}
