package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 5000
	DefaultGRPCPort        = 50051
	DefaultStoragePath     = "tableside.db"
	DefaultSendBuffer      = 32
	DefaultMaxMessageBytes = 4096
	DefaultMaxFrameBytes   = 1 << 20
	DefaultPingInterval    = 54 * time.Second
	DefaultPongWait        = 60 * time.Second
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort is the port the notification relay listens on.
	GRPCPort int `yaml:"grpc_port"`

	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Auth    AuthConfig    `yaml:"auth"`
	Relay   RelayConfig   `yaml:"relay"`
}

// LogConfig controls the process-wide slog level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel maps Level to a slog.Level. Unknown or empty values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StorageConfig selects the SQLite database backing menu items, orders and
// reservations.
type StorageConfig struct {
	// Path is the SQLite file path. ":memory:" keeps everything in process.
	Path string `yaml:"path"`
}

// NotifyConfig tunes the WebSocket notification hub.
type NotifyConfig struct {
	// SendBuffer is the per-connection outbound queue depth. A notification
	// that finds the queue full is dropped for that connection only.
	SendBuffer int `yaml:"send_buffer"`

	// MaxMessageBytes caps the size of one control message. Larger frames
	// are discarded as malformed and the connection stays open.
	MaxMessageBytes int64 `yaml:"max_message_bytes"`

	// MaxFrameBytes is the hard cap on one inbound frame. A larger frame
	// closes the connection. Must be at least MaxMessageBytes.
	MaxFrameBytes int64 `yaml:"max_frame_bytes"`

	// PingInterval is how often the hub pings each client. Zero disables
	// keepalive and the read deadline.
	PingInterval time.Duration `yaml:"ping_interval"`

	// PongWait is how long a client may stay silent before it is treated as dead.
	// Must exceed PingInterval when pings are enabled.
	PongWait time.Duration `yaml:"pong_wait"`

	// RegistrationTimeout closes connections that have not sent a register
	// message within this duration. Zero keeps them open indefinitely.
	RegistrationTimeout time.Duration `yaml:"registration_timeout"`

	// AllowedOrigins restricts the WebSocket upgrade by Origin header.
	// Empty accepts every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Webhooks mirror selected notifications to external chat tools.
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`

	// Events lists the notification types forwarded to this target.
	// Empty forwards every notification.
	Events []string `yaml:"events"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// AuthConfig controls authentication of the staff REST routes.
type AuthConfig struct {
	// Mode is one of: jwt | none.
	Mode string `yaml:"mode"`

	// SecretEnv is the name of the environment variable holding the HS256 secret.
	SecretEnv string `yaml:"secret_env"`
}

// Secret returns the JWT signing secret resolved from the environment.
func (a AuthConfig) Secret() string {
	if a.SecretEnv == "" {
		return ""
	}
	return os.Getenv(a.SecretEnv)
}

// RelayConfig controls the gRPC notification relay.
type RelayConfig struct {
	// Enabled starts the relay listener on GRPCPort.
	Enabled bool `yaml:"enabled"`

	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the gRPC metadata key to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (r RelayConfig) Key() string {
	if r.KeyEnv == "" {
		return ""
	}
	return os.Getenv(r.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (r RelayConfig) EffectiveHeader() string {
	if r.Header != "" {
		return strings.ToLower(r.Header)
	}
	return "x-api-key"
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
			Log:      LogConfig{Level: "info"},
			Storage:  StorageConfig{Path: DefaultStoragePath},
			Notify: NotifyConfig{
				SendBuffer:      DefaultSendBuffer,
				MaxMessageBytes: DefaultMaxMessageBytes,
				MaxFrameBytes:   DefaultMaxFrameBytes,
				PingInterval:    DefaultPingInterval,
				PongWait:        DefaultPongWait,
			},
			Auth: AuthConfig{Mode: "none"},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.Relay.Enabled && (s.GRPCPort <= 0 || s.GRPCPort > 65535) {
		return fmt.Errorf("server.grpc_port %d is out of range [1, 65535]", s.GRPCPort)
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("server.log.level %q unknown: want debug|info|warn|error", s.Log.Level)
	}
	if s.Storage.Path == "" {
		return fmt.Errorf("server.storage.path is required")
	}
	if err := validateNotify(s.Notify); err != nil {
		return err
	}
	switch s.Auth.Mode {
	case "jwt":
		if s.Auth.SecretEnv == "" {
			return fmt.Errorf("server.auth.secret_env is required when mode is jwt")
		}
		if s.Auth.Secret() == "" {
			return fmt.Errorf("server.auth.secret_env: environment variable %s is empty or unset", s.Auth.SecretEnv)
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want jwt|none", s.Auth.Mode)
	}
	switch s.Relay.Mode {
	case "apikey":
		if s.Relay.Enabled && s.Relay.Key() == "" {
			return fmt.Errorf("server.relay.key_env: apikey mode needs a non-empty key (env %q)", s.Relay.KeyEnv)
		}
	case "none", "":
	default:
		return fmt.Errorf("server.relay.mode %q unknown: want apikey|none", s.Relay.Mode)
	}
	return nil
}

func validateNotify(n NotifyConfig) error {
	if n.SendBuffer <= 0 {
		return fmt.Errorf("server.notify.send_buffer must be positive")
	}
	if n.MaxMessageBytes <= 0 {
		return fmt.Errorf("server.notify.max_message_bytes must be positive")
	}
	if n.MaxFrameBytes < n.MaxMessageBytes {
		return fmt.Errorf("server.notify.max_frame_bytes (%d) must be at least max_message_bytes (%d)", n.MaxFrameBytes, n.MaxMessageBytes)
	}
	if n.PingInterval < 0 || n.PongWait < 0 || n.RegistrationTimeout < 0 {
		return fmt.Errorf("server.notify durations must not be negative")
	}
	if n.PingInterval > 0 && n.PongWait <= n.PingInterval {
		return fmt.Errorf("server.notify.pong_wait (%v) must exceed ping_interval (%v)", n.PongWait, n.PingInterval)
	}
	for i, wh := range n.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("server.notify.webhooks[%d]: unknown type %q", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("server.notify.webhooks[%d]: url_env is required", i)
		}
	}
	return nil
}
