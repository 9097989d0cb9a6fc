package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultReconnectMin = 1 * time.Second
	DefaultReconnectMax = 60 * time.Second
)

// Config is the top-level agent configuration.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all display-agent settings.
type AgentConfig struct {
	// ServerURL is the WebSocket endpoint of tableside-server,
	// e.g. ws://localhost:5000/ws.
	ServerURL string `yaml:"server_url"`

	// UserID and Role are sent in the register message after every connect.
	// Both may be empty; an agent with no identity only receives broadcasts.
	UserID string `yaml:"user_id"`
	Role   string `yaml:"role"`

	// ReconnectMin and ReconnectMax bound the exponential reconnect backoff.
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`

	// Events limits which notification types are displayed.
	// Empty displays every notification.
	Events []string `yaml:"events"`

	TLS TLSConfig `yaml:"tls"`
	Log LogConfig `yaml:"log"`
}

// TLSConfig holds wss:// dial options.
type TLSConfig struct {
	// CAFile is an optional PEM bundle trusted in addition to the system pool.
	CAFile string `yaml:"ca_file"`

	// InsecureSkipVerify disables certificate verification.
	// Only use this against development servers.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// LogConfig controls the agent's slog level.
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

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ReconnectMin: DefaultReconnectMin,
			ReconnectMax: DefaultReconnectMax,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.ServerURL == "" {
		return fmt.Errorf("agent.server_url is required")
	}
	u, err := url.Parse(a.ServerURL)
	if err != nil {
		return fmt.Errorf("agent.server_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("agent.server_url: scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("agent.server_url: host is required")
	}
	if a.ReconnectMin <= 0 {
		return fmt.Errorf("agent.reconnect_min must be positive")
	}
	if a.ReconnectMax < a.ReconnectMin {
		return fmt.Errorf("agent.reconnect_max must be >= agent.reconnect_min")
	}
	switch strings.ToLower(a.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("agent.log.level: unknown level %q", a.Log.Level)
	}
	return nil
}
