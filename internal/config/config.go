package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFileName = ".ordertrack.yaml"
	DefaultHTTPAddr       = ":8080"
	DefaultNATSURL        = "nats://localhost:4222"
)

// DelayedPolicy resolves how the scheduler's first guard treats an order
// that was manually marked delayed before the guard fired.
type DelayedPolicy string

const (
	// DelayedHalt treats delayed like any other non-pending status: the
	// guard fails and automatic progression stops.
	DelayedHalt DelayedPolicy = "halt"
	// DelayedResume lets a delayed order still progress to in_transit.
	DelayedResume DelayedPolicy = "resume"
)

type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	NATSURL     string `yaml:"nats_url"`
	PostgresDSN string `yaml:"postgres_dsn"` // empty selects the in-memory store

	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`

	TransitionDelay   time.Duration `yaml:"transition_delay"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	DelayedPolicy     DelayedPolicy `yaml:"delayed_policy"`

	ReconnectBase        time.Duration `yaml:"reconnect_base"`
	ReconnectMax         time.Duration `yaml:"reconnect_max"`
	ReconnectMaxAttempts int           `yaml:"reconnect_max_attempts"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:             DefaultHTTPAddr,
		NATSURL:              DefaultNATSURL,
		WebhookURL:           "http://localhost:8080/api/webhooks/order-status",
		TransitionDelay:      5 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		DelayedPolicy:        DelayedHalt,
		ReconnectBase:        1 * time.Second,
		ReconnectMax:         30 * time.Second,
		ReconnectMaxAttempts: 5,
	}
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if c.TransitionDelay <= 0 {
		return fmt.Errorf("transition_delay must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}
	switch c.DelayedPolicy {
	case DelayedHalt, DelayedResume:
	default:
		return fmt.Errorf("delayed_policy must be %q or %q", DelayedHalt, DelayedResume)
	}
	if c.ReconnectBase <= 0 || c.ReconnectMax < c.ReconnectBase {
		return fmt.Errorf("reconnect backoff bounds are invalid")
	}
	return nil
}

func Load(path string) (*Config, error) {
	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, DefaultConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ORDERTRACK_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ORDERTRACK_NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv("ORDERTRACK_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("ORDERTRACK_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("ORDERTRACK_WEBHOOK_SECRET"); v != "" {
		cfg.WebhookSecret = v
	}
	if v := os.Getenv("ORDERTRACK_TRANSITION_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TransitionDelay = d
		}
	}
	if v := os.Getenv("ORDERTRACK_HEARTBEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatInterval = d
		}
	}
	if v := os.Getenv("ORDERTRACK_DELAYED_POLICY"); v != "" {
		cfg.DelayedPolicy = DelayedPolicy(v)
	}
	if v := os.Getenv("ORDERTRACK_RECONNECT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReconnectMaxAttempts = n
		}
	}
}
