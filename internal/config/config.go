package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion         = 1
	DefaultPath           = "/etc/botvac/config.yaml"
	DefaultGRPCAddr       = "0.0.0.0:9000"
	DefaultHTTPAddr       = "0.0.0.0:8080"
	DefaultLogHandler     = "text"
	DefaultLogLevel       = "info"
	DefaultRemote         = "simulator"
	DefaultMaxDockAttempt = 50
	DefaultRedockAttempts = 30
	DefaultPollInterval   = time.Second
	DefaultStopStrategy   = "poll"
	DefaultRatePerMinute  = 120
	DefaultCommandTopic   = "botvac/command"
	DefaultResultTopic    = "botvac/result"
	DefaultClientID       = "botvac"

	EnvUsername = "BOTVAC_USERNAME"
	EnvPassword = "BOTVAC_PASSWORD"
)

// Config is the on-disk daemon configuration.
type Config struct {
	SchemaVersion int           `yaml:"schema_version"`
	Core          *CoreConfig   `yaml:"core"`
	Log           *LogConfig    `yaml:"log"`
	Botvac        *BotvacConfig `yaml:"botvac"`
	MQTT          *MQTTConfig   `yaml:"mqtt"`
}

type CoreConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

type LogConfig struct {
	Handler string `yaml:"handler"`
	Level   string `yaml:"level"`
}

type BotvacConfig struct {
	Remote       string           `yaml:"remote"`
	EnvFile      string           `yaml:"env_file"`
	UsernameFile string           `yaml:"username_file"`
	PasswordFile string           `yaml:"password_file"`
	Dock         *DockConfig      `yaml:"dock"`
	RateLimit    *RateConfig      `yaml:"rate_limit"`
	Simulator    *SimulatorConfig `yaml:"simulator"`

	// Resolved by Load; never read from YAML.
	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

type DockConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	RedockAttempts int           `yaml:"redock_attempts"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	Timeout        time.Duration `yaml:"timeout"`
	StopStrategy   string        `yaml:"stop_strategy"`
}

type RateConfig struct {
	PerMinute   int `yaml:"per_minute"`
	BudgetFloor int `yaml:"budget_floor"`
}

type SimulatorConfig struct {
	Name        string `yaml:"name"`
	Serial      string `yaml:"serial"`
	DockAfter   int    `yaml:"dock_after"`
	ExtraRobots int    `yaml:"extra_robots"`
}

type MQTTConfig struct {
	Broker       string `yaml:"broker"`
	ClientID     string `yaml:"client_id"`
	Username     string `yaml:"username"`
	PasswordFile string `yaml:"password_file"`
	CommandTopic string `yaml:"command_topic"`
	ResultTopic  string `yaml:"result_topic"`

	Password string `yaml:"-"`
}

// Load parses the YAML config file, applies defaults, resolves secrets and
// validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := resolveSecrets(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core == nil {
		cfg.Core = &CoreConfig{}
	}
	if cfg.Core.GRPCAddr == "" {
		cfg.Core.GRPCAddr = DefaultGRPCAddr
	}
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}

	if cfg.Log == nil {
		cfg.Log = &LogConfig{}
	}
	if cfg.Log.Handler == "" {
		cfg.Log.Handler = DefaultLogHandler
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if cfg.Botvac == nil {
		return
	}
	if cfg.Botvac.Remote == "" {
		cfg.Botvac.Remote = DefaultRemote
	}
	if cfg.Botvac.Dock == nil {
		cfg.Botvac.Dock = &DockConfig{}
	}
	if cfg.Botvac.Dock.PollInterval == 0 {
		cfg.Botvac.Dock.PollInterval = DefaultPollInterval
	}
	if cfg.Botvac.Dock.MaxAttempts == 0 {
		cfg.Botvac.Dock.MaxAttempts = DefaultMaxDockAttempt
	}
	if cfg.Botvac.Dock.RedockAttempts == 0 {
		cfg.Botvac.Dock.RedockAttempts = DefaultRedockAttempts
	}
	if cfg.Botvac.Dock.StopStrategy == "" {
		cfg.Botvac.Dock.StopStrategy = DefaultStopStrategy
	}
	if cfg.Botvac.RateLimit == nil {
		cfg.Botvac.RateLimit = &RateConfig{PerMinute: DefaultRatePerMinute}
	}

	if cfg.MQTT != nil {
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = DefaultClientID
		}
		if cfg.MQTT.CommandTopic == "" {
			cfg.MQTT.CommandTopic = DefaultCommandTopic
		}
		if cfg.MQTT.ResultTopic == "" {
			cfg.MQTT.ResultTopic = DefaultResultTopic
		}
	}
}

// resolveSecrets reads credentials from secret files, falling back to the
// environment (optionally seeded from a .env file).
func resolveSecrets(cfg *Config) error {
	if cfg.MQTT != nil && cfg.MQTT.PasswordFile != "" {
		password, err := readSecretFile(cfg.MQTT.PasswordFile)
		if err != nil {
			return fmt.Errorf("read mqtt password: %w", err)
		}
		cfg.MQTT.Password = password
	}

	bv := cfg.Botvac
	if bv == nil {
		return nil
	}
	if bv.EnvFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(bv.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	var err error
	if bv.UsernameFile != "" {
		if bv.Username, err = readSecretFile(bv.UsernameFile); err != nil {
			return fmt.Errorf("read botvac username: %w", err)
		}
	} else {
		bv.Username = strings.TrimSpace(os.Getenv(EnvUsername))
	}
	if bv.PasswordFile != "" {
		if bv.Password, err = readSecretFile(bv.PasswordFile); err != nil {
			return fmt.Errorf("read botvac password: %w", err)
		}
	} else {
		bv.Password = os.Getenv(EnvPassword)
	}
	return nil
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core == nil {
		return fmt.Errorf("core config is required")
	}
	if cfg.Core.GRPCAddr == "" {
		return fmt.Errorf("core.grpc_addr is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}

	if cfg.Log != nil {
		switch cfg.Log.Handler {
		case "text", "json", "cli", "discard":
		default:
			return fmt.Errorf("log.handler %q must be one of text, json, cli, discard", cfg.Log.Handler)
		}
	}

	if bv := cfg.Botvac; bv != nil {
		if bv.Username == "" {
			return fmt.Errorf("botvac username is required (username_file or %s)", EnvUsername)
		}
		if bv.Password == "" {
			return fmt.Errorf("botvac password is required (password_file or %s)", EnvPassword)
		}
		if bv.Dock == nil || bv.RateLimit == nil {
			return fmt.Errorf("botvac.dock and botvac.rate_limit are required")
		}
		if bv.Dock.MaxAttempts < 0 {
			return fmt.Errorf("botvac.dock.max_attempts must be positive")
		}
		if bv.Dock.RedockAttempts < 0 {
			return fmt.Errorf("botvac.dock.redock_attempts must be positive")
		}
		if bv.Dock.PollInterval < 0 {
			return fmt.Errorf("botvac.dock.poll_interval must not be negative")
		}
		if bv.Dock.Timeout < 0 {
			return fmt.Errorf("botvac.dock.timeout must not be negative")
		}
		switch bv.Dock.StopStrategy {
		case "poll", "redock":
		default:
			return fmt.Errorf("botvac.dock.stop_strategy %q must be poll or redock", bv.Dock.StopStrategy)
		}
		if bv.RateLimit.PerMinute < 0 {
			return fmt.Errorf("botvac.rate_limit.per_minute must not be negative")
		}
		if bv.RateLimit.BudgetFloor < 0 || (bv.RateLimit.PerMinute > 0 && bv.RateLimit.BudgetFloor >= bv.RateLimit.PerMinute) {
			return fmt.Errorf("botvac.rate_limit.budget_floor must be below per_minute")
		}
	}

	if cfg.MQTT != nil {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required")
		}
		if cfg.Botvac == nil {
			return fmt.Errorf("mqtt requires a botvac section")
		}
	}

	return nil
}

// EnabledPlugins maps enabled plugin IDs based on config presence.
func EnabledPlugins(cfg *Config) map[string]bool {
	enabled := make(map[string]bool)
	if cfg == nil {
		return enabled
	}
	if cfg.Botvac != nil {
		enabled["botvac"] = true
	}
	return enabled
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
