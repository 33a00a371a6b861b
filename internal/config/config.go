package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

const (
	DefaultRefresh        = "*/5 * * * *"
	DefaultListen         = ":8080"
	DefaultRequestTimeout = 10

	EnvDatabaseURL = "FACILITATOR_DATABASE_URL"
	EnvBackendURL  = "FACILITATOR_BACKEND_URL"
)

// Session sources
const (
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceSheets = "sheets"
)

// SessionsConfig describes where the facilitator's sessions are loaded from
type SessionsConfig struct {
	Source   string `yaml:"source" validate:"required,oneof=csv xlsx sheets"`
	Path     string `yaml:"path,omitempty" validate:"required_unless=Source sheets"`
	SheetID  string `yaml:"sheetID,omitempty" validate:"required_if=Source sheets"`
	SheetTab string `yaml:"sheetTab,omitempty" validate:"required_if=Source sheets"`
}

// Config represents the application configuration
type Config struct {
	BackendURL            string         `yaml:"backendURL" validate:"required,url"`
	Listen                string         `yaml:"listen,omitempty"`
	DatabaseURL           string         `yaml:"databaseURL,omitempty"`
	Timezone              string         `yaml:"timezone,omitempty"`
	RequestTimeoutSeconds int            `yaml:"requestTimeoutSeconds,omitempty" validate:"min=0"`
	Refresh               string         `yaml:"refresh,omitempty"`
	ExpandRecurring       bool           `yaml:"expandRecurring,omitempty"`
	Units                 []model.Unit   `yaml:"units" validate:"required,min=1,dive"`
	Sessions              SessionsConfig `yaml:"sessions"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from facilitator_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix
// For example, env="test" will look for "facilitator_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv loads an optional .env file and lets the environment override connection settings
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.BackendURL = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Refresh == "" {
		cfg.Refresh = DefaultRefresh
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = DefaultRequestTimeout
	}
}

// Validate validates the configuration struct, the refresh schedule and the timezone
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Refresh != "" {
		if _, err := cron.ParseStandard(cfg.Refresh); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", cfg.Refresh, err)
		}
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	seen := make(map[int]bool, len(cfg.Units))
	for i, u := range cfg.Units {
		if seen[u.ID] {
			return fmt.Errorf("duplicate unit id %d in units[%d]", u.ID, i)
		}
		seen[u.ID] = true
	}

	return nil
}

// Location returns the configured timezone, defaulting to the local one
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RequestTimeout returns the timeout for a single backend request
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Unit returns the configured unit with the given id
func (c *Config) Unit(id int) (model.Unit, bool) {
	for _, u := range c.Units {
		if u.ID == id {
			return u, true
		}
	}
	return model.Unit{}, false
}

// findConfigFile searches for facilitator_config[.env].yaml in current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "facilitator_config.yaml"
	if env != "" {
		configFileName = "facilitator_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
