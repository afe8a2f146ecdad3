// Package config loads BrewQuest configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "brewquest.yaml"

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path"`   // SQLite file; empty means ~/.brewquest/brewquest.db
	URL    string `yaml:"url"`    // Postgres connection string
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	CronSecret        string        `yaml:"cron_secret"`
	AllowTimeOverride bool          `yaml:"allow_time_override"`
	RequestTimeoutStr string        `yaml:"request_timeout"`
	RequestTimeout    time.Duration `yaml:"-"` // Parsed duration
}

type ScheduleConfig struct {
	Weekly   string `yaml:"weekly"`   // Cron spec for the weekly transition
	Daily    string `yaml:"daily"`    // Cron spec for the daily publish
	Timezone string `yaml:"timezone"` // IANA name
}

type SideEffectsConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialBackoffStr string        `yaml:"initial_backoff"`
	InitialBackoff    time.Duration `yaml:"-"` // Parsed duration
}

type EmailConfig struct {
	APIKey  string `yaml:"api_key"` // Empty logs digests instead of sending
	From    string `yaml:"from"`
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Config represents the BrewQuest configuration file.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Server      ServerConfig      `yaml:"server"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	SideEffects SideEffectsConfig `yaml:"side_effects"`
	Email       EmailConfig       `yaml:"email"`
	Log         LogConfig         `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverSQLite},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestTimeoutStr: "60s",
		},
		Schedule: ScheduleConfig{
			Weekly:   "0 9 * * MON",
			Daily:    "0 8 * * *",
			Timezone: "UTC",
		},
		SideEffects: SideEffectsConfig{
			MaxAttempts:       3,
			InitialBackoffStr: "500ms",
		},
		Email: EmailConfig{
			From: "BrewQuest Chronicles <digest@brewquest.example>",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads configuration from path, then .env, then BREWQUEST_*
// environment variables, which win. A missing file at DefaultPath is not an
// error; a missing file at an explicit path is.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables take precedence over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.parse(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"BREWQUEST_DB_DRIVER":       &c.Database.Driver,
		"BREWQUEST_DB_PATH":         &c.Database.Path,
		"BREWQUEST_DATABASE_URL":    &c.Database.URL,
		"BREWQUEST_HTTP_ADDR":       &c.Server.Addr,
		"BREWQUEST_CRON_SECRET":     &c.Server.CronSecret,
		"BREWQUEST_EMAIL_API_KEY":   &c.Email.APIKey,
		"BREWQUEST_EMAIL_FROM":      &c.Email.From,
		"BREWQUEST_LOG_LEVEL":       &c.Log.Level,
		"BREWQUEST_LOG_FORMAT":      &c.Log.Format,
		"BREWQUEST_SCHEDULE_TZ":     &c.Schedule.Timezone,
		"BREWQUEST_WEEKLY_SCHEDULE": &c.Schedule.Weekly,
		"BREWQUEST_DAILY_SCHEDULE":  &c.Schedule.Daily,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("BREWQUEST_ALLOW_TIME_OVERRIDE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BREWQUEST_ALLOW_TIME_OVERRIDE: %w", err)
		}
		c.Server.AllowTimeOverride = b
	}
	if v, ok := os.LookupEnv("BREWQUEST_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BREWQUEST_MAX_ATTEMPTS: %w", err)
		}
		c.SideEffects.MaxAttempts = n
	}
	return nil
}

// parse converts duration strings.
func (c *Config) parse() error {
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	c.Log.Format = strings.ToLower(c.Log.Format)

	var err error
	if c.Server.RequestTimeoutStr != "" {
		c.Server.RequestTimeout, err = time.ParseDuration(c.Server.RequestTimeoutStr)
		if err != nil {
			return fmt.Errorf("failed to parse server.request_timeout: %w", err)
		}
	} else {
		c.Server.RequestTimeout = 60 * time.Second // Default
	}

	if c.SideEffects.InitialBackoffStr != "" {
		c.SideEffects.InitialBackoff, err = time.ParseDuration(c.SideEffects.InitialBackoffStr)
		if err != nil {
			return fmt.Errorf("failed to parse side_effects.initial_backoff: %w", err)
		}
	} else {
		c.SideEffects.InitialBackoff = 500 * time.Millisecond // Default
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database.driver %q (want sqlite or postgres)", c.Database.Driver)
	}

	if c.SideEffects.MaxAttempts < 1 {
		return fmt.Errorf("side_effects.max_attempts must be at least 1, got %d", c.SideEffects.MaxAttempts)
	}
	if c.SideEffects.InitialBackoff < 0 {
		return fmt.Errorf("side_effects.initial_backoff must not be negative")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone: %w", err)
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.Weekly); err != nil {
		return fmt.Errorf("invalid schedule.weekly: %w", err)
	}
	if _, err := parser.Parse(c.Schedule.Daily); err != nil {
		return fmt.Errorf("invalid schedule.daily: %w", err)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format %q (want json or text)", c.Log.Format)
	}
	return nil
}

// Location returns the scheduler time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
