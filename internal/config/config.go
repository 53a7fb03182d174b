package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "FITPICKER_"
	// PathEnvVar names an optional YAML config file
	PathEnvVar = envPrefix + "CONFIG"
)

type Config struct {
	Port   string `koanf:"port" validate:"required,numeric"`
	DBPath string `koanf:"db_path" validate:"required"`
	Token  string `koanf:"token" validate:"required,min=8"`

	Timezone string `koanf:"timezone" validate:"required"`

	// Manual location, last in the lookup chain
	Latitude      float64 `koanf:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `koanf:"longitude" validate:"gte=-180,lte=180"`
	UseIPLocation bool    `koanf:"use_ip_location"`

	WeatherURL      string        `koanf:"weather_url" validate:"required,url"`
	LocationURL     string        `koanf:"location_url" validate:"required,url"`
	HTTPTimeout     time.Duration `koanf:"http_timeout" validate:"min=1s"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=1m"`

	FlushDelay   time.Duration `koanf:"flush_delay" validate:"min=10ms"`
	SnapshotDir  string        `koanf:"snapshot_dir"`
	SnapshotHour uint          `koanf:"snapshot_hour" validate:"lte=23"`

	RateLimit int    `koanf:"rate_limit" validate:"gte=0"`
	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`
}

func defaults() *Config {
	return &Config{
		Port:            "8080",
		Timezone:        "America/New_York",
		Latitude:        40.71,
		Longitude:       -74.01,
		UseIPLocation:   true,
		WeatherURL:      "https://api.open-meteo.com/v1/forecast",
		LocationURL:     "http://ip-api.com/json",
		HTTPTimeout:     10 * time.Second,
		RefreshInterval: 30 * time.Minute,
		FlushDelay:      time.Second,
		SnapshotHour:    3,
		RateLimit:       120,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load layers defaults, the optional YAML file named by FITPICKER_CONFIG and
// FITPICKER_* environment variables, in that order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FITPICKER_DB_PATH -> db_path
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidToken reports whether the bearer token grants API access
func (c *Config) ValidToken(token string) bool {
	return c.Token != "" && token == c.Token
}
