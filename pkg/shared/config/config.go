package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageS3       = "s3"
)

// Config is the channel server configuration. Every field can be set from
// the environment; a TOML file, if given, overrides the environment.
type Config struct {
	Addr         string   `toml:"addr"`          // LUMEN_ADDR (default ":8081")
	TickInterval Duration `toml:"tick_interval"` // LUMEN_TICK_INTERVAL (default 33ms)
	LogLevel     string   `toml:"log_level"`     // LUMEN_LOG_LEVEL (default "info")

	Storage     string `toml:"storage"`      // LUMEN_STORAGE: file, postgres or s3 (default "file")
	DataDir     string `toml:"data_dir"`     // LUMEN_DATA_DIR (default "data/players")
	DatabaseURL string `toml:"database_url"` // LUMEN_DATABASE_URL (required for postgres)
	S3Bucket    string `toml:"s3_bucket"`    // LUMEN_S3_BUCKET (required for s3)
	S3Endpoint  string `toml:"s3_endpoint"`  // LUMEN_S3_ENDPOINT (custom endpoint for MinIO)
	S3Region    string `toml:"s3_region"`    // LUMEN_S3_REGION (default "us-east-1")
	S3Prefix    string `toml:"s3_prefix"`    // LUMEN_S3_PREFIX (default "characters/")

	NATSURL string `toml:"nats_url"` // LUMEN_NATS_URL (optional, empty = no events)

	Definitions string `toml:"definitions"` // LUMEN_DEFINITIONS (optional YAML monster definitions and spawns)

	RegenInterval Duration `toml:"regen_interval"` // LUMEN_REGEN_INTERVAL (default 3s)
	RegenHp       int32    `toml:"regen_hp"`       // LUMEN_REGEN_HP (default 2)
	RegenSp       int32    `toml:"regen_sp"`       // LUMEN_REGEN_SP (default 1)
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads the environment, then overlays the TOML file at path, or at
// LUMEN_CONFIG when path is empty.
func Load(path string) (*Config, error) {
	c, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv("LUMEN_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func fromEnv() (*Config, error) {
	c := &Config{
		Addr:        envOrDefault("LUMEN_ADDR", ":8081"),
		LogLevel:    envOrDefault("LUMEN_LOG_LEVEL", "info"),
		Storage:     envOrDefault("LUMEN_STORAGE", StorageFile),
		DataDir:     envOrDefault("LUMEN_DATA_DIR", "data/players"),
		DatabaseURL: os.Getenv("LUMEN_DATABASE_URL"),
		S3Bucket:    os.Getenv("LUMEN_S3_BUCKET"),
		S3Endpoint:  os.Getenv("LUMEN_S3_ENDPOINT"),
		S3Region:    envOrDefault("LUMEN_S3_REGION", "us-east-1"),
		S3Prefix:    envOrDefault("LUMEN_S3_PREFIX", "characters/"),
		NATSURL:     os.Getenv("LUMEN_NATS_URL"),
		Definitions: os.Getenv("LUMEN_DEFINITIONS"),
	}

	var err error
	if c.TickInterval.Duration, err = time.ParseDuration(envOrDefault("LUMEN_TICK_INTERVAL", "33ms")); err != nil {
		return nil, fmt.Errorf("LUMEN_TICK_INTERVAL: %w", err)
	}
	if c.RegenInterval.Duration, err = time.ParseDuration(envOrDefault("LUMEN_REGEN_INTERVAL", "3s")); err != nil {
		return nil, fmt.Errorf("LUMEN_REGEN_INTERVAL: %w", err)
	}
	if c.RegenHp, err = envInt32("LUMEN_REGEN_HP", 2); err != nil {
		return nil, err
	}
	if c.RegenSp, err = envInt32("LUMEN_REGEN_SP", 1); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the settings needed by the chosen backends are present.
func (c *Config) Validate() error {
	if c.TickInterval.Duration <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("data dir is required for file storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("LUMEN_DATABASE_URL is required for postgres storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("LUMEN_S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt32(key string, fallback int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return int32(n), nil
}
