// Package config loads scoreline settings from an optional YAML file.
//
// The file is taken from the --config flag or the SCORELINE_CONFIG
// environment variable. Without either, Default() is used as is. Values
// in the file override the defaults field by field.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jsphweid/scoreline/constants"
)

const EnvVar = "SCORELINE_CONFIG"

type Config struct {
	Import ImportConfig `yaml:"import"`
	Log    LogConfig    `yaml:"log"`
	Serve  ServeConfig  `yaml:"serve"`
	Dynamo DynamoConfig `yaml:"dynamo"`
}

type ImportConfig struct {
	// Parallel materializes parts on separate goroutines.
	Parallel bool `yaml:"parallel"`

	// CeilingFactor bounds expansion to measures*factor played measures.
	CeilingFactor int `yaml:"ceiling_factor"`

	// DefaultVelocity applies until the first dynamic marking.
	DefaultVelocity int `yaml:"default_velocity"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`

	// MaxBodyBytes caps uploaded documents.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// AllowedOrigins for CORS; empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DynamoConfig struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Table    string `yaml:"table"`
}

func Default() *Config {
	return &Config{
		Import: ImportConfig{
			CeilingFactor:   constants.CeilingFactor,
			DefaultVelocity: constants.DefaultVelocity,
		},
		Log: LogConfig{Level: "info"},
		Serve: ServeConfig{
			Addr:         ":8080",
			MaxBodyBytes: 16 << 20,
		},
		Dynamo: DynamoConfig{
			Endpoint: "http://localhost:8000",
			Region:   "localhost",
			Table:    constants.GetIndexTable(),
		},
	}
}

// Load reads path, or the file named by SCORELINE_CONFIG when path is
// empty. With neither, the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Import.CeilingFactor < 1 {
		return errors.Errorf("import.ceiling_factor must be at least 1, got %d", c.Import.CeilingFactor)
	}
	if c.Import.DefaultVelocity < 1 || c.Import.DefaultVelocity > constants.MaxVelocity {
		return errors.Errorf("import.default_velocity must be within 1-127, got %d", c.Import.DefaultVelocity)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Serve.MaxBodyBytes <= 0 {
		return errors.Errorf("serve.max_body_bytes must be positive, got %d", c.Serve.MaxBodyBytes)
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.Errorf("unknown log level %q", s)
}
