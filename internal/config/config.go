// Package config loads the API settings in layers: built-in defaults, then
// an optional YAML file, then MOVIES_* environment variables. Command-line
// flags, applied by the binary afterwards, have the last word.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding the YAML config path.
const PathEnvVar = "MOVIES_CONFIG"

const envPrefix = "MOVIES_"

type Config struct {
	// the network port that we want the server to listen on
	Port int `koanf:"port"`

	// current operating environment (development|staging|production)
	Env string `koanf:"env"`

	// directory holding the built front-end, served in production
	StaticDir string `koanf:"static_dir"`

	// minimum log level (info|error|fatal|off)
	LogLevel string `koanf:"log_level"`

	DB      DBConfig      `koanf:"db"`
	Limiter LimiterConfig `koanf:"limiter"`
	CORS    CORSConfig    `koanf:"cors"`
}

type DBConfig struct {
	URI         string        `koanf:"uri"`
	Name        string        `koanf:"name"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxPoolSize uint64        `koanf:"max_pool_size"`
}

// LimiterConfig holds the requests per second and burst values of the
// per-client rate limiter, and whether it is enabled at all.
type LimiterConfig struct {
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
	Enabled bool    `koanf:"enabled"`
}

// CORSConfig is the single place that decides which browser origins may call
// the API. "*" trusts every origin.
type CORSConfig struct {
	TrustedOrigins []string `koanf:"trusted_origins"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Port:      5000,
		Env:       "development",
		StaticDir: "frontend/build",
		LogLevel:  "info",
		DB: DBConfig{
			URI:         "mongodb://localhost:27017",
			Name:        "catalog",
			Timeout:     3 * time.Second,
			MaxPoolSize: 100,
		},
		Limiter: LimiterConfig{
			RPS:     10,
			Burst:   20,
			Enabled: true,
		},
		CORS: CORSConfig{
			TrustedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// envKeys maps MOVIES_* suffixes onto config paths.
var envKeys = map[string]string{
	"port":                 "port",
	"env":                  "env",
	"static_dir":           "static_dir",
	"log_level":            "log_level",
	"db_uri":               "db.uri",
	"db_name":              "db.name",
	"db_timeout":           "db.timeout",
	"db_max_pool_size":     "db.max_pool_size",
	"limiter_rps":          "limiter.rps",
	"limiter_burst":        "limiter.burst",
	"limiter_enabled":      "limiter.enabled",
	"cors_trusted_origins": "cors.trusted_origins",
}

// envValue turns MOVIES_DB_URI=... into ("db.uri", value). Unknown variables
// are dropped. Origins are space or comma separated.
func envValue(key, value string) (string, any) {
	path, ok := envKeys[strings.ToLower(strings.TrimPrefix(key, envPrefix))]
	if !ok {
		return "", nil
	}

	if path == "cors.trusted_origins" {
		return path, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}

	return path, value
}

// Load builds the configuration from defaults, the file named by
// MOVIES_CONFIG (if set) and the environment.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	case c.DB.URI == "":
		return fmt.Errorf("db uri must be provided")
	case c.DB.Name == "":
		return fmt.Errorf("db name must be provided")
	case c.DB.Timeout <= 0:
		return fmt.Errorf("db timeout must be positive")
	case c.Limiter.Enabled && (c.Limiter.RPS <= 0 || c.Limiter.Burst <= 0):
		return fmt.Errorf("limiter rps and burst must be positive when the limiter is enabled")
	}
	return nil
}

// IsProduction reports whether the API runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
