package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Graph   GraphConfig   `yaml:"graph"`
	Query   QueryConfig   `yaml:"query"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	MetricsEnabled    bool          `yaml:"metrics_enabled"`
	AllowedOriginsCSV string        `yaml:"allowed_origins"`
}

// GraphConfig describes connectivity to the Bolt graph engine.
type GraphConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxConnections int    `yaml:"max_connections"`
	AccessMode     string `yaml:"access_mode"` // read|write
}

// QueryConfig bounds queries issued through the HTTP API and CLI.
type QueryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	MaxRows int           `yaml:"max_rows"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	IncludeCaller bool   `yaml:"include_caller"`
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultGraphAccessMode  = "write"
	defaultQueryTimeout     = 30 * time.Second
	defaultQueryMaxRows     = 10000
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Graph: GraphConfig{
			MaxConnections: defaultGraphMaxSessions,
			AccessMode:     defaultGraphAccessMode,
		},
		Query: QueryConfig{
			Timeout: defaultQueryTimeout,
			MaxRows: defaultQueryMaxRows,
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
	}
}

// Load reads configuration from the optional CONFIG_FILE and then from
// environment variables, which take precedence.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	switch strings.ToLower(c.Graph.AccessMode) {
	case "read", "write":
	default:
		return fmt.Errorf("invalid graph access mode %q", c.Graph.AccessMode)
	}
	if c.Query.MaxRows < 0 {
		return fmt.Errorf("query max rows must not be negative, got %d", c.Query.MaxRows)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)
	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	cfg.Graph.URI = valueOrDefault("GRAPH_URI", cfg.Graph.URI)
	cfg.Graph.Database = valueOrDefault("GRAPH_DATABASE", cfg.Graph.Database)
	cfg.Graph.Username = valueOrDefault("GRAPH_USERNAME", cfg.Graph.Username)
	cfg.Graph.Password = valueOrDefault("GRAPH_PASSWORD", cfg.Graph.Password)
	cfg.Graph.MaxConnections = parseIntWithDefault("GRAPH_MAX_CONNECTIONS", cfg.Graph.MaxConnections)
	cfg.Graph.AccessMode = valueOrDefault("GRAPH_ACCESS_MODE", cfg.Graph.AccessMode)

	cfg.Query.MaxRows = parseIntWithDefault("QUERY_MAX_ROWS", cfg.Query.MaxRows)

	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"QUERY_TIMEOUT", &cfg.Query.Timeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", cfg.HTTP.MetricsEnabled)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)

	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
