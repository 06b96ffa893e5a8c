package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Directory DirectoryConfig
	Engine    EngineConfig
	Data      DataConfig
	Graph     GraphConfig
	Logging   LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	// AllowCredentials lets explicitly listed origins send cookies and auth headers.
	AllowCredentials bool
}

// DirectoryConfig describes the reputation directory API.
type DirectoryConfig struct {
	BaseURL    string
	ClientName string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables pacing
	Burst      int
}

// EngineConfig bounds query execution.
type EngineConfig struct {
	RequestTimeout time.Duration
}

// DataConfig selects the local datasets behind the degradation tiers.
type DataConfig struct {
	MockEnabled       bool
	StaticDatasetPath string // empty means the embedded dataset
}

// GraphConfig describes connectivity to the graph database holding the
// static dataset. An empty URI disables it.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	QueryTimeout   time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultDirectoryURL     = "https://api.ethos.network"
	defaultDirectoryClient  = "retroquery"
	defaultDirectoryTimeout = 10 * time.Second
	defaultDirectoryBurst   = 5
	defaultRequestTimeout   = 20 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultGraphTimeout     = 5 * time.Second
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			MetricsEnabled:    parseBoolWithDefault("SERVER_METRICS_ENABLED", false),
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
			AllowCredentials:  parseBoolWithDefault("SERVER_ALLOW_CREDENTIALS", false),
		},
		Directory: DirectoryConfig{
			BaseURL:    valueOrDefault("DIRECTORY_BASE_URL", defaultDirectoryURL),
			ClientName: valueOrDefault("DIRECTORY_CLIENT", defaultDirectoryClient),
			Burst:      parseIntWithDefault("DIRECTORY_BURST", defaultDirectoryBurst),
		},
		Data: DataConfig{
			MockEnabled:       parseBoolWithDefault("MOCK_DATA_ENABLED", true),
			StaticDatasetPath: os.Getenv("STATIC_DATASET_PATH"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       os.Getenv("GRAPH_DATABASE"),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"DIRECTORY_TIMEOUT", defaultDirectoryTimeout, &cfg.Directory.Timeout},
		{"ENGINE_REQUEST_TIMEOUT", defaultRequestTimeout, &cfg.Engine.RequestTimeout},
		{"GRAPH_QUERY_TIMEOUT", defaultGraphTimeout, &cfg.Graph.QueryTimeout},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	if v := os.Getenv("DIRECTORY_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("invalid DIRECTORY_RATE_LIMIT value %q", v)
		}
		cfg.Directory.RateLimit = rps
	}

	return cfg, nil
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

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
