// Package config defines all configuration structures for the LitFed
// federated literature-search service.  No I/O or parsing logic lives here,
// only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the result store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.  Redis caches persisted-DOI
// sets so that MarkPersisted does not hit PostgreSQL on every federated query.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	QueryTTL     time.Duration `mapstructure:"query_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer parameters for domain events.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	TimeoutMS       int      `mapstructure:"timeout_ms"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
	Enabled         bool     `mapstructure:"enabled"`
}

// ProviderConfig holds per-provider settings for one vendor wrapper instance.
// APIKey here is the service-level fallback; per-user keys supplied at request
// time take precedence (see internal/provider.KeyProvider).
type ProviderConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	Collection   string        `mapstructure:"collection"`
	ResultFormat string        `mapstructure:"result_format"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// ProvidersConfig groups the wrapper configurations for all supported vendors.
type ProvidersConfig struct {
	Springer      ProviderConfig `mapstructure:"springer"`
	ScienceDirect ProviderConfig `mapstructure:"sciencedirect"`
	Scopus        ProviderConfig `mapstructure:"scopus"`
}

// FederationConfig holds orchestrator tunables for multi-provider fan-out.
type FederationConfig struct {
	// QueryTimeout bounds a single federated query across all providers.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// DefaultPageLength is the total result count requested when the caller
	// does not specify one.
	DefaultPageLength int `mapstructure:"default_page_length"`
	// PersistChunkSize is the number of records written per batch when
	// persisting paged results.
	PersistChunkSize int `mapstructure:"persist_chunk_size"`
}

// AuthConfig holds API authentication parameters.  The service uses static
// bearer tokens; OIDC integration is a deployment concern handled upstream.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Tokens maps bearer token to the user it authenticates.
	Tokens map[string]string `mapstructure:"tokens"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire service.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Federation FederationConfig `mapstructure:"federation"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka — only validated when event publishing is enabled.
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
	}

	// Providers — at least one vendor must be enabled, and enabled vendors
	// need an endpoint.
	enabled := 0
	for name, p := range map[string]ProviderConfig{
		"springer":      c.Providers.Springer,
		"sciencedirect": c.Providers.ScienceDirect,
		"scopus":        c.Providers.Scopus,
	} {
		if !p.Enabled {
			continue
		}
		enabled++
		if p.Endpoint == "" {
			return fmt.Errorf("config: providers.%s.endpoint is required when enabled", name)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("config: providers.%s.timeout must be ≥ 0", name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("config: at least one provider must be enabled")
	}

	// Federation
	if c.Federation.QueryTimeout <= 0 {
		return fmt.Errorf("config: federation.query_timeout must be > 0")
	}
	if c.Federation.DefaultPageLength < 1 {
		return fmt.Errorf("config: federation.default_page_length must be ≥ 1, got %d", c.Federation.DefaultPageLength)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
