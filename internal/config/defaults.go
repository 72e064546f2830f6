package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "litfed"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "litfed"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "litfed-group"

	DefaultSpringerEndpoint = "http://api.springernature.com"
	DefaultElsevierEndpoint = "https://api.elsevier.com/content"

	DefaultProviderTimeout    = 30 * time.Second
	DefaultProviderMaxRetries = 2

	DefaultFederationQueryTimeout = 2 * time.Minute
	DefaultFederationPageLength   = 50
	DefaultPersistChunkSize       = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = time.Hour
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	applyProviderDefaults(&cfg.Providers.Springer, DefaultSpringerEndpoint)
	applyProviderDefaults(&cfg.Providers.ScienceDirect, DefaultElsevierEndpoint)
	applyProviderDefaults(&cfg.Providers.Scopus, DefaultElsevierEndpoint)

	// ── Federation ────────────────────────────────────────────────────────────
	if cfg.Federation.QueryTimeout == 0 {
		cfg.Federation.QueryTimeout = DefaultFederationQueryTimeout
	}
	if cfg.Federation.DefaultPageLength == 0 {
		cfg.Federation.DefaultPageLength = DefaultFederationPageLength
	}
	if cfg.Federation.PersistChunkSize == 0 {
		cfg.Federation.PersistChunkSize = DefaultPersistChunkSize
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func applyProviderDefaults(p *ProviderConfig, endpoint string) {
	if p.Endpoint == "" {
		p.Endpoint = endpoint
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultProviderTimeout
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = DefaultProviderMaxRetries
	}
}
