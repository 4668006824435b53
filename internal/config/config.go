// Package config provides the configuration schema for the content
// guardrail engine.
package config

// Config is the top-level configuration for the guardrail engine.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Rules configures the rule document and its hot-reload path.
	Rules RulesConfig `yaml:"rules" mapstructure:"rules"`

	// Embedding configures the semantic-match embedding oracle.
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`

	// Classifier configures the remote toxicity classifier.
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`

	// Cache configures the result cache backend.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Workers bounds the matcher-pipeline worker pool.
	Workers WorkersConfig `yaml:"workers" mapstructure:"workers"`

	// Admin configures the admin API key used to gate the reload endpoint.
	Admin AdminConfig `yaml:"admin" mapstructure:"admin"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host is the address to listen on. Defaults to "0.0.0.0".
	Host string `yaml:"host" mapstructure:"host" validate:"omitempty,ip4_addr|hostname"`

	// Port is the TCP port to listen on. Defaults to 8080.
	Port int `yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`

	// LogLevel sets the minimum slog level. Defaults to "info".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// RulesConfig configures the rule document.
type RulesConfig struct {
	// Path is the filesystem location of the rule document. Defaults to
	// "rules.yaml".
	Path string `yaml:"path" mapstructure:"path" validate:"required"`

	// PollInterval is how often serve checks the rule document's mtime for
	// an out-of-band edit and rebuilds the compiled indices if it advanced.
	// Defaults to 30s. This is in addition to the forced /admin/reload
	// endpoint and the SIGHUP handler on POSIX.
	PollInterval string `yaml:"poll_interval" mapstructure:"poll_interval" validate:"omitempty"`
}

// EmbeddingConfig configures the embedding oracle used by the semantic
// matcher stage.
type EmbeddingConfig struct {
	// Endpoint is the HTTP endpoint of the embedding service.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`

	// Model identifies which embedding model the endpoint should use. Any
	// model is accepted as long as its vectors are internally
	// L2-comparable; the engine never inspects vector dimensionality.
	Model string `yaml:"model" mapstructure:"model"`

	// Timeout bounds each embedding request. Defaults to 5s.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty"`
}

// ClassifierConfig configures the remote toxicity classifier.
type ClassifierConfig struct {
	// URL is the toxicity classifier endpoint.
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Timeout bounds each classifier request. Defaults to 5s.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty"`
}

// CacheConfig configures the result cache backend.
type CacheConfig struct {
	// Backend selects the cache implementation: "memory" or "redis".
	// Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory redis"`

	// Expiry is the result cache TTL. Defaults to 300s.
	Expiry string `yaml:"expiry" mapstructure:"expiry" validate:"omitempty"`

	// Redis configures the Redis backend, used only when Backend is "redis".
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the Redis result-cache backend.
type RedisConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"omitempty,min=0"`
	Password string `yaml:"password" mapstructure:"password"`
}

// WorkersConfig bounds the matcher-pipeline worker pool.
type WorkersConfig struct {
	// MaxWorkers is the fixed worker-pool size. Defaults to 4.
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers" validate:"omitempty,min=1"`

	// ProcessCount is reserved for a future multi-process mode. It is read
	// and logged at startup but does not currently change any behavior.
	// Defaults to 1.
	ProcessCount int `yaml:"process_count" mapstructure:"process_count" validate:"omitempty,min=1"`
}

// AdminConfig gates the admin reload endpoint.
type AdminConfig struct {
	// KeyHash is the configured admin API key hash (SHA-256 or Argon2id
	// PHC format). When empty, the admin reload endpoint is unauthenticated;
	// operators are expected to front it with network-level controls in
	// that case.
	KeyHash string `yaml:"key_hash" mapstructure:"key_hash"`
}

// SetDefaults applies the default values described in the environment
// configuration surface.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Rules.Path == "" {
		c.Rules.Path = "rules.yaml"
	}
	if c.Rules.PollInterval == "" {
		c.Rules.PollInterval = "30s"
	}

	if c.Embedding.Timeout == "" {
		c.Embedding.Timeout = "5s"
	}

	if c.Classifier.Timeout == "" {
		c.Classifier.Timeout = "5s"
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Expiry == "" {
		c.Cache.Expiry = "300s"
	}
	if c.Cache.Redis.Host == "" {
		c.Cache.Redis.Host = "localhost"
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}

	if c.Workers.MaxWorkers == 0 {
		c.Workers.MaxWorkers = 4
	}
	if c.Workers.ProcessCount == 0 {
		c.Workers.ProcessCount = 1
	}
}
