package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and the flat,
// unprefixed environment variables the engine accepts (EMBEDDING_MODEL,
// REDIS_HOST, RULES_PATH, ...). If configFile is empty, it searches for
// textguard.yaml/.yml in standard locations.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("textguard")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	bindEnvKeys()
}

// findConfigFile searches standard locations for a textguard config file
// with an explicit YAML extension.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".textguard"),
		"/etc/textguard",
	}
	return findConfigFileInPaths(paths)
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "textguard"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindEnvKeys binds the engine's flat environment variable surface to the
// nested config keys Viper unmarshals into.
func bindEnvKeys() {
	_ = viper.BindEnv("server.host", "HOST")
	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")

	_ = viper.BindEnv("rules.path", "RULES_PATH")
	_ = viper.BindEnv("rules.poll_interval", "RULES_POLL_INTERVAL")

	_ = viper.BindEnv("embedding.model", "EMBEDDING_MODEL")
	_ = viper.BindEnv("embedding.timeout", "API_TIMEOUT")

	_ = viper.BindEnv("classifier.url", "TOXIC_CLASSIFIER_URL")
	_ = viper.BindEnv("classifier.timeout", "API_TIMEOUT")

	_ = viper.BindEnv("cache.expiry", "CACHE_EXPIRY")
	_ = viper.BindEnv("cache.redis.host", "REDIS_HOST")
	_ = viper.BindEnv("cache.redis.port", "REDIS_PORT")
	_ = viper.BindEnv("cache.redis.db", "REDIS_DB")
	_ = viper.BindEnv("cache.redis.password", "REDIS_PASSWORD")

	_ = viper.BindEnv("workers.max_workers", "MAX_WORKERS")

	// WORKERS is reserved for a future multi-process mode; bound and logged
	// at startup but not otherwise consumed.
	_ = viper.BindEnv("workers.process_count", "WORKERS")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and validates the result.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults, but does
// not validate. Use this when callers need to apply further overrides
// before validation.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or an empty string in env-vars-only mode.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
