package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "COINFOLIO"

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	v.SetDefault("api_base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("vs_currency", "usd")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("rate_limit", 0)
	v.SetDefault("catalog_page_size", 50)
	v.SetDefault("search_limit", 50)
	v.SetDefault("search_debounce", "300ms")
	v.SetDefault("refresh_grace", "1s")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", ".coinfolio")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("wallet", "")
	v.SetDefault("interval", "5m")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("run_immediately", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("http_port", 8080)

	// 2. Configure config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	// COINFOLIO_STORAGE_BACKEND -> storage.backend
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known names used by the hosting environment
	v.BindEnv("api_key", EnvPrefix+"_API_KEY", "COINGECKO_API_KEY")
	v.BindEnv("storage.database_url", EnvPrefix+"_STORAGE_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("storage.redis_addr", EnvPrefix+"_STORAGE_REDIS_ADDR", "REDIS_ADDR")

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 5. Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Normalize
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config normalization failed: %w", err)
	}

	// 7. Validate with validator
	validate := NewValidator()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
