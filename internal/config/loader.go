package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Set defaults
	cfg := DefaultConfig()

	// Set up viper
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Read config file (optional - if file doesn't exist, continue with defaults)
	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional if environment variables are set
		fmt.Printf("Warning: Could not read config file %s: %v. Using defaults and environment variables.\n", configPath, err)
	} else {
		// Unmarshal file contents
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Override with environment variables (these take precedence)
	applyEnvironmentOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides to config
func applyEnvironmentOverrides(cfg *Config) {
	// Router configuration
	if rack := os.Getenv("ROUTER_LOCAL_RACK"); rack != "" {
		cfg.Router.LocalRack = rack
	}
	if dc := os.Getenv("ROUTER_LOCAL_DATACENTER"); dc != "" {
		cfg.Router.LocalDatacenter = dc
	}
	if strategy := os.Getenv("ROUTER_STRATEGY"); strategy != "" {
		cfg.Router.Strategy = strategy
	}

	// Server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// Pool configuration
	if backend := os.Getenv("POOL_BACKEND"); backend != "" {
		cfg.Pool.Backend = backend
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Pool.Redis.Password = redisPassword
	}

	// Token map configuration
	if source := os.Getenv("TOKEN_MAP_SOURCE"); source != "" {
		cfg.TokenMap.Source = source
	}
	if path := os.Getenv("TOKEN_MAP_PATH"); path != "" {
		cfg.TokenMap.Path = path
	}
	if url := os.Getenv("TOKEN_MAP_URL"); url != "" {
		cfg.TokenMap.URL = url
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		cfg.TokenMap.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			cfg.TokenMap.Database.Port = p
		}
	}
	if dbName := os.Getenv("DATABASE_NAME"); dbName != "" {
		cfg.TokenMap.Database.Database = dbName
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		cfg.TokenMap.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DATABASE_PASSWORD"); dbPassword != "" {
		cfg.TokenMap.Database.Password = dbPassword
	}

	// Gossip configuration
	if nodeName := os.Getenv("GOSSIP_NODE_NAME"); nodeName != "" {
		cfg.Gossip.NodeName = nodeName
	}

	// Logging configuration
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}
