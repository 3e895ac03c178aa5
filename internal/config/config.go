package config

import (
	"errors"
	"time"
)

// Config represents the router configuration
type Config struct {
	Router   RouterConfig   `mapstructure:"router"`
	Server   ServerConfig   `mapstructure:"server"`
	Hosts    []HostConfig   `mapstructure:"hosts"`
	Pool     PoolConfig     `mapstructure:"pool"`
	TokenMap TokenMapConfig `mapstructure:"token_map"`
	Health   HealthConfig   `mapstructure:"health"`
	Gossip   GossipConfig   `mapstructure:"gossip"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RouterConfig represents routing-core configuration
type RouterConfig struct {
	Strategy            string `mapstructure:"strategy"`
	LocalRack           string `mapstructure:"local_rack"`
	LocalDatacenter     string `mapstructure:"local_datacenter"`
	RequireCompleteRing bool   `mapstructure:"require_complete_ring"`
}

// ServerConfig represents the admin HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
}

// RateLimit represents admin API rate limiting
type RateLimit struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// HostConfig represents one backend host in the static topology
type HostConfig struct {
	Hostname   string `mapstructure:"hostname"`
	Port       int    `mapstructure:"port"`
	Rack       string `mapstructure:"rack"`
	Datacenter string `mapstructure:"datacenter"`
}

// PoolConfig represents per-host connection pool configuration
type PoolConfig struct {
	Backend       string        `mapstructure:"backend"`
	BorrowTimeout time.Duration `mapstructure:"borrow_timeout"`
	Redis         RedisConfig   `mapstructure:"redis"`
	GRPC          GRPCConfig    `mapstructure:"grpc"`
}

// RedisConfig represents the Redis pool backend configuration
type RedisConfig struct {
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// GRPCConfig represents the gRPC pool backend configuration
type GRPCConfig struct {
	KeepaliveTime    time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout time.Duration `mapstructure:"keepalive_timeout"`
	MaxRecvMsgSize   int           `mapstructure:"max_recv_msg_size"`
}

// TokenMapConfig represents the token-map supplier configuration
type TokenMapConfig struct {
	Source   string         `mapstructure:"source"`
	Path     string         `mapstructure:"path"`
	URL      string         `mapstructure:"url"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	AppID    string         `mapstructure:"app_id"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents the Postgres token-map source
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// HealthConfig represents health probing configuration
type HealthConfig struct {
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	ProbesPerSecond  float64       `mapstructure:"probes_per_second"`
	Burst            int           `mapstructure:"burst"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
}

// GossipConfig represents gossip membership configuration
type GossipConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	NodeName       string        `mapstructure:"node_name"`
	BindPort       int           `mapstructure:"bind_port"`
	SeedNodes      []string      `mapstructure:"seed_nodes"`
	GossipInterval time.Duration `mapstructure:"gossip_interval"`
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Router.Strategy {
	case "round_robin", "token_aware":
	default:
		return errors.New("router.strategy must be one of: round_robin, token_aware")
	}
	if c.Router.LocalRack == "" {
		return errors.New("router.local_rack is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	switch c.Pool.Backend {
	case "redis", "grpc":
	default:
		return errors.New("pool.backend must be one of: redis, grpc")
	}
	switch c.TokenMap.Source {
	case "static", "yaml", "http", "postgres":
	default:
		return errors.New("token_map.source must be one of: static, yaml, http, postgres")
	}
	if c.TokenMap.Source == "yaml" && c.TokenMap.Path == "" {
		return errors.New("token_map.path is required for the yaml source")
	}
	if c.TokenMap.Source == "http" && c.TokenMap.URL == "" {
		return errors.New("token_map.url is required for the http source")
	}
	if c.TokenMap.Source == "postgres" {
		if c.TokenMap.Database.Host == "" {
			return errors.New("token_map.database.host is required for the postgres source")
		}
		if c.TokenMap.AppID == "" {
			return errors.New("token_map.app_id is required for the postgres source")
		}
	}
	if len(c.Hosts) == 0 && c.TokenMap.Source == "static" {
		return errors.New("hosts is required for the static token map source")
	}
	for _, h := range c.Hosts {
		if h.Hostname == "" || h.Port <= 0 {
			return errors.New("every host needs a hostname and port")
		}
		if h.Rack == "" {
			return errors.New("every host needs a rack")
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	return &Config{
		Router: RouterConfig{
			Strategy:        "token_aware",
			LocalRack:       "local",
			LocalDatacenter: "local-dc",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8100,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimit{
				Enabled:           false,
				RequestsPerSecond: 100,
				BurstSize:         200,
			},
		},
		Pool: PoolConfig{
			Backend:       "redis",
			BorrowTimeout: 2 * time.Second,
			Redis: RedisConfig{
				PoolSize:     50,
				MinIdleConns: 5,
			},
			GRPC: GRPCConfig{
				KeepaliveTime:    30 * time.Second,
				KeepaliveTimeout: 10 * time.Second,
				MaxRecvMsgSize:   10 * 1024 * 1024,
			},
		},
		TokenMap: TokenMapConfig{
			Source:  "yaml",
			Path:    "./tokens.yaml",
			Timeout: 10 * time.Second,
			Database: DatabaseConfig{
				Port:           5432,
				MaxConnections: 10,
			},
		},
		Health: HealthConfig{
			ProbeInterval:    10 * time.Second,
			ProbeTimeout:     2 * time.Second,
			ProbesPerSecond:  20,
			Burst:            5,
			FailureThreshold: 3,
		},
		Gossip: GossipConfig{
			Enabled:        false,
			BindPort:       7946,
			GossipInterval: 200 * time.Millisecond,
			ProbeInterval:  time.Second,
			ProbeTimeout:   500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
