package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/algorithm"
	"github.com/fakeNetflix/dyno/internal/config"
	"github.com/fakeNetflix/dyno/internal/discovery"
	"github.com/fakeNetflix/dyno/internal/health"
	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/monitor"
	"github.com/fakeNetflix/dyno/internal/pool"
	"github.com/fakeNetflix/dyno/internal/routing"
	"github.com/fakeNetflix/dyno/internal/server"
	"github.com/fakeNetflix/dyno/internal/topology"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting Dyno request router")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("local_rack", cfg.Router.LocalRack),
		zap.String("local_datacenter", cfg.Router.LocalDatacenter),
		zap.String("strategy", cfg.Router.Strategy),
		zap.String("pool_backend", cfg.Pool.Backend),
		zap.String("token_map_source", cfg.TokenMap.Source))

	// Build hosts and per-host connection pools
	hosts := make([]*model.Host, 0, len(cfg.Hosts))
	pools := make(map[*model.Host]pool.HostConnectionPool, len(cfg.Hosts))
	probeable := make([]health.ProbeablePool, 0, len(cfg.Hosts))

	for _, hc := range cfg.Hosts {
		host := model.NewHost(hc.Hostname, hc.Port, hc.Rack, hc.Datacenter, model.StatusUp)
		hosts = append(hosts, host)

		hostPool, err := buildPool(cfg, host, logger)
		if err != nil {
			logger.Fatal("Failed to create connection pool",
				zap.String("host", host.Key()), zap.Error(err))
		}
		pools[host] = hostPool
		probeable = append(probeable, hostPool)
	}
	logger.Info("Connection pools created", zap.Int("count", len(pools)))

	// Build the token map supplier
	supplier, cleanup, err := buildSupplier(cfg, hosts, logger)
	if err != nil {
		logger.Fatal("Failed to create token map supplier", zap.Error(err))
	}
	defer cleanup()

	// Initialize the routing core
	promMonitor := monitor.NewPrometheusMonitor()
	selector := routing.NewHostSelectionWithFallback(routing.Options{
		Strategy:            routing.Strategy(cfg.Router.Strategy),
		LocalRack:           cfg.Router.LocalRack,
		LocalDatacenter:     cfg.Router.LocalDatacenter,
		TokenSupplier:       supplier,
		Hash:                algorithm.NewXXHash(),
		RequireCompleteRing: cfg.Router.RequireCompleteRing,
	}, promMonitor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := selector.InitWithHosts(ctx, pools); err != nil {
		logger.Fatal("Failed to initialize topology", zap.Error(err))
	}
	logger.Info("Topology initialized",
		zap.Int("replication_factor", selector.ReplicationFactor()))

	// Start the health monitor
	healthMonitor := health.NewMonitor(probeable, health.Config{
		ProbeInterval:    cfg.Health.ProbeInterval,
		ProbeTimeout:     cfg.Health.ProbeTimeout,
		ProbesPerSecond:  cfg.Health.ProbesPerSecond,
		Burst:            cfg.Health.Burst,
		FailureThreshold: cfg.Health.FailureThreshold,
	}, logger)
	go healthMonitor.Start(ctx)
	logger.Info("Health monitor started")

	// Optionally join the gossip mesh for membership changes
	var gossip *discovery.Gossip
	if cfg.Gossip.Enabled {
		gossip, err = discovery.NewGossip(discovery.Config{
			Enabled:        true,
			NodeName:       cfg.Gossip.NodeName,
			BindPort:       cfg.Gossip.BindPort,
			SeedNodes:      cfg.Gossip.SeedNodes,
			GossipInterval: cfg.Gossip.GossipInterval,
			ProbeInterval:  cfg.Gossip.ProbeInterval,
			ProbeTimeout:   cfg.Gossip.ProbeTimeout,
		}, hosts, func() {
			if err := selector.InitWithHosts(context.Background(), pools); err != nil {
				logger.Error("Topology rebuild after gossip event failed", zap.Error(err))
			}
		}, logger)
		if err != nil {
			logger.Fatal("Failed to start gossip", zap.Error(err))
		}
		logger.Info("Gossip started", zap.Int("members", gossip.Members()))
	}

	// Start metrics server
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			logger.Info("Starting metrics server", zap.String("address", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// Start the admin HTTP server
	adminServer := server.NewServer(cfg, selector, logger)
	adminServer.SetupRoutes()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- adminServer.Start()
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("Received signal", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	logger.Info("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Admin server shutdown failed", zap.Error(err))
	}

	healthMonitor.Stop()
	cancel()

	if gossip != nil {
		if err := gossip.Shutdown(); err != nil {
			logger.Warn("Gossip shutdown failed", zap.Error(err))
		}
	}

	for _, p := range probeable {
		if closer, ok := p.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("Pool close failed",
					zap.String("host", p.Host().Key()), zap.Error(err))
			}
		}
	}

	logger.Info("Dyno request router stopped")
}

// buildPool creates the configured pool backend for one host
func buildPool(cfg *config.Config, host *model.Host, logger *zap.Logger) (health.ProbeablePool, error) {
	switch cfg.Pool.Backend {
	case "redis":
		return pool.NewRedisPool(host, pool.RedisConfig{
			Password:     cfg.Pool.Redis.Password,
			DB:           cfg.Pool.Redis.DB,
			PoolSize:     cfg.Pool.Redis.PoolSize,
			MinIdleConns: cfg.Pool.Redis.MinIdleConns,
		}, logger), nil
	case "grpc":
		return pool.NewGRPCPool(host, pool.GRPCConfig{
			KeepaliveTime:    cfg.Pool.GRPC.KeepaliveTime,
			KeepaliveTimeout: cfg.Pool.GRPC.KeepaliveTimeout,
			MaxRecvMsgSize:   cfg.Pool.GRPC.MaxRecvMsgSize,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown pool backend %q", cfg.Pool.Backend)
	}
}

// buildSupplier creates the configured token map source
func buildSupplier(cfg *config.Config, hosts []*model.Host, logger *zap.Logger) (topology.TokenMapSupplier, func(), error) {
	noop := func() {}
	switch cfg.TokenMap.Source {
	case "yaml":
		return topology.NewYAMLSupplier(cfg.TokenMap.Path, logger), noop, nil
	case "http":
		return topology.NewHTTPSupplier(cfg.TokenMap.URL, cfg.TokenMap.Timeout, logger), noop, nil
	case "postgres":
		db := cfg.TokenMap.Database
		connString := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?pool_max_conns=%d",
			db.User, db.Password, db.Host, db.Port, db.Database, db.MaxConnections)
		supplier, err := topology.NewPostgresSupplier(connString, cfg.TokenMap.AppID, logger)
		if err != nil {
			return nil, nil, err
		}
		return supplier, supplier.Close, nil
	case "static":
		tokens := make([]model.HostToken, 0, len(hosts))
		hash := algorithm.NewXXHash()
		for _, h := range hosts {
			tokens = append(tokens, model.NewHostToken(hash.HashString(h.Key()), h))
		}
		return topology.NewStaticSupplier(tokens), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown token map source %q", cfg.TokenMap.Source)
	}
}
