package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/cache"
	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/raaihank/doc-sentinel/internal/server"
	"github.com/raaihank/doc-sentinel/internal/store"
	"github.com/raaihank/doc-sentinel/internal/websocket"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

const statusInterval = 30 * time.Second

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.String("health-check", "", "Check the health endpoint at this base URL and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("doc-sentinel %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck != "" {
		performHealthCheck(*healthCheck)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting doc-sentinel",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	srv, err := server.New(cfg, log, deps)
	if err != nil {
		log.Fatal("Failed to create API server", zap.Error(err))
	}

	if deps.Hub != nil {
		go broadcastStatus(ctx, deps.Hub, srv)
	}

	if err := config.Watch(log.Logger, func(next *config.Config) {
		if next.Logging.Level == log.Level() {
			return
		}
		if err := log.SetLevel(next.Logging.Level); err != nil {
			log.Warn("Ignoring invalid log level", zap.Error(err))
			return
		}
		log.Info("Log level updated", zap.String("level", next.Logging.Level))
	}); err != nil {
		log.Debug("Configuration watch disabled", zap.Error(err))
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
		}

		log.Info("Server shutdown complete")
	}
}

// buildDeps wires the engine and the optional store, cache and hub. The
// returned cleanup closes whatever was opened.
func buildDeps(ctx context.Context, cfg *config.Config, log *logger.Logger) (server.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	table, err := rules.LoadTable(cfg.Detection.RulePack)
	if err != nil {
		return server.Deps{}, cleanup, fmt.Errorf("failed to load rules: %w", err)
	}

	engine, err := analysis.NewEngine(table, nil, analysis.Options{
		EnableDetector:   cfg.Detection.Enabled,
		EnableClassifier: cfg.Detection.Classifier.Enabled,
		Subtypes:         cfg.Detection.Subtypes,
		TruncateLength:   cfg.Detection.TruncateLength,
	}, log.WithComponent("analysis").Logger)
	if err != nil {
		return server.Deps{}, cleanup, fmt.Errorf("failed to create analysis engine: %w", err)
	}

	deps := server.Deps{Engine: engine, Table: table}

	if cfg.Database.Enabled {
		st, err := store.New(&store.Config{
			DatabaseURL:     cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			AutoMigrate:     cfg.Database.AutoMigrate,
		}, log.WithComponent("store").Logger)
		if err != nil {
			return server.Deps{}, cleanup, err
		}
		closers = append(closers, func() { _ = st.Close() })
		deps.Store = st
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(&cache.Config{
			RedisURL:       cfg.Cache.RedisURL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
		}, log.WithComponent("cache").Logger)
		if err != nil {
			// The API stays usable without a cache.
			log.Warn("Report cache disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = c.Close() })
			deps.Cache = c
		}
	}

	if cfg.WebSocket.Enabled {
		ws := cfg.WebSocket
		hub := websocket.NewHub(&websocket.HubConfig{
			BroadcastDetections:  ws.Events.BroadcastDetections,
			BroadcastSystem:      ws.Events.BroadcastSystem,
			BroadcastConnections: ws.Events.BroadcastConnections,
			MaxConnections:       ws.MaxConnections,
			ReadBufferSize:       ws.ReadBufferSize,
			WriteBufferSize:      ws.WriteBufferSize,
			PingInterval:         ws.PingInterval,
			PongTimeout:          ws.PongTimeout,
			WriteTimeout:         ws.WriteTimeout,
			MaxMessageSize:       ws.MaxMessageSize,
			AllowedOrigins:       ws.AllowedOrigins,
			Username:             ws.Username,
			Password:             ws.Password,
		}, log.Logger)
		go hub.Run(ctx)
		deps.Hub = hub
	}

	return deps, cleanup, nil
}

func broadcastStatus(ctx context.Context, hub *websocket.Hub, srv *server.Server) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			hub.BroadcastEvent(websocket.Event{
				Type:      websocket.EventTypeSystemStatus,
				Timestamp: now,
				Data:      srv.SystemStatus(),
			})
		}
	}
}

// performHealthCheck performs a health check against a running server
func performHealthCheck(baseURL string) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
}
