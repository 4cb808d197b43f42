package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/draftboard/internal/adpfeed"
	"github.com/Billy-Davies-2/draftboard/internal/advisor"
	"github.com/Billy-Davies-2/draftboard/internal/clickhouse"
	"github.com/Billy-Davies-2/draftboard/internal/config"
	"github.com/Billy-Davies-2/draftboard/internal/dal"
	"github.com/Billy-Davies-2/draftboard/internal/dataset"
	grpcserver "github.com/Billy-Davies-2/draftboard/internal/grpc"
	"github.com/Billy-Davies-2/draftboard/internal/handlers"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/mcptools"
	"github.com/Billy-Davies-2/draftboard/internal/mocks"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

// adpSource is the ClickHouse client or its development mock
type adpSource interface {
	adpfeed.Source
	Ping(context.Context) error
	Close() error
}

var (
	cfg       *config.Config
	dataStore dal.DraftDAL
	ps        pubsub.Upstream
	adpClient adpSource
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	var err error
	cfg, err = config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger first
	logger.Init(cfg.LogLevel)
	logger.Info("Starting draft board service", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataStore, err = openStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize data store", "error", err, "driver", cfg.Database.Driver)
		log.Fatalf("Failed to initialize data store: %v", err)
	}
	defer dataStore.Close()

	base, err := dataset.Load(cfg.DatasetFile)
	if err != nil {
		logger.Error("Failed to load player dataset", "error", err, "file", cfg.DatasetFile)
		log.Fatalf("Failed to load player dataset: %v", err)
	}
	logger.Info("Loaded player dataset", "players", len(base), "file", cfg.DatasetFile)

	upstream, closeBus, err := openBus(cfg)
	if err != nil {
		logger.Error("Failed to initialize event bus", "error", err)
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	defer closeBus()
	ps = upstream
	bus := pubsub.NewWithUpstream(upstream)

	board, err := session.New(base, dataStore,
		session.WithPublisher(bus),
		session.WithDefaultSettings(cfg.Draft),
	)
	if err != nil {
		logger.Error("Failed to start draft session", "error", err)
		log.Fatalf("Failed to start draft session: %v", err)
	}

	adv := newAdvisor(cfg, board)

	// Start periodic ADP sync (ClickHouse in production, drifting mock in development)
	adpClient, err = openADPSource(ctx, cfg, base)
	if err != nil {
		logger.Error("Failed to initialize ClickHouse", "error", err, "address", cfg.ClickHouse.Addr)
		log.Fatalf("Failed to initialize ClickHouse: %v", err)
	}
	if adpClient != nil {
		defer adpClient.Close()
		go adpfeed.NewSyncer(adpClient, board, cfg.ADPSyncInterval, nil).Run(ctx)
	} else {
		logger.Info("Skipping ADP sync (ClickHouse not configured)")
	}

	if cfg.DatasetFile != "" {
		watcher, err := adpfeed.NewFileWatcher(cfg.DatasetFile, board)
		if err != nil {
			logger.Warn("Dataset file watcher disabled", "error", err)
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	grpcServer := grpc.NewServer()
	grpcserver.Register(grpcServer, grpcserver.NewServer(board, bus))
	go func() {
		addr := "0.0.0.0:" + cfg.GRPCPort
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
			log.Fatalf("Failed to listen for gRPC: %v", err)
		}
		logger.Info("gRPC server starting", "address", addr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.NewAPIHandlers(board, adv, bus).Register(mux)

	mcpServer, tools := mcptools.NewServer(board)
	mux.Handle("/mcp", mcptools.Handler(mcpServer))
	logger.Info("MCP tools registered", "count", len(tools), "path", "/mcp")

	// Health check endpoints
	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/healthz", livenessHandler) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", readinessHandler) // Kubernetes readiness probe

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Content-Disposition", "Mcp-Session-Id"},
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           corsHandler.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
}

// openStore picks the persistence backend from DB_DRIVER
func openStore(cfg *config.Config) (dal.DraftDAL, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		store, err := dal.NewSQLiteDAL(cfg.Database.SQLiteFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to SQLite database", "file", cfg.Database.SQLiteFile)
		return store, nil
	case "postgres":
		if cfg.Database.URL == "" {
			// Development without a server
			store, err := mocks.NewMockPostgresDAL(cfg.Database.SQLiteFile)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
		store, err := dal.NewPostgresDAL(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Postgres database")
		return store, nil
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL(), nil
	}
}

// openBus uses embedded NATS in development, the in-memory mock under test
// and real NATS JetStream otherwise
func openBus(cfg *config.Config) (pubsub.Upstream, func(), error) {
	switch {
	case cfg.Environment == config.EnvTest:
		m := mocks.NewMockNATSPubSub()
		return m, m.Close, nil
	case cfg.IsDevelopment():
		logger.Info("Starting embedded NATS server for local development")
		opts := pubsub.DefaultEmbeddedNATSOptions()
		opts.Subject = cfg.NATS.Subject
		embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
		return embedded, embedded.Close, nil
	default:
		logger.Info("Using real NATS JetStream for production")
		natsBus, err := pubsub.NewNATSPubSub(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
		return natsBus, natsBus.Close, nil
	}
}

// newAdvisor returns nil when no completion service is available
func newAdvisor(cfg *config.Config, board *session.Session) *advisor.Advisor {
	if cfg.OpenAI.APIKey != "" {
		oc := advisor.DefaultOpenAIConfig()
		oc.APIKey = cfg.OpenAI.APIKey
		oc.Model = cfg.OpenAI.Model
		oc.BaseURL = cfg.OpenAI.BaseURL
		client, err := advisor.NewOpenAIClient(oc)
		if err != nil {
			logger.Error("Failed to initialize OpenAI client", "error", err)
			return nil
		}
		logger.Info("AI advice enabled", "model", oc.Model)
		return advisor.New(client, board, 0)
	}
	if cfg.IsDevelopment() {
		logger.Info("Using mock completer for AI advice (OPENAI_API_KEY not set)")
		return advisor.New(mocks.NewMockCompleter(), board, 0)
	}
	logger.Warn("AI advice disabled (OPENAI_API_KEY not set)")
	return nil
}

func openADPSource(ctx context.Context, cfg *config.Config, base []models.Player) (adpSource, error) {
	if cfg.IsDevelopment() || cfg.Environment == config.EnvTest {
		return mocks.NewMockADPSource(dataset.ADPMap(base)), nil
	}
	if cfg.ClickHouse.Addr == "" {
		return nil, nil
	}
	client, err := clickhouse.NewClient(ctx, clickhouse.Options{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to ClickHouse", "address", cfg.ClickHouse.Addr, "database", cfg.ClickHouse.Database)
	return client, nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	// Check database connectivity
	if err := dataStore.Ping(); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["database"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	if adpClient != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := adpClient.Ping(ctx); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks["clickhouse"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			checks["clickhouse"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else if cfg.Environment == config.EnvProduction {
		checks["clickhouse"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	if ps != nil {
		// Connection health is handled internally by the NATS client
		checks["nats"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// livenessHandler handles Kubernetes liveness probes
// Returns 200 if the application is running (doesn't check dependencies)
func livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// readinessHandler handles Kubernetes readiness probes
// Returns 200 if the application is ready to serve traffic (checks critical dependencies)
func readinessHandler(w http.ResponseWriter, r *http.Request) {
	if err := dataStore.Ping(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "not_ready",
			"reason":    "database_unavailable",
			"timestamp": time.Now().Unix(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
