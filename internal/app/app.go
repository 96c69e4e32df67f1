package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/godilite/urbanscore/internal/config"
	"github.com/godilite/urbanscore/internal/datasource"
	handler "github.com/godilite/urbanscore/internal/grpc"
	"github.com/godilite/urbanscore/internal/metrics"
	"github.com/godilite/urbanscore/internal/repository"
	"github.com/godilite/urbanscore/internal/service"
	"github.com/godilite/urbanscore/pkg/cache"
	dbbuilder "github.com/godilite/urbanscore/pkg/database"
	grpcsrv "github.com/godilite/urbanscore/pkg/grpc/server"
)

const (
	shutdownTimeout    = 10 * time.Second
	sessionPruneFactor = 4
)

type App struct {
	logger        *zap.Logger
	dbPool        *sql.DB
	cache         *cache.Cache
	grpcServer    *grpcsrv.Server
	metricsServer *http.Server
	metricsLis    net.Listener
	sessions      *service.SessionRegistry
	pruneInterval time.Duration
	stopPruning   context.CancelFunc
}

type Option func(*options)

type options struct {
	grpcListener    net.Listener
	metricsListener net.Listener
}

// WithGRPCListener serves gRPC on l instead of GRPC_PORT.
func WithGRPCListener(l net.Listener) Option {
	return func(o *options) { o.grpcListener = l }
}

// WithMetricsListener serves /metrics on l instead of METRICS_PORT.
func WithMetricsListener(l net.Listener) Option {
	return func(o *options) { o.metricsListener = l }
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dbPool, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	contentRepo := repository.NewContentRepository(dbPool)
	if err := contentRepo.Migrate(ctx); err != nil {
		_ = dbPool.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	seeded, err := contentRepo.Seed(ctx)
	if err != nil {
		_ = dbPool.Close()
		return nil, fmt.Errorf("content seed failed: %w", err)
	}
	logger.Info("Neighborhood content ready", zap.Int("seeded", seeded))

	// The borough catalog works without Redis; it just isn't cached.
	var cacher cache.Cacher
	cacheClient, err := cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
	if err != nil {
		logger.Warn("Cache unavailable, continuing without it", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(registry); err != nil {
		closeAll(logger, dbPool, cacheClient)
		return nil, fmt.Errorf("metrics registration failed: %w", err)
	}

	source, err := datasource.New(
		datasource.WithBaseURL(cfg.APIURL),
		datasource.WithTimeout(cfg.DataSourceTimeout),
		datasource.WithRateLimit(cfg.DataSourceRPS, 1),
		datasource.WithLogger(logger),
		datasource.WithRecorder(m),
	)
	if err != nil {
		closeAll(logger, dbPool, cacheClient)
		return nil, fmt.Errorf("data source init failed: %w", err)
	}
	logger.Info("Data source configured", zap.String("url", cfg.APIURL))

	rankingService := service.NewRankingService(source, cfg.RankingLimit, logger)
	neighborhoodService := service.NewNeighborhoodService(source, rankingService, contentRepo, logger)
	catalogService := service.NewCatalogService(source, cacher, cfg.CatalogCacheTTL, logger)
	sessions := service.NewSessionRegistry(rankingService, cfg.SessionTTL, m, m, logger)

	grpcHandlers := handler.NewGRPCHandlers(rankingService, neighborhoodService, catalogService, sessions, logger)

	metricsLis := o.metricsListener
	if metricsLis == nil {
		metricsLis, err = net.Listen("tcp", ":"+strconv.Itoa(cfg.MetricsPort))
		if err != nil {
			closeAll(logger, dbPool, cacheClient)
			return nil, fmt.Errorf("failed to listen for metrics on port %d: %w", cfg.MetricsPort, err)
		}
	}

	serverOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	}
	if o.grpcListener != nil {
		serverOpts = append(serverOpts, grpcsrv.WithListener(o.grpcListener))
	}
	grpcServer, err := grpcsrv.New(serverOpts...)
	if err != nil {
		_ = metricsLis.Close()
		closeAll(logger, dbPool, cacheClient)
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterService(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterRankingsServer(s, grpcHandlers)
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", otelhttp.NewHandler(metrics.Handler(registry), "metrics"))

	pruneInterval := cfg.SessionTTL / sessionPruneFactor
	if pruneInterval <= 0 {
		pruneInterval = service.DefaultSessionTTL / sessionPruneFactor
	}

	return &App{
		logger:        logger,
		dbPool:        dbPool,
		cache:         cacheClient,
		grpcServer:    grpcServer,
		metricsServer: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		metricsLis:    metricsLis,
		sessions:      sessions,
		pruneInterval: pruneInterval,
	}, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	opts := []dbbuilder.Option{
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithPragmas("foreign_keys = ON"),
	}

	if cfg.DBPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		opts = append(opts, dbbuilder.WithMaxOpenConns(1))
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		opts = append(opts, dbbuilder.WithPragmas("journal_mode = WAL"))
	}

	return dbbuilder.New(ctx, opts...)
}

// Start launches the gRPC server, the metrics listener and session pruning.
func (a *App) Start() {
	a.logger.Info("application starting")

	a.grpcServer.Start()

	go func() {
		a.logger.Info("metrics server starting", zap.String("addr", a.metricsLis.Addr().String()))
		if err := a.metricsServer.Serve(a.metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	pruneCtx, cancel := context.WithCancel(context.Background())
	a.stopPruning = cancel
	go a.sessions.PruneEvery(pruneCtx, a.pruneInterval)
}

// GRPCAddr returns the address the gRPC server listens on.
func (a *App) GRPCAddr() net.Addr {
	return a.grpcServer.Addr()
}

// MetricsAddr returns the address /metrics is served on.
func (a *App) MetricsAddr() net.Addr {
	return a.metricsLis.Addr()
}

// Shutdown stops all servers and releases the database and cache.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("application shutting down")

	if a.stopPruning != nil {
		a.stopPruning()
	}

	var errs []error
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
	}

	closeAll(a.logger, a.dbPool, a.cache)

	return errors.Join(errs...)
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.Shutdown(ctx)
	if err == nil {
		a.logger.Info("graceful shutdown completed successfully")
	} else if errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("shutdown completed but deadline exceeded")
		err = nil
	}

	_ = a.logger.Sync()
	return err
}

func closeAll(logger *zap.Logger, db *sql.DB, c *cache.Cache) {
	if c != nil {
		if err := c.Close(); err != nil {
			logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("database shutdown error", zap.Error(err))
	}
}
