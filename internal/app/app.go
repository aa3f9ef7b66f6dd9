package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/membersearch/internal/config"
	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/metrics"
	"github.com/simp-lee/membersearch/internal/middleware"
	"github.com/simp-lee/membersearch/internal/module/member"
	"github.com/simp-lee/membersearch/internal/pkg"
	"github.com/simp-lee/membersearch/internal/search"
	"github.com/simp-lee/membersearch/internal/seed"
	"github.com/simp-lee/membersearch/internal/store/bunexec"
	"github.com/simp-lee/membersearch/internal/store/gormexec"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database, the search executor for the configured
// engine, metrics, repositories, services, handlers, middleware and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDB(db)
	}()

	// 3. AutoMigrate and seed in debug mode only.
	if cfg.Server.Mode == gin.DebugMode {
		if err := prepareDebugDatabase(db, &cfg.Database, log.Logger); err != nil {
			return nil, err
		}
	}

	// 4. Search executor for the configured engine, instrumented when
	// metrics are on.
	exec, err := NewExecutor(db, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("setup search engine: %w", err)
	}

	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		exec = m.Executor(exec, cfg.Database.Engine)
	}

	// 5. Manual dependency injection: repository → service → handler.
	searcher := search.NewSearcher(exec, log.Logger)
	svc := member.NewMemberService(
		member.NewMemberRepository(db),
		member.NewTeamRepository(db),
		searcher,
	)
	handler := member.NewMemberHandler(svc, pkg.PageDefaults{
		Size:     cfg.Search.DefaultPageSize,
		MaxSize:  cfg.Search.MaxPageSize,
		Strategy: domain.PageStrategy(cfg.Search.DefaultStrategy),
	})

	// 6. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	timeout, err := parseOptionalDuration(cfg.Server.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid server.timeout: %w", err)
	}

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: cfg.Server.TrustRequestID,
		}),
		middleware.Logger(log.Logger),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)),
		middleware.Timeout(timeout),
	)
	if m != nil {
		engine.Use(m.Middleware())
	}

	// 7. Register all routes.
	deps := &RouteDeps{
		Modules: []Module{member.NewModule(handler)},
		DB:      db,
	}
	if reg != nil {
		deps.Metrics = metrics.Handler(reg)
		deps.MetricsPath = cfg.Metrics.Path
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	log.Info("application ready",
		slog.String("driver", cfg.Database.Driver),
		slog.String("engine", cfg.Database.Engine),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)

	success = true
	return &App{
		engine: engine,
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

// Handler returns the configured HTTP handler.
func (a *App) Handler() http.Handler {
	return a.engine
}

// prepareDebugDatabase migrates the schema and loads the seed file, if any.
func prepareDebugDatabase(db *gorm.DB, cfg *config.DatabaseConfig, log *slog.Logger) error {
	if err := db.AutoMigrate(&domain.Team{}, &domain.Member{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("auto migration completed")

	if cfg.SeedFile == "" {
		return nil
	}
	res, err := seed.ApplyFile(context.Background(), db, cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	log.Info("seed applied",
		slog.String("file", cfg.SeedFile),
		slog.Int("teams", res.Teams),
		slog.Int("members", res.Members),
		slog.Bool("skipped", res.Skipped),
	)
	return nil
}

// NewExecutor returns the search executor for cfg.Engine. The bun engine
// shares the GORM connection pool.
func NewExecutor(db *gorm.DB, cfg *config.DatabaseConfig) (search.Executor, error) {
	switch cfg.Engine {
	case "", "gorm":
		return gormexec.New(db), nil
	case "bun":
		bunDB, err := config.SetupBunDB(db, cfg)
		if err != nil {
			return nil, err
		}
		return bunexec.New(bunDB), nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.Engine)
	}
}

// resolveCORSConfig maps the CORS settings onto the middleware config.
// In release mode, when no allowlist is configured, cross-origin requests
// are denied.
func resolveCORSConfig(mode string, c *config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	if len(c.AllowMethods) > 0 {
		corsConfig.AllowMethods = c.AllowMethods
	}
	if len(c.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = c.AllowHeaders
	}
	corsConfig.AllowCredentials = c.AllowCredentials
	if d, err := time.ParseDuration(c.MaxAge); err == nil && d > 0 {
		corsConfig.MaxAge = strconv.Itoa(int(d.Seconds()))
	}

	switch {
	case len(c.AllowOrigins) > 0:
		corsConfig.AllowOrigins = c.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// parseOptionalDuration treats an empty string as zero.
func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func closeDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("database close error", slog.Any("error", err))
		return err
	}
	return nil
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and closes the
// database connection pool shared by both query engines.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		if err := closeDB(a.db); err == nil {
			log.Info("database connection closed")
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
