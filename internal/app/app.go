package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/meethalfway/meethalfway/internal/config"
	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/module/auth"
	"github.com/meethalfway/meethalfway/internal/module/home"
	"github.com/meethalfway/meethalfway/internal/module/meetup"
	"github.com/meethalfway/meethalfway/internal/module/user"
	"github.com/meethalfway/meethalfway/internal/route"
	"github.com/meethalfway/meethalfway/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	tokens *auth.Tokens
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, writeTimeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

const (
	defaultWriteTimeout = 60 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// New builds the App described by cfg: logger, database (migrated in debug
// mode), modules, engine with global middleware, templates and the route
// table. Whatever was opened is closed again if a later step fails.
func New(cfg *config.Config) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	var undo []func()
	defer func() {
		if err != nil {
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}
		}
	}()

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	undo = append(undo, func() {
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	})
	debug := cfg.Server.Mode == gin.DebugMode
	if debug && cfg.Server.Host == "0.0.0.0" {
		log.Warn("debug mode is listening on all interfaces with permissive CORS")
	}

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	undo = append(undo, func() { closeDB(db, log.Logger) })
	if debug {
		if err := db.AutoMigrate(&domain.User{}, &domain.Location{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("auto migration completed")
	}

	gin.SetMode(cfg.Server.Mode)
	modules, tokens, err := buildModules(cfg, db)
	if err != nil {
		return nil, err
	}
	undo = append(undo, tokens.Close)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engine, err := newEngine(cfg, log.Logger, registry)
	if err != nil {
		return nil, err
	}

	webFS, err := webAssets(debug)
	if err != nil {
		return nil, err
	}
	if engine.HTMLRender, err = NewTemplateRenderer(webFS, debug); err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}

	csrfSecret, err := resolveCSRFSecret(cfg.Server.Mode, cfg.Server.CSRFSecret)
	if err != nil {
		return nil, err
	}
	if csrfSecret != cfg.Server.CSRFSecret {
		log.Warn("no csrf_secret configured, using a random one until restart")
	}

	err = RegisterRoutes(engine, &RouteDeps{
		Routes:     route.Default(),
		Modules:    modules,
		DB:         db,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
		WebFS:      webFS,
		Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	if err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &App{engine: engine, db: db, logger: log, tokens: tokens, cfg: cfg}, nil
}

// newEngine returns a gin engine with the global middleware chain. Only
// server.trusted_proxies may set the client IP through forwarded headers;
// with none configured the rate limiter keys on the peer address.
func newEngine(cfg *config.Config, log *slog.Logger, registry *prometheus.Registry) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	cors, err := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)
	if err != nil {
		return nil, err
	}

	engine.Use(
		middleware.Recovery(log, func(c *gin.Context, status int) {
			renderError(c, status, "internal server error")
		}),
		middleware.RequestID(len(cfg.Server.TrustedProxies) > 0),
		middleware.Logger(log, "/health", "/metrics", "/static/*filepath"),
		metrics.Handler(),
		middleware.CORS(cors),
	)
	return engine, nil
}

// buildModules wires repository → service → handler for every module. The
// caller owns the returned token service and must close it.
func buildModules(cfg *config.Config, db *gorm.DB) ([]Module, *auth.Tokens, error) {
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryDuration())
	if err != nil {
		return nil, nil, fmt.Errorf("setup tokens: %w", err)
	}

	cookieName := cfg.Auth.CookieName
	if cookieName == "" {
		cookieName = config.DefaultCookieName
	}
	requireAuth := middleware.RequireAuth(tokens, cookieName)
	optionalAuth := middleware.OptionalAuth(tokens, cookieName)

	var limit gin.HandlerFunc
	if rl := cfg.Server.RateLimit; rl.Enabled {
		limit = middleware.NewRateLimiter(rl.RPS, rl.Burst).Middleware()
	}

	userRepo := user.NewUserRepository(db)
	locationRepo := meetup.NewLocationRepository(db)

	userSvc := user.NewUserService(userRepo)
	authSvc := auth.NewService(tokens, userRepo)
	meetupSvc := meetup.NewMeetupService(locationRepo, userRepo)

	cookie := auth.SessionCookie{Name: cookieName, Secure: cfg.Server.Mode == gin.ReleaseMode}

	modules := []Module{
		home.NewModule(home.NewPageHandler(userSvc), optionalAuth),
		auth.NewModule(auth.NewHandler(authSvc), auth.NewPageHandler(authSvc, cookie), limit),
		user.NewModule(user.NewUserHandler(userSvc), requireAuth),
		meetup.NewModule(meetup.NewMeetupHandler(meetupSvc), meetup.NewPageHandler(meetupSvc), requireAuth),
	}
	return modules, tokens, nil
}

func resolveCSRFSecret(mode, secret string) (string, error) {
	if !isPlaceholderCSRFSecret(secret) {
		return secret, nil
	}
	if mode == gin.ReleaseMode {
		return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

// resolveCORSConfig overlays the configured values on the defaults. In release
// mode an empty allowlist denies cross-origin requests.
func resolveCORSConfig(mode string, cfg config.CORSConfig) (middleware.CORSConfig, error) {
	corsConfig := middleware.DefaultCORSConfig()

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}
	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials

	if cfg.MaxAge != "" {
		d, err := time.ParseDuration(cfg.MaxAge)
		if err != nil {
			return middleware.CORSConfig{}, fmt.Errorf("invalid server.cors.max_age %q: %w", cfg.MaxAge, err)
		}
		corsConfig.MaxAge = d
	}

	return corsConfig, nil
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// writeTimeout returns server.timeout, or the default when it is unset.
func writeTimeout(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultWriteTimeout
}

// webAssets returns the embedded web/ tree, or in debug mode the web/
// directory on disk so template edits apply without a rebuild. The source
// checkout is tried first, then web/ next to the executable.
func webAssets(debug bool) (fs.FS, error) {
	if !debug {
		return web.EmbeddedFS, nil
	}
	var dirs []string
	if _, file, _, ok := runtime.Caller(0); ok {
		dirs = append(dirs, filepath.Join(filepath.Dir(file), "..", "..", "web"))
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "web"))
	}
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(filepath.Clean(dir)), nil
		}
	}
	return nil, errors.New("resolve debug web fs: web directory not found")
}

// Run serves HTTP until SIGINT or SIGTERM, or until the listener fails. The
// server then gets shutdownTimeout to drain before the token service, the
// database and the logger are closed.
func (a *App) Run() error {
	switch {
	case a == nil:
		return errors.New("app is nil")
	case a.cfg == nil:
		return errors.New("app config is nil")
	case a.engine == nil:
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	srv := newHTTPServer(addr, a.engine, writeTimeout(a.cfg.Server.Timeout))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
		cancel()
	case err := <-failed:
		runErr = fmt.Errorf("server error: %w", err)
	}

	a.release(log)
	return runErr
}

// release closes what New opened, in reverse order.
func (a *App) release(log *slog.Logger) {
	if a.tokens != nil {
		a.tokens.Close()
	}
	if a.db != nil {
		closeDB(a.db, log)
	}
	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}
}

func closeDB(db *gorm.DB, log *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("database close error", slog.Any("error", err))
		return
	}
	log.Info("database connection closed")
}
