package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/noah-isme/chronopay-gateway/internal/app"
	"github.com/noah-isme/chronopay-gateway/internal/chronopay"
	"github.com/noah-isme/chronopay-gateway/internal/common"
	"github.com/noah-isme/chronopay-gateway/internal/config"
	"github.com/noah-isme/chronopay-gateway/internal/db"
	"github.com/noah-isme/chronopay-gateway/internal/directory"
	"github.com/noah-isme/chronopay-gateway/internal/events"
	"github.com/noah-isme/chronopay-gateway/internal/health"
	"github.com/noah-isme/chronopay-gateway/internal/obs"
	"github.com/noah-isme/chronopay-gateway/internal/order"
	"github.com/noah-isme/chronopay-gateway/internal/plugin"
	"github.com/noah-isme/chronopay-gateway/internal/ratelimit"
	"github.com/noah-isme/chronopay-gateway/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "chronopay")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "chronopay-gateway",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "chronopay-gateway"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	migrator, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise migrator")
	}
	if err := app.RunMigrations(migrator); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	settingsStore := settings.PG{Pool: pool}
	bus := &events.Bus{Store: events.PG{Pool: pool}}

	provider := &chronopay.Provider{
		Settings:  settingsStore,
		Orders:    order.PG{Pool: pool},
		Directory: directory.PG{Pool: pool},
		Events:    bus,
		BaseURL:   cfg.PublicBaseURL,
	}

	registry := plugin.NewRegistry()
	if err := registry.Register(provider); err != nil {
		logger.Fatal().Err(err).Msg("register payment plugin")
	}

	paymentHandler := chronopay.Handler{
		Provider:  provider,
		Audit:     chronopay.PGAudit{Pool: pool},
		Replay:    redisClient,
		ReplayTTL: cfg.ReplayTTL,
		HomeURL:   cfg.HomeURL,
		Logger:    logger,
	}
	adminSettings := &settings.AdminHandler{Store: settingsStore, Validate: app.NewValidator()}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	ipnLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:ipn:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: time.Minute,
			Max:    parseRatePerMinute(cfg.IPNRateLimit, 120),
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("ipn rate limiter") },
	}

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	adminLimiter, err := app.NewLimiter(limiterStore, cfg.AdminRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse admin rate limit")
	}
	adminLimit := limiterstdlib.NewMiddleware(adminLimiter)

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// The gateway posts back to this exact path, so it lives outside /api.
	r.With(ipnLimit.Middleware).Post(chronopay.CallbackPath, paymentHandler.IPN)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/payments/chronopay", func(p chi.Router) {
			p.With(idem.Middleware).Post("/redirect", paymentHandler.Redirect)
			p.Get("/{orderID}/repost", paymentHandler.Repost)
		})

		v.Route("/admin/plugins/chronopay", func(admin chi.Router) {
			admin.Use(requireBasicAuth(cfg.AdminUser, cfg.AdminPass))
			admin.Use(adminLimit.Handler)
			admin.Get("/settings", adminSettings.Get)
			admin.Put("/settings", adminSettings.Update)
			admin.Post("/install", lifecycleHandler(registry, settings.SystemName, plugin.Plugin.Install))
			admin.Post("/uninstall", lifecycleHandler(registry, settings.SystemName, plugin.Plugin.Uninstall))
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		health.SetReady(false)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func lifecycleHandler(registry *plugin.Registry, name string, op func(plugin.Plugin, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := registry.Lookup(name)
		if !ok {
			common.JSONError(w, http.StatusNotFound, "PLUGIN_NOT_FOUND", "plugin not registered", nil)
			return
		}
		if err := op(p, r.Context()); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "PLUGIN_LIFECYCLE_ERROR", err.Error(), nil)
			return
		}
		common.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func requireBasicAuth(user, pass string) func(http.Handler) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user == "" {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin credentials not configured", nil)
				return
			}
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseRatePerMinute reads formatted rates like "120-m" and returns the count.
func parseRatePerMinute(formatted string, fallback int) int {
	parts := strings.SplitN(strings.TrimSpace(formatted), "-", 2)
	if len(parts) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
