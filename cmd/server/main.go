package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shiva/tripweaver/config"
	"github.com/shiva/tripweaver/internal/cache"
	"github.com/shiva/tripweaver/internal/handler"
	"github.com/shiva/tripweaver/internal/mapprovider"
	"github.com/shiva/tripweaver/internal/mapprovider/fallbackprovider"
	"github.com/shiva/tripweaver/internal/mapprovider/httpprovider"
	"github.com/shiva/tripweaver/internal/middleware"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/monitor"
	"github.com/shiva/tripweaver/internal/monitor/store"
	"github.com/shiva/tripweaver/internal/planner"
	"github.com/shiva/tripweaver/internal/ratelimit"
	"github.com/shiva/tripweaver/internal/schedule"
	"github.com/shiva/tripweaver/internal/service"
	"github.com/shiva/tripweaver/internal/storage"
	"github.com/shiva/tripweaver/pkg/logger"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zlog.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("postgres connected")

	if err := storage.ApplyMigrations(cfg.Postgres, "migrations"); err != nil {
		zlog.Fatal("failed to apply migrations", zap.Error(err))
	}
	zlog.Info("migrations applied")

	// ── Connect to Redis (optional L2 cache tier) ───────
	var redisClient *redis.Client
	if cfg.Engine.UseRedisL2 {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			zlog.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		zlog.Info("redis connected")
	}

	// ── Caches ───────────────────────────────────────────
	var geoL2 cache.Distributed[model.Coordinates]
	var transitL2 cache.Distributed[cache.TransitLeg]
	if redisClient != nil {
		geoL2 = cache.NewRedis[model.Coordinates](redisClient, "geo:")
		transitL2 = cache.NewRedis[cache.TransitLeg](redisClient, "transit:")
	}
	geoCache := cache.NewGeocodingCache(cfg.Engine.MaxCacheEntries, cfg.Engine.GeocodingCacheTTL, geoL2)
	transitCache := cache.NewTransitCache(cfg.Engine.MaxCacheEntries, cfg.Engine.TransitCacheTTL, transitL2)

	// ── Planner / scheduling / monitoring ───────────────
	mon := monitor.New(0)

	// ── Map provider ─────────────────────────────────────
	limiter := ratelimit.New(cfg.Engine.RequestsPerSecond, cfg.Engine.RequestsPerDay)
	var provider mapprovider.Provider
	if cfg.Engine.UseRealMapProvider {
		provider = mapprovider.WithRetry(httpprovider.New(cfg.Engine.MapProviderBaseURL, cfg.Engine.MapProviderAPIKey, limiter), mon.RecordRetry)
		zlog.Info("using real map provider", zap.String("baseUrl", cfg.Engine.MapProviderBaseURL))
	} else {
		provider = fallbackprovider.New(0, 0)
		zlog.Info("using deterministic fallback map provider")
	}

	plnr := planner.New(provider, geoCache, transitCache, mon, zlog)
	fb := planner.NewFallback()
	builder := schedule.New(provider)
	metricsStore := store.New(pgPool, zlog)

	itinerarySvc := service.NewItineraryService(provider, plnr, fb, builder, mon, zlog)

	// Periodically persist the aggregated report so operators can inspect
	// trends in planner_metrics without scraping the live /monitor/report
	// endpoint.
	go reportLoop(ctx, mon, metricsStore, 5*time.Minute)

	// ── Handlers ─────────────────────────────────────────
	itineraryHandler := handler.NewItineraryHandler(itinerarySvc, zlog)
	monitorHandler := handler.NewMonitorHandler(mon)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	router.HandleFunc("/health", healthHandler(pgPool, redisClient, cfg.Engine.UseRedisL2, cfg.Engine.UseRealMapProvider)).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/itinerary", itineraryHandler.PlanItinerary).Methods(http.MethodPost)
	api.HandleFunc("/monitor/stats", monitorHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/monitor/report", monitorHandler.Report).Methods(http.MethodGet)
	api.HandleFunc("/monitor/logs", monitorHandler.Logs).Methods(http.MethodGet)
	api.HandleFunc("/monitor/reset", monitorHandler.Reset).Methods(http.MethodPost)

	var rootHandler http.Handler = router
	rootHandler = middleware.RequestLogger(zlog)(rootHandler)
	rootHandler = middleware.Recoverer(zlog)(rootHandler)
	rootHandler = middleware.CORS(rootHandler)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      rootHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", cfg.Server.ServerAddr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	geoCache.Close()
	transitCache.Close()

	zlog.Info("server gracefully stopped")
}

// reportLoop periodically persists the Monitor's aggregated report to
// Postgres until ctx is done.
func reportLoop(ctx context.Context, mon *monitor.Monitor, metricsStore *store.MetricsStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metricsStore.Record(ctx, mon.Report())
		case <-ctx.Done():
			return
		}
	}
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks Postgres and (when
// enabled) Redis connectivity, and reports which MapProvider is wired in.
// The MapProvider interface has no liveness probe of its own (geocoding a
// dummy address would burn rate-limit budget on every health check), so
// this reports configuration, not live connectivity.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client, redisEnabled, realMapProvider bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if err := storage.HealthCheck(r.Context(), pgPool); err != nil {
			resp.Status = "degraded"
			resp.Services["postgres"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["postgres"] = "healthy"
		}

		if redisEnabled {
			if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
				resp.Status = "degraded"
				resp.Services["redis"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["redis"] = "healthy"
			}
		} else {
			resp.Services["redis"] = "disabled"
		}

		if realMapProvider {
			resp.Services["mapProvider"] = "configured: http"
		} else {
			resp.Services["mapProvider"] = "configured: fallback"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
