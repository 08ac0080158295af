package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/surveyqr/internal/adapter/eventpublisher"
	"github.com/pscheid92/surveyqr/internal/adapter/httpserver"
	"github.com/pscheid92/surveyqr/internal/adapter/metrics"
	"github.com/pscheid92/surveyqr/internal/adapter/qrcode"
	"github.com/pscheid92/surveyqr/internal/adapter/redis"
	"github.com/pscheid92/surveyqr/internal/app"
	"github.com/pscheid92/surveyqr/internal/domain"
	"github.com/pscheid92/surveyqr/internal/platform/config"
	"github.com/pscheid92/surveyqr/internal/platform/logging"
	"github.com/pscheid92/surveyqr/internal/platform/version"
)

const (
	startupPingTimeout = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupStore never fails: an unreachable Redis leaves the store in its
// unavailable state and the survey routes answer 503.
func setupStore(cfg *config.Config, reg prometheus.Registerer) *redis.Store {
	redisMetrics := metrics.NewRedisMetrics(reg)
	client := redis.NewClient(
		redis.ClientOptions{Addr: cfg.RedisAddr(), DB: cfg.RedisDB, Timeout: cfg.RedisTimeout},
		redis.NewMetricsHook(redisMetrics),
		redis.NewCircuitBreakerHook(redis.DefaultCircuitBreakerSettings, redisMetrics),
	)

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()
	return redis.NewStore(ctx, client)
}

func setupPublisher(cfg *config.Config) domain.EventPublisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		slog.Info("KAFKA_BROKERS not set, survey events disabled")
		return eventpublisher.NoopPublisher{}
	}

	publisher, err := eventpublisher.NewKafkaPublisher(brokers, cfg.KafkaTopic)
	if err != nil {
		slog.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	slog.Info("Publishing survey events", "brokers", brokers, "topic", cfg.KafkaTopic)
	return publisher
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "version", version.Version, "env", cfg.AppEnv, "port", cfg.Port)

	reg := metrics.NewRegistry()

	store := setupStore(cfg, reg)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	publisher := setupPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Failed to close event publisher", "error", err)
		}
	}()

	surveys := redis.NewSurveyRepo(store)
	appSvc := app.NewService(surveys, store, publisher, metrics.NewSurveyMetrics(reg), clock)

	srv, err := httpserver.NewServer(cfg, appSvc, store, qrcode.NewEncoder(cfg.QRSize),
		httpserver.WithMetrics(metrics.NewHTTPMetrics(reg), reg),
		httpserver.WithHealthChecks(httpserver.HealthCheck{Name: "redis", Check: appSvc.Ready}),
	)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
