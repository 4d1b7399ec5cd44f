package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/patient-booking/internal/api/router"
	appconfig "github.com/wolfman30/patient-booking/internal/config"
	"github.com/wolfman30/patient-booking/internal/hospitalapi"
	"github.com/wolfman30/patient-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/patient-booking/internal/http/middleware"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/internal/sessions"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

const janitorInterval = time.Minute

// Gateway is the assembled booking gateway and the resources it owns.
type Gateway struct {
	Handler  http.Handler
	Sessions *sessions.Store

	limiter *httpmiddleware.RateLimiter
	redis   *redis.Client
}

// BuildGateway wires the hospital client, doctor cache, session store and
// router from cfg. A nil registry gets a fresh one with runtime collectors.
func BuildGateway(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	bookingMetrics := metrics.NewBookingMetrics(reg)

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		logger.Info("doctor profile cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.DoctorCacheTTL.String())
	}

	api := hospitalapi.NewClient(cfg.APIBaseURL,
		hospitalapi.WithTimeout(cfg.HTTPTimeout),
		hospitalapi.WithLogger(logger),
	)
	factory := NewWorkflowFactory(cfg, WorkflowDeps{
		API:     api,
		Cache:   cacheClient(redisClient),
		Logger:  logger,
		Metrics: bookingMetrics,
	})

	store := sessions.NewStore(cfg.SessionTTL, logger, sessions.WithMetrics(bookingMetrics))
	store.Start(janitorInterval)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		limiter.StartJanitor(janitorInterval)
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		Booking:            handlers.NewBookingHandler(store, factory, cfg.DateWindowDays, logger),
		AdminSessions:      handlers.NewAdminSessionsHandler(store, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	return &Gateway{
		Handler:  handler,
		Sessions: store,
		limiter:  limiter,
		redis:    redisClient,
	}
}

// Close ends all sessions and releases background resources.
func (g *Gateway) Close() {
	g.Sessions.Close()
	if g.limiter != nil {
		g.limiter.Close()
	}
	if g.redis != nil {
		_ = g.redis.Close()
	}
}
