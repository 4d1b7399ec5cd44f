package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/patient-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/patient-booking/internal/http/middleware"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/internal/sessions"
	"github.com/wolfman30/patient-booking/internal/workflow"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

const testAdminSecret = "router-secret"

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) http.Handler {
	t.Helper()

	logger := logging.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	store := sessions.NewStore(time.Hour, logger, sessions.WithMetrics(m))
	t.Cleanup(store.Close)

	factory := func(string) *workflow.Controller {
		return workflow.New(workflow.Deps{
			Logger:  logger,
			Metrics: m,
			Sleep:   func(context.Context, time.Duration) error { return nil },
		}, workflow.Options{WindowDays: 7})
	}

	return New(&Config{
		Logger:             logger,
		Booking:            handlers.NewBookingHandler(store, factory, 7, logger),
		AdminSessions:      handlers.NewAdminSessionsHandler(store, logger),
		AdminAuthSecret:    testAdminSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://app.example", "https://*.clinic.example"},
		RateLimiter:        limiter,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Errorf("expected request id header")
	}
}

func TestRouterSessionLifecycleAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"doctor_id":"7"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		SessionID string        `json:"session_id"`
		View      workflow.View `json:"view"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.View.Doctor.FullName != "Dr. Eion Morgan" {
		t.Fatalf("expected placeholder doctor without a directory, got %q", created.View.Doctor.FullName)
	}
	if len(created.View.Dates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(created.View.Dates))
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "patient_booking_gateway_active_sessions 1") {
		t.Fatalf("expected active session gauge in metrics output")
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+created.SessionID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/sessions", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	claims := httpmiddleware.AdminClaims{
		Role: httpmiddleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAdminSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"count":0`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRouterRateLimitsBookingRoutes(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(0, 1)
	t.Cleanup(limiter.Close)
	router := newTestRouter(t, limiter)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.4:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := send("/v1/dates"); code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", code)
	}
	if code := send("/v1/dates"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := send("/health"); code != http.StatusOK {
		t.Fatalf("health must not be limited, got %d", code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/sessions", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/v1/sessions", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unlisted origin, got %d", rr.Code)
	}
}
