package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "API_BASE_URL", "REDIS_ADDR", "DATE_WINDOW_DAYS",
		"DEFAULT_SHIFT_TYPE", "GUEST_BOOKING_DELAY", "LEGACY_SLOT_FALLBACK", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != "http://localhost/Aayush/backend/api" {
		t.Fatalf("unexpected default api base url %s", cfg.APIBaseURL)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected doctor cache disabled by default, got %s", cfg.RedisAddr)
	}
	if cfg.DateWindowDays != 30 {
		t.Fatalf("expected 30 day window, got %d", cfg.DateWindowDays)
	}
	if cfg.DefaultShiftType != "afternoon" {
		t.Fatalf("expected afternoon default shift, got %s", cfg.DefaultShiftType)
	}
	if cfg.SlotDurationMinutes != 60 {
		t.Fatalf("expected 60 minute slots, got %d", cfg.SlotDurationMinutes)
	}
	if cfg.GuestBookingDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected guest delay %s", cfg.GuestBookingDelay)
	}
	if cfg.LegacySlotFallback {
		t.Fatalf("expected legacy fallback disabled by default")
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.IsProduction() {
		t.Fatalf("development should not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "Production")
	t.Setenv("API_BASE_URL", "https://hospital.example.com/api/")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DOCTOR_CACHE_TTL", "2m")
	t.Setenv("DATE_WINDOW_DAYS", "14")
	t.Setenv("DEFAULT_SHIFT_TYPE", " Evening ")
	t.Setenv("GUEST_BOOKING_DELAY", "250ms")
	t.Setenv("LEGACY_SLOT_FALLBACK", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != "https://hospital.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.DoctorCacheTTL != 2*time.Minute {
		t.Fatalf("unexpected cache config %s %s", cfg.RedisAddr, cfg.DoctorCacheTTL)
	}
	if cfg.DateWindowDays != 14 {
		t.Fatalf("expected window override, got %d", cfg.DateWindowDays)
	}
	if cfg.DefaultShiftType != "evening" {
		t.Fatalf("expected normalized shift, got %q", cfg.DefaultShiftType)
	}
	if cfg.GuestBookingDelay != 250*time.Millisecond {
		t.Fatalf("unexpected guest delay %s", cfg.GuestBookingDelay)
	}
	if !cfg.LegacySlotFallback {
		t.Fatalf("expected legacy fallback enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("unexpected rate %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATE_WINDOW_DAYS", "thirty")
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.DateWindowDays != 30 {
		t.Fatalf("expected default window on bad int, got %d", cfg.DateWindowDays)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected default ttl on bad duration, got %s", cfg.SessionTTL)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected default tls on bad bool")
	}
}
