package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Hospital backend
	APIBaseURL   string
	AssetBaseURL string
	HTTPTimeout  time.Duration

	// Doctor profile cache (disabled when RedisAddr is empty)
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	DoctorCacheTTL time.Duration

	// Appointment workflow
	SessionTTL          time.Duration
	DateWindowDays      int
	DefaultShiftType    string
	SlotDurationMinutes int
	GuestBookingDelay   time.Duration
	LegacySlotFallback  bool

	// Gateway
	CORSAllowedOrigins []string
	AdminJWTSecret     string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:   strings.TrimRight(getEnv("API_BASE_URL", "http://localhost/Aayush/backend/api"), "/"),
		AssetBaseURL: strings.TrimRight(getEnv("ASSET_BASE_URL", "http://localhost/Aayush/backend"), "/"),
		HTTPTimeout:  getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		DoctorCacheTTL: getEnvAsDuration("DOCTOR_CACHE_TTL", 10*time.Minute),

		SessionTTL:          getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		DateWindowDays:      getEnvAsInt("DATE_WINDOW_DAYS", 30),
		DefaultShiftType:    strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_SHIFT_TYPE", "afternoon"))),
		SlotDurationMinutes: getEnvAsInt("SLOT_DURATION_MINUTES", 60),
		GuestBookingDelay:   getEnvAsDuration("GUEST_BOOKING_DELAY", 1500*time.Millisecond),
		LegacySlotFallback:  getEnvAsBool("LEGACY_SLOT_FALLBACK", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
