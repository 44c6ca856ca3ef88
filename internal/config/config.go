// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as the Telegram credentials, TMDB access, the catalog database path,
// publication cadence, server timeouts, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the ops API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-movie-channel")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// TelegramConfig defines the messaging gateway credentials and targets.
type TelegramConfig struct {
	BotToken      string // BOT_TOKEN
	APIBaseURL    string // TELEGRAM_API_BASE_URL (override for tests)
	ChannelID     int64  // CHANNEL_ID (broadcast channel)
	AdminID       int64  // ADMIN_ID (the single administrator identity)
	ChannelInvite string // CHANNEL_INVITE_URL shown to users on fulfilled requests
	RequestBotURL string // REQUEST_BOT_URL linked from every channel post
	WebhookSecret string // WEBHOOK_SECRET path segment for inbound updates
}

// TMDBConfig defines the metadata gateway settings.
type TMDBConfig struct {
	APIKey        string // TMDB_API_KEY
	BaseURL       string // TMDB_BASE_URL
	PosterBaseURL string // TMDB_POSTER_BASE_URL
	Language      string // TMDB_LANGUAGE (e.g. "es-ES")
}

// PublishConfig defines the publication scheduler settings.
type PublishConfig struct {
	AutoPostsPerDay   int           // AUTO_POSTS_PER_DAY (2, 4, 6 or 8)
	RecentHistorySize int           // RECENT_HISTORY_SIZE anti-repeat window
	SchedulerTick     time.Duration // SCHEDULER_TICK idle tick of the loop
	NewsInterval      time.Duration // NEWS_INTERVAL between popular-movie posts
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath        string // SQLite path for the catalog
	AdminAPIToken string // bearer token guarding the ops API

	Telegram TelegramConfig
	TMDB     TMDBConfig
	Publish  PublishConfig

	// Rate limiting (webhook abuse control)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// autoPostChoices is the fixed set of daily auto-post counts the admin may
// select, mirrored by the configuration keyboard.
var autoPostChoices = map[int]struct{}{2: {}, 4: {}, 6: {}, 8: {}}

// ValidAutoPostCount reports whether n is one of the selectable daily counts.
func ValidAutoPostCount(n int) bool {
	_, ok := autoPostChoices[n]
	return ok
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:        getenv("DB_PATH", "movies.db"),
		AdminAPIToken: getenv("ADMIN_API_TOKEN", ""),

		Telegram: TelegramConfig{
			BotToken:      getenv("BOT_TOKEN", ""),
			APIBaseURL:    getenv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			ChannelID:     getint64("CHANNEL_ID", 0),
			AdminID:       getint64("ADMIN_ID", 0),
			ChannelInvite: getenv("CHANNEL_INVITE_URL", ""),
			RequestBotURL: getenv("REQUEST_BOT_URL", ""),
			WebhookSecret: getenv("WEBHOOK_SECRET", ""),
		},

		TMDB: TMDBConfig{
			APIKey:        getenv("TMDB_API_KEY", ""),
			BaseURL:       getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			PosterBaseURL: getenv("TMDB_POSTER_BASE_URL", "https://image.tmdb.org/t/p/w500"),
			Language:      getenv("TMDB_LANGUAGE", "es-ES"),
		},

		Publish: PublishConfig{
			AutoPostsPerDay:   getint("AUTO_POSTS_PER_DAY", 4),
			RecentHistorySize: getint("RECENT_HISTORY_SIZE", 20),
			SchedulerTick:     getdur("SCHEDULER_TICK", time.Second),
			NewsInterval:      getdur("NEWS_INTERVAL", 24*time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-movie-channel"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		return cfg, errors.New("BOT_TOKEN must not be empty")
	}
	if cfg.Telegram.ChannelID == 0 {
		return cfg, errors.New("CHANNEL_ID must be set")
	}
	if cfg.Telegram.AdminID == 0 {
		return cfg, errors.New("ADMIN_ID must be set")
	}
	if strings.TrimSpace(cfg.Telegram.WebhookSecret) == "" {
		return cfg, errors.New("WEBHOOK_SECRET must not be empty")
	}
	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		return cfg, errors.New("TMDB_API_KEY must not be empty")
	}
	if !ValidAutoPostCount(cfg.Publish.AutoPostsPerDay) {
		return cfg, errors.New("AUTO_POSTS_PER_DAY must be one of: 2, 4, 6, 8")
	}
	if cfg.Publish.RecentHistorySize < 1 {
		return cfg, errors.New("RECENT_HISTORY_SIZE must be >= 1")
	}
	if cfg.Publish.SchedulerTick <= 0 {
		return cfg, errors.New("SCHEDULER_TICK must be > 0")
	}
	if cfg.Publish.NewsInterval <= 0 {
		return cfg, errors.New("NEWS_INTERVAL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
