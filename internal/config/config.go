package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	LogLevel string

	DBDriver string
	DBDSN    string

	QuizAPIBaseURL      string
	QuizAPITimeout      time.Duration
	QuizAPITokenURL     string
	QuizAPIClientID     string
	QuizAPIClientSecret string

	AuthHMACSecret string
	CORSOrigins    []string

	TickInterval      time.Duration
	SubmitMaxAttempts int
	SubmitBackoff     time.Duration
	ListingPath       string
	DashboardPath     string

	LoadWorkerCount int
	LoadQueueSize   int
	SessionIdleTTL  time.Duration
	ReapInterval    time.Duration

	AMQPURL            string
	QuizEventsExchange string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the service still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:     envOr("ADDR", ":8080"),
		LogLevel: envOr("LOG_LEVEL", "INFO"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", "file:quizrunner.db"),

		QuizAPIBaseURL:      envOr("QUIZ_API_BASE_URL", "http://localhost:8000/api"),
		QuizAPITimeout:      time.Duration(envIntOr("QUIZ_API_TIMEOUT_MS", 5000)) * time.Millisecond,
		QuizAPITokenURL:     os.Getenv("QUIZ_API_TOKEN_URL"),
		QuizAPIClientID:     os.Getenv("QUIZ_API_CLIENT_ID"),
		QuizAPIClientSecret: os.Getenv("QUIZ_API_CLIENT_SECRET"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),

		TickInterval:      time.Duration(envIntOr("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		SubmitMaxAttempts: envIntOr("SUBMIT_MAX_ATTEMPTS", 3),
		SubmitBackoff:     time.Duration(envIntOr("SUBMIT_BACKOFF_MS", 500)) * time.Millisecond,
		ListingPath:       envOr("LISTING_PATH", "/student/quizzes"),
		DashboardPath:     envOr("DASHBOARD_PATH", "/student"),

		LoadWorkerCount: envIntOr("LOAD_WORKER_COUNT", 4),
		LoadQueueSize:   envIntOr("LOAD_QUEUE_SIZE", 64),
		SessionIdleTTL:  time.Duration(envIntOr("SESSION_IDLE_TTL_MINUTES", 120)) * time.Minute,
		ReapInterval:    time.Duration(envIntOr("REAP_INTERVAL_SECONDS", 60)) * time.Second,

		AMQPURL:            os.Getenv("AMQP_URL"),
		QuizEventsExchange: envOr("QUIZ_EVENTS_EXCHANGE", "quiz-events"),
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be DEBUG, INFO, WARN or ERROR, got %q", c.LogLevel))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		problems = append(problems, "DB_DSN cannot be empty")
	}
	if u, err := url.Parse(c.QuizAPIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("QUIZ_API_BASE_URL must be an absolute URL, got %q", c.QuizAPIBaseURL))
	}
	if c.QuizAPITimeout <= 0 {
		problems = append(problems, "QUIZ_API_TIMEOUT_MS must be positive")
	}
	if c.clientCredentialsConfigured() &&
		(c.QuizAPITokenURL == "" || c.QuizAPIClientID == "" || c.QuizAPIClientSecret == "") {
		problems = append(problems, "QUIZ_API_TOKEN_URL, QUIZ_API_CLIENT_ID and QUIZ_API_CLIENT_SECRET must be set together")
	}
	if c.AuthHMACSecret == "" {
		problems = append(problems, "AUTH_HMAC_SECRET cannot be empty")
	}
	if c.TickInterval <= 0 {
		problems = append(problems, "TICK_INTERVAL_MS must be positive")
	}
	if c.SubmitMaxAttempts < 1 || c.SubmitMaxAttempts > 10 {
		problems = append(problems, "SUBMIT_MAX_ATTEMPTS must be between 1 and 10")
	}
	if c.SubmitBackoff < 0 {
		problems = append(problems, "SUBMIT_BACKOFF_MS cannot be negative")
	}
	if c.ListingPath == "" || c.DashboardPath == "" {
		problems = append(problems, "LISTING_PATH and DASHBOARD_PATH cannot be empty")
	}
	if c.LoadWorkerCount < 1 {
		problems = append(problems, "LOAD_WORKER_COUNT must be at least 1")
	}
	if c.LoadQueueSize < 1 {
		problems = append(problems, "LOAD_QUEUE_SIZE must be at least 1")
	}
	if c.SessionIdleTTL <= 0 || c.ReapInterval <= 0 {
		problems = append(problems, "SESSION_IDLE_TTL_MINUTES and REAP_INTERVAL_SECONDS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func csvOr(key, def string) []string {
	raw := envOr(key, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) clientCredentialsConfigured() bool {
	return c.QuizAPITokenURL != "" || c.QuizAPIClientID != "" || c.QuizAPIClientSecret != ""
}
