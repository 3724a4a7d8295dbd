package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizrunner/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:               ":8080",
		LogLevel:           "INFO",
		DBDriver:           "sqlite",
		DBDSN:              "file:test.db",
		QuizAPIBaseURL:     "http://quiz.internal/api",
		QuizAPITimeout:     5 * time.Second,
		AuthHMACSecret:     "secret",
		TickInterval:       time.Second,
		SubmitMaxAttempts:  3,
		SubmitBackoff:      500 * time.Millisecond,
		ListingPath:        "/student/quizzes",
		DashboardPath:      "/student",
		LoadWorkerCount:    4,
		LoadQueueSize:      64,
		SessionIdleTTL:     2 * time.Hour,
		ReapInterval:       time.Minute,
		QuizEventsExchange: "quiz-events",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.DBDriver = "mysql"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestValidate_QuizAPIBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "absolute http", baseURL: "http://localhost:8000/api"},
		{name: "absolute https", baseURL: "https://lms.example.com/api"},
		{name: "relative", baseURL: "/api", wantErr: true},
		{name: "empty", baseURL: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.QuizAPIBaseURL = tt.baseURL

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "QUIZ_API_BASE_URL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ClientCredentialsNeedIDAndSecret(t *testing.T) {
	cfg := validConfig()
	cfg.QuizAPITokenURL = "https://auth.example.com/token"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "QUIZ_API_CLIENT_ID")

	cfg.QuizAPIClientID = "runner"
	cfg.QuizAPIClientSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ClientIDWithoutTokenURL(t *testing.T) {
	cfg := validConfig()
	cfg.QuizAPIClientID = "runner"
	cfg.QuizAPIClientSecret = "s3cret"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "QUIZ_API_TOKEN_URL")

	cfg.QuizAPIClientSecret = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_SubmitMaxAttempts(t *testing.T) {
	for _, n := range []int{0, 11} {
		cfg := validConfig()
		cfg.SubmitMaxAttempts = n

		err := cfg.Validate()
		assert.Error(t, err, "attempts=%d", n)
		assert.Contains(t, err.Error(), "SUBMIT_MAX_ATTEMPTS")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{LogLevel: "LOUD"}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "DB_DSN cannot be empty")
	assert.Contains(t, errStr, "TICK_INTERVAL_MS")
	assert.Contains(t, errStr, "LOAD_WORKER_COUNT")
	assert.Contains(t, errStr, "LOAD_QUEUE_SIZE")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("TICK_INTERVAL_MS", "")
	t.Setenv("SUBMIT_MAX_ATTEMPTS", "")

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 3, cfg.SubmitMaxAttempts)
	assert.Equal(t, "/student/quizzes", cfg.ListingPath)
	assert.Equal(t, "/student", cfg.DashboardPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("QUIZ_API_TIMEOUT_MS", "2500")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SUBMIT_MAX_ATTEMPTS", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2500*time.Millisecond, cfg.QuizAPITimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.SubmitMaxAttempts, "invalid integers fall back to the default")
}
