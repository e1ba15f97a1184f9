package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/models"
)

// Storage drivers
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	DBDriver     string
	BaseURL      string
	Port         string
	Env          string

	// RedisURL switches the delayed job queue from in-process timers to redis when set
	RedisURL string

	JWTSecret      string
	SendgridAPIKey string
	EmailFrom      string

	AutoVerifyDelay time.Duration
	AutoAssignDelay time.Duration
	ReconcileCron   string
	ReconcileOnRead bool
}

// New sets up all config related services
func New() *Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	env := os.Getenv("ENV")
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:             os.Getenv("DB_URI"),
		DatabaseName:    os.Getenv("DB_NAME"),
		DBDriver:        getEnv("DB_DRIVER", DriverMongo),
		BaseURL:         os.Getenv("BASE_URL"),
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SendgridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:       getEnv("EMAIL_FROM", "no-reply@legalcase.app"),
		AutoVerifyDelay: getDuration("AUTO_VERIFY_DELAY", 3*time.Second),
		AutoAssignDelay: getDuration("AUTO_ASSIGN_DELAY", 2*time.Second),
		ReconcileCron:   getEnv("RECONCILE_CRON", "*/15 * * * *"),
		ReconcileOnRead: getBool("RECONCILE_ON_READ", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "error", err, "status", httpStatusCode)
	resp := models.ErrorMessageResponse{
		Response: models.MessageError{
			Message: message,
			Kind:    apperrors.Kind(err),
			Fields:  apperrors.Fields(err),
		},
	}
	if err != nil {
		resp.Response.Error = err.Error()
	}
	b, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_, _ = w.Write(b)
}
