package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	IdempotencyMemory = "memory"
	IdempotencyMongo  = "mongo"
	IdempotencyRedis  = "redis"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	Store              string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	NotificationsTopic string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	IdempotencyBackend string
	RedisAddr          string
	IdempotencyTTL     time.Duration
	JWTSecret          string
	PinHashCost        int
	AdminUserID        string
	FixturesPath       string
	CORSAllowedOrigins []string
}

// Load reads an optional .env file and then parses configuration from the
// environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses configuration from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		Store:              strings.ToLower(getEnv("STORE", StoreMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "rentflow"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		NotificationsTopic: getEnv("NOTIFICATIONS_TOPIC", "notifications.v1"),
		IdempotencyBackend: strings.ToLower(getEnv("IDEMPOTENCY_BACKEND", "")),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminUserID:        getEnv("ADMIN_USER_ID", "admin"),
		FixturesPath:       getEnv("FIXTURES_PATH", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	for _, raw := range splitList(getEnv("RETRY_BACKOFF", "1s,5s,30s")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	cost, err := parseIntEnv("PIN_HASH_COST", bcrypt.DefaultCost)
	if err != nil {
		return Config{}, err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("PIN_HASH_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	cfg.PinHashCost = cost

	switch cfg.Store {
	case StoreMemory:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE %q", cfg.Store)
	}
	if cfg.IdempotencyBackend == "" {
		cfg.IdempotencyBackend = cfg.Store
	}
	switch cfg.IdempotencyBackend {
	case IdempotencyMemory, IdempotencyRedis:
	case IdempotencyMongo:
		if cfg.Store != StoreMongo {
			return Config{}, fmt.Errorf("IDEMPOTENCY_BACKEND=mongo requires STORE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid IDEMPOTENCY_BACKEND %q", cfg.IdempotencyBackend)
	}
	if cfg.JWTSecret == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("JWT_SECRET is required outside dev")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	return cfg, nil
}

// IsDev reports whether the process runs in a local development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "local" || c.Env == "test"
}

// KafkaEnabled reports whether brokers are configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
