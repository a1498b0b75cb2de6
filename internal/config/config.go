package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	QueueBackendRedis = "redis"
	QueueBackendNone  = "none"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Geocoding GeocodingConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"gaman"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"require"`
	MaxConns int    `env:"DB_MAX_CONNS" env-default:"25"`
}

// DSN builds a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:"redis://localhost:6379"`
}

// QueueConfig selects where post-commit events go. NATSURL is optional: when
// set, every event is mirrored onto NATS subjects for external notifiers.
type QueueConfig struct {
	Backend string `env:"QUEUE_BACKEND" env-default:"redis"`
	NATSURL string `env:"NATS_URL"`
}

type WorkerConfig struct {
	Count        int           `env:"WORKER_COUNT" env-default:"2"`
	BatchSize    int64         `env:"WORKER_BATCH_SIZE" env-default:"10"`
	BlockTimeout time.Duration `env:"WORKER_BLOCK_TIMEOUT" env-default:"5s"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type StorageConfig struct {
	R2AccountID       string        `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string        `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string        `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string        `env:"R2_BUCKET_NAME"`
	R2PublicURL       string        `env:"R2_PUBLIC_URL"`
	PresignTTL        time.Duration `env:"R2_PRESIGN_TTL" env-default:"15m"`
}

// Enabled reports whether every R2 setting is present.
func (c StorageConfig) Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

type GeocodingConfig struct {
	URL     string        `env:"API_MAPS_URL" env-default:"https://geocode.search.hereapi.com/v1/geocode"`
	APIKey  string        `env:"API_MAPS_KEY"`
	Timeout time.Duration `env:"API_MAPS_TIMEOUT" env-default:"5s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.Queue.Backend {
	case QueueBackendRedis, QueueBackendNone:
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", c.Queue.Backend)
	}

	if c.Worker.Count <= 0 {
		return errors.New("WORKER_COUNT must be positive")
	}

	return nil
}
