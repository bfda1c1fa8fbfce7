package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs from the environment so main
// stays lean. Every field has a development default; production overrides
// them per deployment.
type Config struct {
	Addr          string
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Blob     BlobConfig
	Kafka    KafkaConfig

	// EvidenceCodePrefix is the leading segment of generated evidence codes,
	// e.g. EVD-2026-000001.
	EvidenceCodePrefix string

	// NotifyTimeout bounds the synchronous post-commit notification attempt
	// on custody transfers. It never affects the committed transfer.
	NotifyTimeout time.Duration
}

type PostgresConfig struct {
	// DSN empty means run on in-memory stores (development mode).
	DSN string
}

type RedisConfig struct {
	// URL empty means the custody read cache is disabled.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type SMTPConfig struct {
	// Host empty means notifications are recorded against a no-op transport.
	Host string
	Port int
	From string
}

type BlobConfig struct {
	// Driver selects the attachment store: "local" (default) or "s3".
	Driver    string
	LocalDir  string
	S3Bucket  string
	S3Region  string
	S3Prefix  string
	Endpoint  string // optional, for MinIO
	PathStyle bool
}

type KafkaConfig struct {
	// Brokers empty disables the audit stream publisher.
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:               envOr("CUSTODIA_ADDR", ":8080"),
		JWTSigningKey:      envOr("CUSTODIA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		EvidenceCodePrefix: envOr("CUSTODIA_EVIDENCE_CODE_PREFIX", "EVD"),
		NotifyTimeout:      envDuration("CUSTODIA_NOTIFY_TIMEOUT", 5*time.Second),
		Postgres: PostgresConfig{
			DSN: os.Getenv("CUSTODIA_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CUSTODIA_REDIS_URL"),
			PoolSize:     envInt("CUSTODIA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CUSTODIA_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("CUSTODIA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CUSTODIA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CUSTODIA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("CUSTODIA_SMTP_HOST"),
			Port: envInt("CUSTODIA_SMTP_PORT", 587),
			From: envOr("CUSTODIA_SMTP_FROM", "custodia@localhost"),
		},
		Blob: BlobConfig{
			Driver:    envOr("CUSTODIA_BLOB_DRIVER", "local"),
			LocalDir:  envOr("CUSTODIA_BLOB_LOCAL_DIR", "./data/attachments"),
			S3Bucket:  os.Getenv("CUSTODIA_BLOB_S3_BUCKET"),
			S3Region:  os.Getenv("CUSTODIA_BLOB_S3_REGION"),
			S3Prefix:  envOr("CUSTODIA_BLOB_S3_PREFIX", "attachments"),
			Endpoint:  os.Getenv("CUSTODIA_BLOB_S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("CUSTODIA_BLOB_S3_PATH_STYLE"), "true"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("CUSTODIA_AUDIT_TOPIC", "custodia.audit"),
		},
	}
	if brokers := os.Getenv("CUSTODIA_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
