package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
)

// Config holds application configuration. Values are fixed at startup.
type Config struct {
	Port            string   `toml:"port"`
	Env             string   `toml:"env"`
	CORSAllowOrigin []string `toml:"cors_allow_origins"`
	DatabaseURL     string   `toml:"database_url"`
	PublicBaseURL   string   `toml:"public_base_url"`

	ObjectStoreType string `toml:"object_store"`
	LocalStoreDir   string `toml:"local_store_dir"`
	AWSRegion       string `toml:"aws_region"`
	S3Bucket        string `toml:"s3_bucket"`
	S3Prefix        string `toml:"s3_prefix"`
	S3PublicBaseURL string `toml:"s3_public_base_url"`

	MaxUploadSize  string `toml:"max_upload_size"`
	MaxUploadBytes int64  `toml:"-"`
	MaxPageSize    int    `toml:"max_page_size"`

	Processing ProcessingConfig `toml:"processing"`
	Redis      RedisConfig      `toml:"redis"`
	Auth       AuthConfig       `toml:"auth"`

	UploadsPerMinute int `toml:"rate_limit_uploads_per_minute"`
}

// ProcessingConfig selects and configures the processing notifier.
type ProcessingConfig struct {
	Notifier     string        `toml:"notifier"`
	ServiceURL   string        `toml:"service_url"`
	Timeout      time.Duration `toml:"-"`
	TimeoutRaw   string        `toml:"timeout"`
	TokenURL     string        `toml:"token_url"`
	ClientID     string        `toml:"client_id"`
	ClientSecret string        `toml:"client_secret"`
	SQSQueueURL  string        `toml:"sqs_queue_url"`
	AMQPURL      string        `toml:"amqp_url"`
	AMQPQueue    string        `toml:"amqp_queue"`
}

// RedisConfig configures the optional listing cache.
type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	TTL      time.Duration `toml:"-"`
	TTLRaw   string        `toml:"ttl"`
}

// AuthConfig configures identity-provider token verification.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	PublicKeyFile string `toml:"public_key_file"`
	Issuer        string `toml:"issuer"`
}

const (
	defaultMaxUploadSize = "10MiB"
	defaultMaxPageSize   = 100
)

// Load reads configuration from an optional TOML file (CONFIG_FILE) and then
// environment variables, which take precedence.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	overrideByEnv(&cfg)

	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		PublicBaseURL:   "http://localhost:8080",
		ObjectStoreType: "local",
		LocalStoreDir:   "./data",
		MaxUploadSize:   defaultMaxUploadSize,
		MaxPageSize:     defaultMaxPageSize,
		Processing: ProcessingConfig{
			Notifier:   "http",
			TimeoutRaw: "30s",
			AMQPQueue:  "documents.process",
		},
		Redis: RedisConfig{
			TTLRaw: "30s",
		},
		UploadsPerMinute: 30,
	}
}

func overrideByEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)

	cfg.ObjectStoreType = getEnv("OBJECT_STORE", cfg.ObjectStoreType)
	cfg.LocalStoreDir = getEnv("LOCAL_STORE_DIR", cfg.LocalStoreDir)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = getEnv("S3_PREFIX", cfg.S3Prefix)
	cfg.S3PublicBaseURL = getEnv("S3_PUBLIC_BASE_URL", cfg.S3PublicBaseURL)

	cfg.MaxUploadSize = getEnv("MAX_UPLOAD_SIZE", cfg.MaxUploadSize)
	cfg.MaxPageSize = getEnvAsInt("MAX_PAGE_SIZE", cfg.MaxPageSize)

	cfg.Processing.Notifier = getEnv("PROCESSING_NOTIFIER", cfg.Processing.Notifier)
	cfg.Processing.ServiceURL = getEnv("PROCESSING_SERVICE_URL", cfg.Processing.ServiceURL)
	cfg.Processing.TimeoutRaw = getEnv("PROCESSING_TIMEOUT", cfg.Processing.TimeoutRaw)
	cfg.Processing.TokenURL = getEnv("PROCESSING_TOKEN_URL", cfg.Processing.TokenURL)
	cfg.Processing.ClientID = getEnv("PROCESSING_CLIENT_ID", cfg.Processing.ClientID)
	cfg.Processing.ClientSecret = getEnv("PROCESSING_CLIENT_SECRET", cfg.Processing.ClientSecret)
	cfg.Processing.SQSQueueURL = getEnv("PROCESSING_SQS_QUEUE_URL", cfg.Processing.SQSQueueURL)
	cfg.Processing.AMQPURL = getEnv("PROCESSING_AMQP_URL", cfg.Processing.AMQPURL)
	cfg.Processing.AMQPQueue = getEnv("PROCESSING_AMQP_QUEUE", cfg.Processing.AMQPQueue)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTLRaw = getEnv("LIST_CACHE_TTL", cfg.Redis.TTLRaw)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.PublicKeyFile = getEnv("JWT_PUBLIC_KEY_FILE", cfg.Auth.PublicKeyFile)
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", cfg.Auth.Issuer)

	cfg.UploadsPerMinute = getEnvAsInt("RATE_LIMIT_UPLOADS_PER_MINUTE", cfg.UploadsPerMinute)
}

func (c *Config) finalize() error {
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.Processing.Notifier = normalizeNotifier(c.Processing.Notifier)
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")

	size, err := units.RAMInBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("parse max_upload_size %q: %w", c.MaxUploadSize, err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.MaxUploadBytes = size

	if c.MaxPageSize <= 0 {
		c.MaxPageSize = defaultMaxPageSize
	}

	if c.Processing.Timeout, err = time.ParseDuration(c.Processing.TimeoutRaw); err != nil {
		return fmt.Errorf("parse processing timeout %q: %w", c.Processing.TimeoutRaw, err)
	}
	if c.Redis.TTL, err = time.ParseDuration(c.Redis.TTLRaw); err != nil {
		return fmt.Errorf("parse list cache ttl %q: %w", c.Redis.TTLRaw, err)
	}

	if c.Env == "production" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.Auth.JWTSecret == "" && c.Auth.PublicKeyFile == "" {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required in production")
		}
	}
	return nil
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeNotifier(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "amqp", "rabbitmq":
		return "amqp"
	case "none", "off", "disabled":
		return "none"
	default:
		return "http"
	}
}
