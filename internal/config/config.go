package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Share     ShareConfig
	Storage   StorageConfig
	Gallery   GalleryConfig
	Broker    BrokerConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	ConnectRetries int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Format      string
	Development bool
	Service     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	BcryptCost            int
	AllowAdminSignup      bool
}

// ShareConfig controls share links handed out with QR tokens.
type ShareConfig struct {
	BaseURL string
}

// StorageConfig selects where uploaded media lives.
type StorageConfig struct {
	Backend       string
	UploadDir     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3PathStyle   bool
}

// GalleryConfig bounds uploads and listings.
type GalleryConfig struct {
	MaxUploadBytes int64
	// MaxImagePixels caps width*height of uploaded images; zero disables the check.
	MaxImagePixels   int64
	ThumbnailSize    int
	DefaultPageLimit int
	MaxPageLimit     int
}

// BrokerConfig holds RabbitMQ settings. An empty URL disables forwarding.
type BrokerConfig struct {
	URL    string
	Queue  string
	Buffer int
}

// RateLimitConfig configures the Redis token bucket on credential endpoints.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// ErrMissingJWTSecret is returned when AUTH_JWT_SECRET is not configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	appEnv := getEnv("APP_ENV", "development")
	appName := getEnv("APP_NAME", "event-gallery")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   appEnv,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectRetries: getEnvAsInt("POSTGRES_CONNECT_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Development: appEnv == "development",
			Service:     appName,
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 30),
			RefreshTokenTTLDays:   getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_DAYS", 7),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AllowAdminSignup:      getEnvAsBool("AUTH_ALLOW_ADMIN_SIGNUP", false),
		},
		Share: ShareConfig{
			BaseURL: strings.TrimRight(getEnv("SHARE_BASE_URL", "http://localhost:8080"), "/"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			UploadDir:     getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			PublicBaseURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", "/uploads"), "/"),
			S3Bucket:      os.Getenv("STORAGE_S3_BUCKET"),
			S3Region:      getEnv("STORAGE_S3_REGION", "us-east-1"),
			S3Endpoint:    os.Getenv("STORAGE_S3_ENDPOINT"),
			S3AccessKey:   os.Getenv("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey:   os.Getenv("STORAGE_S3_SECRET_KEY"),
			S3PathStyle:   getEnvAsBool("STORAGE_S3_PATH_STYLE", true),
		},
		Gallery: GalleryConfig{
			MaxUploadBytes:   int64(getEnvAsInt("GALLERY_MAX_UPLOAD_BYTES", 10<<20)),
			MaxImagePixels:   int64(getEnvAsInt("GALLERY_MAX_IMAGE_PIXELS", 40_000_000)),
			ThumbnailSize:    getEnvAsInt("GALLERY_THUMBNAIL_SIZE", 200),
			DefaultPageLimit: getEnvAsInt("GALLERY_DEFAULT_PAGE_LIMIT", 20),
			MaxPageLimit:     getEnvAsInt("GALLERY_MAX_PAGE_LIMIT", 100),
		},
		Broker: BrokerConfig{
			URL:    os.Getenv("BROKER_URL"),
			Queue:  getEnv("BROKER_QUEUE", "gallery.events"),
			Buffer: getEnvAsInt("BROKER_BUFFER", 256),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Capacity:       getEnvAsInt("RATE_LIMIT_CAPACITY", 10),
			RefillTokens:   getEnvAsInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getEnvAsDuration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
			TTL:            getEnvAsDuration("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl:auth"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("STORAGE_S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Gallery.MaxPageLimit <= 0 || c.Gallery.DefaultPageLimit <= 0 || c.Gallery.DefaultPageLimit > c.Gallery.MaxPageLimit {
		return errors.New("invalid gallery page limits")
	}
	if c.Gallery.MaxImagePixels < 0 {
		return errors.New("GALLERY_MAX_IMAGE_PIXELS must not be negative")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTTL returns the access token lifetime.
func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
