package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	ObjectStore ObjectStoreConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Explorer    ExplorerConfig
	Download    DownloadConfig
	Datasets    DatasetsConfig
	Audit       AuditConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ObjectStoreConfig points at the S3-compatible store holding file payloads.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExplorerConfig tunes browsing-session lifecycle.
type ExplorerConfig struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// DownloadConfig declares the packaging limits enforced before dispatch.
type DownloadConfig struct {
	MaxFiles     int
	MaxTotalSize int64
	ScratchDir   string
}

// DatasetsConfig governs dataset metadata caching.
type DatasetsConfig struct {
	CacheTTL time.Duration
}

// AuditConfig tunes the asynchronous audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.ObjectStore = ObjectStoreConfig{
		Endpoint:  v.GetString("OBJECT_STORE_ENDPOINT"),
		AccessKey: v.GetString("OBJECT_STORE_ACCESS_KEY"),
		SecretKey: v.GetString("OBJECT_STORE_SECRET_KEY"),
		Bucket:    v.GetString("OBJECT_STORE_BUCKET"),
		UseSSL:    v.GetBool("OBJECT_STORE_USE_SSL"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Explorer = ExplorerConfig{
		SessionTTL:      parseDuration(v.GetString("EXPLORER_SESSION_TTL"), 30*time.Minute),
		CleanupInterval: parseDuration(v.GetString("EXPLORER_CLEANUP_INTERVAL"), 5*time.Minute),
	}

	maxTotalSize := v.GetInt64("DOWNLOAD_MAX_TOTAL_SIZE")
	if maxTotalSize <= 0 {
		maxTotalSize = 2 << 30
	}
	cfg.Download = DownloadConfig{
		MaxFiles:     v.GetInt("DOWNLOAD_MAX_FILES"),
		MaxTotalSize: maxTotalSize,
		ScratchDir:   v.GetString("DOWNLOAD_SCRATCH_DIR"),
	}

	cfg.Datasets = DatasetsConfig{
		CacheTTL: parseDuration(v.GetString("DATASET_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "open_depot")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("OBJECT_STORE_ENDPOINT", "localhost:9000")
	v.SetDefault("OBJECT_STORE_ACCESS_KEY", "minioadmin")
	v.SetDefault("OBJECT_STORE_SECRET_KEY", "minioadmin")
	v.SetDefault("OBJECT_STORE_BUCKET", "depot-content")
	v.SetDefault("OBJECT_STORE_USE_SSL", false)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXPLORER_SESSION_TTL", "30m")
	v.SetDefault("EXPLORER_CLEANUP_INTERVAL", "5m")

	v.SetDefault("DOWNLOAD_MAX_FILES", 10000)
	v.SetDefault("DOWNLOAD_MAX_TOTAL_SIZE", 2<<30)
	v.SetDefault("DOWNLOAD_SCRATCH_DIR", "")

	v.SetDefault("DATASET_CACHE_TTL", "10m")

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER_SIZE", 64)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
