package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Store   StoreConfig
	JWT     JWTConfig
	S3      S3Config
	Log     LogConfig
	CORS    CORSConfig
	Notify  NotifyConfig
	Email   EmailConfig
	Lookup  LookupConfig
	Metrics MetricsConfig
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver"`
	// SeedFile is a departments/users workbook loaded at startup by the memory driver.
	SeedFile string `mapstructure:"seed_file"`
}

// NotifyConfig holds notification dispatcher settings.
type NotifyConfig struct {
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	DeliverTimeout time.Duration `mapstructure:"deliver_timeout"`
	// Sinks lists the enabled delivery channels: inbox, email, log.
	Sinks   []string `mapstructure:"sinks"`
	LinkURL string   `mapstructure:"link_url"`
}

// HasSink reports whether the named sink is enabled.
func (n *NotifyConfig) HasSink(name string) bool {
	for _, s := range n.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// LookupConfig bounds directory lookups made while rendering timelines.
type LookupConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Service string `mapstructure:"service"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds settings for verifying externally issued access tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds attachment storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DOCTRACK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "doctrack")
	v.SetDefault("db.password", "doctrack_secret")
	v.SetDefault("db.name", "doctrack_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.seed_file", "")

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "doctrack-attachments")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 900)

	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Notification dispatcher defaults
	v.SetDefault("notify.workers", 4)
	v.SetDefault("notify.queue_size", 1024)
	v.SetDefault("notify.deliver_timeout", "5s")
	v.SetDefault("notify.sinks", "inbox,log")
	v.SetDefault("notify.link_url", "http://localhost:3000")

	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-southeast-1")
	v.SetDefault("email.from_address", "noreply@doctrack.local")
	v.SetDefault("email.from_name", "Document Tracking")

	v.SetDefault("lookup.timeout", "300ms")
	v.SetDefault("lookup.concurrency", 8)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.service", "doctrack")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":            "DOCTRACK_SERVER_PORT",
		"server.read_timeout":    "DOCTRACK_SERVER_READ_TIMEOUT",
		"server.write_timeout":   "DOCTRACK_SERVER_WRITE_TIMEOUT",
		"server.environment":     "DOCTRACK_SERVER_ENVIRONMENT",
		"db.host":                "DOCTRACK_DB_HOST",
		"db.port":                "DOCTRACK_DB_PORT",
		"db.user":                "DOCTRACK_DB_USER",
		"db.password":            "DOCTRACK_DB_PASSWORD",
		"db.name":                "DOCTRACK_DB_NAME",
		"db.sslmode":             "DOCTRACK_DB_SSLMODE",
		"db.max_open":            "DOCTRACK_DB_MAX_OPEN",
		"db.max_idle":            "DOCTRACK_DB_MAX_IDLE",
		"store.driver":           "DOCTRACK_STORE_DRIVER",
		"store.seed_file":        "DOCTRACK_STORE_SEED_FILE",
		"jwt.secret":             "DOCTRACK_JWT_SECRET",
		"jwt.issuer":             "DOCTRACK_JWT_ISSUER",
		"s3.region":              "DOCTRACK_S3_REGION",
		"s3.bucket":              "DOCTRACK_S3_BUCKET",
		"s3.endpoint":            "DOCTRACK_S3_ENDPOINT",
		"s3.access_key":          "DOCTRACK_S3_ACCESS_KEY",
		"s3.secret_key":          "DOCTRACK_S3_SECRET_KEY",
		"s3.max_file_size_mb":    "DOCTRACK_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":      "DOCTRACK_S3_PRESIGN_EXPIRY",
		"log.level":              "DOCTRACK_LOG_LEVEL",
		"log.format":             "DOCTRACK_LOG_FORMAT",
		"cors.allowed_origins":   "DOCTRACK_CORS_ALLOWED_ORIGINS",
		"notify.workers":         "DOCTRACK_NOTIFY_WORKERS",
		"notify.queue_size":      "DOCTRACK_NOTIFY_QUEUE_SIZE",
		"notify.deliver_timeout": "DOCTRACK_NOTIFY_DELIVER_TIMEOUT",
		"notify.sinks":           "DOCTRACK_NOTIFY_SINKS",
		"notify.link_url":        "DOCTRACK_NOTIFY_LINK_URL",
		"email.provider":         "DOCTRACK_EMAIL_PROVIDER",
		"email.region":           "DOCTRACK_EMAIL_REGION",
		"email.from_address":     "DOCTRACK_EMAIL_FROM_ADDRESS",
		"email.from_name":        "DOCTRACK_EMAIL_FROM_NAME",
		"lookup.timeout":         "DOCTRACK_LOOKUP_TIMEOUT",
		"lookup.concurrency":     "DOCTRACK_LOOKUP_CONCURRENCY",
		"metrics.enabled":        "DOCTRACK_METRICS_ENABLED",
		"metrics.path":           "DOCTRACK_METRICS_PATH",
		"metrics.service":        "DOCTRACK_METRICS_SERVICE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Platform hosts set a PORT env var. Use it if DOCTRACK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCTRACK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Store = StoreConfig{
		Driver:   strings.ToLower(v.GetString("store.driver")),
		SeedFile: v.GetString("store.seed_file"),
	}
	switch cfg.Store.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	cfg.Notify = NotifyConfig{
		Workers:        v.GetInt("notify.workers"),
		QueueSize:      v.GetInt("notify.queue_size"),
		DeliverTimeout: v.GetDuration("notify.deliver_timeout"),
		Sinks:          splitList(v.GetString("notify.sinks")),
		LinkURL:        strings.TrimRight(v.GetString("notify.link_url"), "/"),
	}
	if cfg.Notify.Workers < 1 {
		cfg.Notify.Workers = 1
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	cfg.Lookup = LookupConfig{
		Timeout:     v.GetDuration("lookup.timeout"),
		Concurrency: v.GetInt("lookup.concurrency"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
		Path:    v.GetString("metrics.path"),
		Service: v.GetString("metrics.service"),
	}

	return cfg, nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
