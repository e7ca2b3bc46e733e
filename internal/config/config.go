package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	// DevJWTSecret is only used when JWT_SECRET is unset.
	DevJWTSecret = "insecure-development-jwt-secret-change-me"

	defaultAppURL = "http://localhost:3000"
)

var ErrAppURLRequired = errors.New("APP_URL is required outside development")

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// Enabled reports whether outbound mail can be delivered over SMTP.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// StorageConfig holds the MinIO connection settings.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RateLimitConfig caps requests per client IP on the auth endpoints.
type RateLimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// Config is the resolved service configuration.
type Config struct {
	Env           string          `yaml:"env"`
	Port          string          `yaml:"port"`
	DBDriver      string          `yaml:"db_driver"`
	MongoURI      string          `yaml:"mongo_uri"`
	MongoDatabase string          `yaml:"mongo_database"`
	JWTSecret     string          `yaml:"jwt_secret"`
	ResetTokenKey string          `yaml:"reset_token_secret"`
	AppURL        string          `yaml:"app_url"`
	BcryptCost    int             `yaml:"bcrypt_cost"`
	SMTP          SMTPConfig      `yaml:"smtp"`
	Storage       StorageConfig   `yaml:"storage"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

// IsProduction reports whether the service runs with Env=production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// UsesDefaultSecret reports whether tokens are signed with the built-in development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// Load reads .env (if present), then the YAML file named by CONFIG_PATH (if set),
// then environment variables. Environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.MongoDatabase, "MONGO_DATABASE")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.ResetTokenKey, "RESET_TOKEN_SECRET")
	setString(&cfg.AppURL, "APP_URL")
	setInt(&cfg.BcryptCost, "BCRYPT_COST")

	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setInt(&cfg.SMTP.Port, "SMTP_PORT")
	setString(&cfg.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	setString(&cfg.SMTP.FromName, "SMTP_FROM_NAME")

	setString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "MINIO_BUCKET")
	if v, ok := os.LookupEnv("MINIO_USE_SSL"); ok {
		cfg.Storage.UseSSL, _ = strconv.ParseBool(v)
	}

	setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX")
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = d
		}
	}
}

func finalize(cfg *Config) error {
	cfg.Env = strings.ToLower(cfg.Env)
	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "mongo"
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = "mongodb://localhost:27017"
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "black_wealth_exchange"
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DevJWTSecret
	}
	if cfg.ResetTokenKey == "" {
		cfg.ResetTokenKey = cfg.JWTSecret
	}

	if cfg.AppURL == "" {
		if cfg.Env != EnvDevelopment {
			return ErrAppURLRequired
		}
		cfg.AppURL = defaultAppURL
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.FromName == "" {
		cfg.SMTP.FromName = "Black Wealth Exchange"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "profile-images"
	}
	if cfg.RateLimit.Max == 0 {
		cfg.RateLimit.Max = 20
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
