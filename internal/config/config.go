// Package config loads the process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// DefaultJWTSecret is the development signing secret. It is rejected in production.
const DefaultJWTSecret = "dev-secret-change-in-production"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

var (
	ErrDefaultSecret      = errors.New("JWT_SECRET must be set in production environment")
	ErrUnknownEnv         = errors.New("ENV must be development, production or test")
	ErrUnsupportedJWTAlgo = errors.New("JWT_ALGORITHM must be HS256, HS384 or HS512")
	ErrInvalidJWTExpiry   = errors.New("JWT_EXPIRY must be positive")
	ErrInvalidBcryptCost  = fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	ErrInvalidLogLevel    = errors.New("LOG_LEVEL must be debug, info, warn or error")
)

// Config is immutable after Load and passed by value to constructors.
type Config struct {
	Port     string `env:"PORT" envDefault:"3000"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDSN     string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/kitchen?parseTime=true"`
	TestDatabaseDSN string `env:"TEST_DATABASE_DSN"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	JWTAlgorithm string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpiry    time.Duration `env:"JWT_EXPIRY" envDefault:"8760h"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"12"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleTokenInfoURL string        `env:"GOOGLE_TOKENINFO_URL" envDefault:"https://oauth2.googleapis.com/tokeninfo"`
	GoogleTimeout      time.Duration `env:"GOOGLE_TIMEOUT" envDefault:"5s"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	S3Bucket        string `env:"S3_BUCKET"`
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	AuthRateRPS   float64 `env:"AUTH_RATE_RPS" envDefault:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"10"`
	TrustProxy    bool    `env:"TRUST_PROXY" envDefault:"false"`
}

// Load reads .env when present, then the process environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses configuration from the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return ErrUnknownEnv
	}
	if c.Env == EnvProduction && (c.JWTSecret == DefaultJWTSecret || c.JWTSecret == "") {
		return ErrDefaultSecret
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return ErrUnsupportedJWTAlgo
	}
	if c.JWTExpiry <= 0 {
		return ErrInvalidJWTExpiry
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return ErrInvalidBcryptCost
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// DSN returns the test database DSN when running under ENV=test and one is set.
func (c Config) DSN() string {
	if c.Env == EnvTest && c.TestDatabaseDSN != "" {
		return c.TestDatabaseDSN
	}
	return c.DatabaseDSN
}

// IsProduction reports whether ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ErrInvalidLogLevel
	}
}
