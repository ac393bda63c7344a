package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

// MinJWTSecretLength is the shortest accepted HS256 signing key, in bytes.
const MinJWTSecretLength = 32

// Reset secrets stay short-lived.
const (
	MinResetTokenTTL = 10 * time.Minute
	MaxResetTokenTTL = 60 * time.Minute
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	PublicURL       string        `env:"PUBLIC_URL,       default=http://localhost:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	NotifyWorkers   int           `env:"NOTIFY_WORKERS,   default=4"`
	CookieSecure    bool          `env:"COOKIE_SECURE,    default=false"`

	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=mentorship"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET, required"`
	Issuer    string        `env:"JWT_ISSUER, default=mentorship-api"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN, default=24h"`
}

type SecurityConfig struct {
	BcryptCost           int           `env:"BCRYPT_COST,            default=12"`
	LockoutThreshold     int           `env:"LOCKOUT_THRESHOLD,      default=5"`
	LockoutDuration      time.Duration `env:"LOCKOUT_DURATION,       default=30m"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL,        default=10m"`
	ForgotPasswordLimit  int           `env:"FORGOT_PASSWORD_LIMIT,  default=5"`
	ForgotPasswordWindow time.Duration `env:"FORGOT_PASSWORD_WINDOW, default=15m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the auth core cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Security.LockoutThreshold <= 0 {
		errs = append(errs, errors.New("LOCKOUT_THRESHOLD must be positive"))
	}
	if c.Security.LockoutDuration <= 0 {
		errs = append(errs, errors.New("LOCKOUT_DURATION must be positive"))
	}
	if c.Security.ResetTokenTTL < MinResetTokenTTL || c.Security.ResetTokenTTL > MaxResetTokenTTL {
		errs = append(errs, fmt.Errorf("RESET_TOKEN_TTL must be between %s and %s", MinResetTokenTTL, MaxResetTokenTTL))
	}
	if c.Security.ForgotPasswordLimit <= 0 || c.Security.ForgotPasswordWindow <= 0 {
		errs = append(errs, errors.New("FORGOT_PASSWORD_LIMIT and FORGOT_PASSWORD_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
