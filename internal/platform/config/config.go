// Package config loads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

const devSigningKey = "dev-secret-key-change-in-production"

type Config struct {
	Environment string `env:"CASHWALLET_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Server       Server
	Database     Database
	Redis        Redis
	Kafka        Kafka
	OTP          OTP
	Registration Registration
	Session      Session
	Mailer       Mailer
	Remote       Remote
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"CASHWALLET_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"35s"`
}

// Database is optional; an empty URL selects the in-memory account store.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"5m"`
	Migrate         bool          `env:"DATABASE_MIGRATE" envDefault:"true"`
}

// Redis is optional; an empty URL selects in-memory code and session stores.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka is optional; without brokers account events are dropped by a noop producer.
type Kafka struct {
	Brokers         string        `env:"KAFKA_BROKERS"`
	Acks            string        `env:"KAFKA_ACKS" envDefault:"all"`
	Retries         int           `env:"KAFKA_RETRIES" envDefault:"3"`
	DeliveryTimeout time.Duration `env:"KAFKA_DELIVERY_TIMEOUT" envDefault:"30s"`
	AccountTopic    string        `env:"KAFKA_ACCOUNT_TOPIC" envDefault:"cashwallet.account.events"`
	ConsumerGroup   string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"cashwallet-welcome"`
	Partitions      int32         `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	Replication     int16         `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
}

// OTP configures the verification service.
type OTP struct {
	TTL            time.Duration `env:"OTP_TTL" envDefault:"10m"`
	MaxAttempts    int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	ResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"30s"`
	VerifiedTTL    time.Duration `env:"OTP_VERIFIED_TTL" envDefault:"1h"`
}

// Registration configures the workflow host.
type Registration struct {
	Profile          string        `env:"REGISTRATION_PROFILE" envDefault:"advanced"`
	MinPasswordScore int           `env:"REGISTRATION_MIN_PASSWORD_SCORE" envDefault:"80"`
	IdleTTL          time.Duration `env:"REGISTRATION_IDLE_TTL" envDefault:"30m"`
	CleanupInterval  time.Duration `env:"REGISTRATION_CLEANUP_INTERVAL" envDefault:"1m"`
	CallTimeout      time.Duration `env:"REGISTRATION_CALL_TIMEOUT" envDefault:"15s"`
	MaxActive        int           `env:"REGISTRATION_MAX_ACTIVE" envDefault:"10000"`
}

// Session configures sign-in tokens.
type Session struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"cashwallet"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
}

// Mailer selects one-time code delivery. Without an API URL codes are logged.
type Mailer struct {
	APIURL   string        `env:"MAILER_API_URL"`
	APIToken string        `env:"MAILER_API_TOKEN"`
	From     string        `env:"MAILER_FROM" envDefault:"no-reply@cashwallet.local"`
	FromName string        `env:"MAILER_FROM_NAME" envDefault:"CashWallet"`
	Timeout  time.Duration `env:"MAILER_TIMEOUT" envDefault:"10s"`
}

// Remote points the registration workflow at separately deployed verification
// and account services. Empty URLs use the in-process services.
type Remote struct {
	VerificationURL  string        `env:"REMOTE_VERIFICATION_URL"`
	AccountURL       string        `env:"REMOTE_ACCOUNT_URL"`
	Timeout          time.Duration `env:"REMOTE_TIMEOUT" envDefault:"10s"`
	FailureThreshold int           `env:"REMOTE_BREAKER_FAILURES" envDefault:"5"`
	CoolOff          time.Duration `env:"REMOTE_BREAKER_COOLOFF" envDefault:"10s"`
}

// FromEnv parses and validates the configuration so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that would start a misconfigured server.
func (c Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("invalid CASHWALLET_ENV %q", c.Environment)
	}
	if c.IsProduction() && c.Session.SigningKey == devSigningKey {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if c.Registration.MinPasswordScore <= 0 || c.Registration.MinPasswordScore > 100 {
		return fmt.Errorf("REGISTRATION_MIN_PASSWORD_SCORE must be within 1..100, got %d", c.Registration.MinPasswordScore)
	}
	if c.OTP.MaxAttempts <= 0 {
		return errors.New("OTP_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ExposeIssuedCodes reports whether one-time codes may be echoed back to clients.
func (c Config) ExposeIssuedCodes() bool {
	return !c.IsProduction()
}
