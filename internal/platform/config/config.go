// Package config loads all runtime configuration from the environment so
// main stays lean. Defaults suit local development; production overrides
// everything through the process environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full application configuration.
type Config struct {
	Environment string `env:"GATEKEEPER_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Server    Server
	Database  Database
	Session   Session
	Secrets   Secrets
	Bootstrap Bootstrap
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"GATEKEEPER_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"GATEKEEPER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"GATEKEEPER_WRITE_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"GATEKEEPER_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"GATEKEEPER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Database captures the connection pool configuration. An empty URL runs
// the service on in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// Session captures token issuance configuration.
type Session struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
}

// Secrets captures password hashing configuration.
type Secrets struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Bootstrap describes the administrator account seeded at startup when the
// directory holds no privileged account yet.
type Bootstrap struct {
	AdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
