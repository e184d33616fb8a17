// Package config loads the process configuration from the environment.
package config

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
)

// App is the full process configuration.
type App struct {
	// Storage
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Identity
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin  int    `envconfig:"JWT_EXPIRE_MIN" default:"480"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Login throttling
	LoginRateRPS   float64 `envconfig:"LOGIN_RATE_RPS" default:"1"`
	LoginRateBurst int     `envconfig:"LOGIN_RATE_BURST" default:"5"`

	// Observability
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment.
func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)

	return c, err
}

// TokenTTL returns the configured bearer token lifetime.
func (c App) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpireMin) * time.Minute
}

// PGXPoolConfig builds a tuned pgx pool configuration for the database URL.
func (c App) PGXPoolConfig() (*pgxpool.Config, error) {
	const defaultMaxConnections = int32(8)
	const defaultMinConnections = int32(2)
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	dbConfig, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, err
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}
