package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// App holds the API server configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-api"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:5000"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Catalog  Catalog
	CORS     CORS
}

// Postgres captures connection info for the question bank.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the libpq-style connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis configures the catalog cache. An empty address disables caching.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets guarding the write endpoints. With no admin
// password hash configured, writes are open.
type Security struct {
	JWTSecret         string        `env:"JWT_SECRET" envDefault:""`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH" envDefault:""`
	TokenTTL          time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"1h"`
}

// Catalog groups question bank behavior.
type Catalog struct {
	QuestionsPerPage int           `env:"QUESTIONS_PER_PAGE" envDefault:"10"`
	CacheTTL         time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	QueryTimeout     time.Duration `env:"CATALOG_QUERY_TIMEOUT" envDefault:"4s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Client configures the terminal client.
type Client struct {
	APIURL   string        `env:"TRIVIA_API_URL" envDefault:"http://localhost:5000"`
	Token    string        `env:"TRIVIA_API_TOKEN" envDefault:""`
	Timeout  time.Duration `env:"TRIVIA_HTTP_TIMEOUT" envDefault:"5s"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// LoadDotEnv reads configs/.env outside production. A missing file is
// reported but not fatal.
func LoadDotEnv() error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	if err := godotenv.Load("configs/.env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Security.AdminPasswordHash != "" && cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("parse config: JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	if cfg.Catalog.QuestionsPerPage <= 0 {
		return nil, fmt.Errorf("parse config: QUESTIONS_PER_PAGE must be positive")
	}
	return cfg, nil
}

// LoadClient parses the terminal client configuration.
func LoadClient() (*Client, error) {
	cfg := &Client{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}
	return cfg, nil
}
