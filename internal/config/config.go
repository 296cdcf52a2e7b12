package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    Server    `envPrefix:"SERVER_"`
	Database  Database  `envPrefix:"DATABASE_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	RateLimit RateLimit
	Log       Log       `envPrefix:"LOG_"`

	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins          []string      `env:"CORS_ORIGINS" envSeparator:","`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`
}

type Server struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
}

type Database struct {
	URL      string `env:"URL"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"MIN_CONNS" envDefault:"1"`
}

// Auth holds token and cookie settings. Empty key material is allowed at
// startup; the first request that needs it fails instead.
type Auth struct {
	Issuer             string        `env:"ISSUER" envDefault:"auth-service"`
	PrivateKeyFile     string        `env:"PRIVATE_KEY_FILE"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	JWKSURI            string        `env:"JWKS_URI"`
	JWKSCacheTTL       time.Duration `env:"JWKS_CACHE_TTL" envDefault:"5m"`
	JWKSFetchRetries   uint64        `env:"JWKS_FETCH_RETRIES" envDefault:"3"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieDomain       string        `env:"COOKIE_DOMAIN"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`
}

type RateLimit struct {
	GeneralRPM int `env:"RATE_LIMIT_RPM" envDefault:"100"`
	AuthRPM    int `env:"AUTH_RATE_LIMIT_RPM" envDefault:"10"`
}

type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"pretty"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse maps the environment onto Config without validating it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Auth.Issuer = strings.TrimSpace(cfg.Auth.Issuer)
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("SERVER_PORT cannot be empty"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("DATABASE_MAX_CONNS must be positive"))
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DATABASE_MIN_CONNS must be between 0 and DATABASE_MAX_CONNS"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.Server.ReadHeaderTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Auth.JWKSCacheTTL <= 0 {
		errs = append(errs, errors.New("AUTH_JWKS_CACHE_TTL must be positive"))
	}
	if c.SessionSweepInterval < 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL cannot be negative"))
	}

	return errors.Join(errs...)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
