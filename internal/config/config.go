package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Auth modes selectable via AUTH_MODE.
const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
)

// Config holds runtime configuration for the taskhub API service.
type Config struct {
	Addr     string `env:"ADDR,default=:8080"`
	DBDriver string `env:"DB_DRIVER,default=postgres"`
	DBDSN    string `env:"DB_DSN,required"`

	AuthMode      string        `env:"AUTH_MODE,default=jwt"`
	JWTSigningKey string        `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string        `env:"JWT_ISSUER,default=taskhub"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=12h"`
	CookieSecure  bool          `env:"COOKIE_SECURE,default=false"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimit      int      `env:"RATE_LIMIT_PER_MINUTE,default=100"`

	NATSURL      string `env:"NATS_URL"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SeedFile     string `env:"SEED_FILE"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig tags cannot express.
func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSigningKey == "" {
			return fmt.Errorf("JWT_SIGNING_KEY is required when AUTH_MODE=%s", AuthModeJWT)
		}
	case AuthModeHeader:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit)
	}
	return nil
}
