package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/go-hr-console/credentials"
)

type Config interface {
	EnvConfig
	BackendConfig
	SessionConfig
	SecurityConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDevelopment() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Backend
	Session
	Security
	Cors
}

// New reads the configuration from the process environment
func New() (Config, error) {
	return parse(env.Options{})
}

// NewFromMap reads the configuration from vars instead of the environment
func NewFromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("[config New] failed to parse environment variables: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	return c, nil
}

func (c mainConfig) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}

	switch c.CredentialBackend {
	case credentials.KindMemory, credentials.KindFile:
	case credentials.KindRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CREDENTIAL_BACKEND=%s", credentials.KindRedis)
		}
	default:
		return fmt.Errorf("unknown CREDENTIAL_BACKEND %q", c.CredentialBackend)
	}

	if c.EnableRateLimiting && (c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0) {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}
	return nil
}
