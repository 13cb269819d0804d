package config

import "time"

// SessionConfig selects where each browser's credentials are kept
type SessionConfig interface {
	GetCredentialBackend() string
	GetCredentialDir() string
	GetRedisURL() string
	GetCredentialTTL() time.Duration
	GetCookieSecure() bool
}

type Session struct {
	CredentialBackend string        `env:"CREDENTIAL_BACKEND" envDefault:"memory"`
	CredentialDir     string        `env:"CREDENTIAL_DIR" envDefault:"./data/credentials"`
	RedisURL          string        `env:"REDIS_URL"`
	CredentialTTL     time.Duration `env:"CREDENTIAL_TTL" envDefault:"720h"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

var _ SessionConfig = Session{}

func (s Session) GetCredentialBackend() string {
	return s.CredentialBackend
}

func (s Session) GetCredentialDir() string {
	return s.CredentialDir
}

func (s Session) GetRedisURL() string {
	return s.RedisURL
}

func (s Session) GetCredentialTTL() time.Duration {
	return s.CredentialTTL
}

func (s Session) GetCookieSecure() bool {
	return s.CookieSecure
}
