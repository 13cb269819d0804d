package config

import "time"

// BackendConfig locates the HR REST backend
type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
}

type Backend struct {
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8081/api"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
}

var _ BackendConfig = Backend{}

func (b Backend) GetBackendURL() string {
	return b.BackendURL
}

// GetBackendTimeout bounds every backend request, 0 disables the bound
func (b Backend) GetBackendTimeout() time.Duration {
	return b.BackendTimeout
}
