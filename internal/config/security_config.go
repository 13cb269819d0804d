package config

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetLoginRateLimit() float64
	GetLoginRateBurst() int
}

type Security struct {
	EnableRateLimiting bool    `env:"ENABLE_RATE_LIMITING" envDefault:"true"`
	LoginRateLimit     float64 `env:"LOGIN_RATE_LIMIT" envDefault:"1"` // Attempts per second per browser
	LoginRateBurst     int     `env:"LOGIN_RATE_BURST" envDefault:"5"`
}

var _ SecurityConfig = Security{}

func (s Security) GetEnableRateLimiting() bool {
	return s.EnableRateLimiting
}

func (s Security) GetLoginRateLimit() float64 {
	return s.LoginRateLimit
}

func (s Security) GetLoginRateBurst() int {
	return s.LoginRateBurst
}
