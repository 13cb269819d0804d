package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := config.NewFromMap(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "HR Console", c.GetAppName())
	require.True(t, c.IsDevelopment())
	require.Equal(t, "http://localhost:8081/api", c.GetBackendURL())
	require.Equal(t, 10*time.Second, c.GetBackendTimeout())
	require.Equal(t, "memory", c.GetCredentialBackend())
	require.Equal(t, 720*time.Hour, c.GetCredentialTTL())
	require.True(t, c.GetEnableRateLimiting())
	require.Equal(t, 5, c.GetLoginRateBurst())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestNew_FromEnvironment(t *testing.T) {
	c, err := config.NewFromMap(map[string]string{
		"PORT":               ":9000",
		"ENV":                "PROD",
		"BACKEND_URL":        "https://hr.example.com/api",
		"BACKEND_TIMEOUT":    "3s",
		"CREDENTIAL_BACKEND": "redis",
		"REDIS_URL":          "redis://localhost:6379/0",
		"COOKIE_SECURE":      "true",
		"ALLOWED_ORIGINS":    "https://a.example.com, https://b.example.com",
	})
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.False(t, c.IsDevelopment())
	require.Equal(t, 3*time.Second, c.GetBackendTimeout())
	require.True(t, c.GetCookieSecure())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
}

func TestNew_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"relative backend url":   {"BACKEND_URL": "/api"},
		"unknown storage":        {"CREDENTIAL_BACKEND": "cookie"},
		"redis without url":      {"CREDENTIAL_BACKEND": "redis"},
		"bad duration":           {"BACKEND_TIMEOUT": "soon"},
		"zero login burst":       {"LOGIN_RATE_BURST": "0"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.NewFromMap(vars)
			require.Error(t, err)
		})
	}
}
