package users_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-console/users"
	"github.com/stretchr/testify/require"
)

func TestRole_AtLeast(t *testing.T) {
	t.Run("admin satisfies employee areas", func(t *testing.T) {
		require.True(t, users.RoleAdmin.AtLeast(users.RoleEmployee))
	})

	t.Run("employee does not satisfy admin areas", func(t *testing.T) {
		require.False(t, users.RoleEmployee.AtLeast(users.RoleAdmin))
	})

	t.Run("unknown role satisfies nothing", func(t *testing.T) {
		require.False(t, users.Role("guest").AtLeast(users.RoleEmployee))
		require.False(t, users.Role("guest").Valid())
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		contains string
	}{
		{"too short", "Ab1", "at least 8"},
		{"no upper", "password123", "uppercase"},
		{"no lower", "PASSWORD123", "lowercase"},
		{"no number", "Passwords", "number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.contains)
		})
	}

	require.NoError(t, users.ValidatePasswordStrength("Password123"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Password123", hash))
	require.False(t, users.CheckPasswordHash("wrong", hash))
}

func TestIdentity_DisplayName(t *testing.T) {
	var nilIdentity *users.Identity
	require.Equal(t, "", nilIdentity.DisplayName())
	require.Equal(t, "a@x.com", (&users.Identity{Email: "a@x.com"}).DisplayName())
	require.Equal(t, "Ann", (&users.Identity{Name: "Ann", Email: "a@x.com"}).DisplayName())
}

func TestProfile_HiredAtOmittedWhenUnset(t *testing.T) {
	data, err := json.Marshal(users.Profile{ID: "1"})
	require.NoError(t, err)
	require.NotContains(t, string(data), "hired_at")

	data, err = json.Marshal(users.Profile{ID: "1", HiredAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Contains(t, string(data), `"hired_at":"2024-03-01T00:00:00Z"`)
}
