package session

import (
	"context"

	"github.com/jrsteele09/go-hr-console/users"
)

// State is the lifecycle position of a session
type State int

const (
	StateUninitialized State = iota // Before the startup rehydration ran
	StateAnonymous                  // No valid credential
	StateAuthenticated              // Identity and token present
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session at one instant
type Snapshot struct {
	State        State
	Identity     *users.Identity
	Profile      *users.Profile
	Initializing bool
}

// Authenticated reports whether the snapshot carries an identity
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// Role returns the identity's role or "" when anonymous
func (s Snapshot) Role() users.Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Navigator exposes the caller's current location and lets the session
// coordinator force a navigation after the backend rejected the credential.
type Navigator interface {
	Location(ctx context.Context) string
	Navigate(ctx context.Context, path string)
}

// Endpoints are the backend paths used by the Manager
type Endpoints struct {
	Login    string
	Register string
	Logout   string
	Profile  string
	Photo    string
}

// DefaultEndpoints returns the backend's standard auth paths
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "login",
		Register: "register",
		Logout:   "logout",
		Profile:  "profile",
		Photo:    "profile/photo",
	}
}
