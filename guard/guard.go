// Package guard decides what a visitor may see for a protected screen.
//
// Decide is a pure function of the session snapshot, so the same rules serve
// the HTTP middleware, the navigation menu and tests.
package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-hr-console/session"
	"github.com/jrsteele09/go-hr-console/users"
)

// AnyAuthenticated admits every signed-in role
const AnyAuthenticated users.Role = ""

// Outcome is what the caller should do with a request
type Outcome int

const (
	Pending         Outcome = iota // Session still rehydrating, render nothing yet
	Render                         // Show the protected content
	RedirectLogin                  // Anonymous visitor, go to the login screen
	RedirectLanding                // Wrong role, go to the role's own landing page
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectLanding:
		return "redirect-landing"
	default:
		return "unknown"
	}
}

// Decision is the outcome plus the target for redirects
type Decision struct {
	Outcome  Outcome
	Location string
}

// Paths are the screens the guard redirects to
type Paths struct {
	Login           string
	AdminLanding    string
	EmployeeLanding string
}

// DefaultPaths returns the console's standard routes
func DefaultPaths() Paths {
	return Paths{
		Login:           "/login",
		AdminLanding:    "/admin/dashboard",
		EmployeeLanding: "/employee/dashboard",
	}
}

// Landing returns the home screen of a role
func (p Paths) Landing(role users.Role) string {
	switch role {
	case users.RoleAdmin:
		return p.AdminLanding
	case users.RoleEmployee:
		return p.EmployeeLanding
	default:
		return p.Login
	}
}

// Decide applies the access rules for a screen requiring role. attempted is
// the location the visitor asked for and is carried to the login screen so
// they can return after signing in.
func (p Paths) Decide(snapshot session.Snapshot, required users.Role, attempted string) Decision {
	if snapshot.Initializing || snapshot.State == session.StateUninitialized {
		return Decision{Outcome: Pending}
	}

	if !snapshot.Authenticated() {
		location := p.Login
		if attempted != "" && attempted != p.Login {
			location += "?" + url.Values{"next": {attempted}}.Encode()
		}
		return Decision{Outcome: RedirectLogin, Location: location}
	}

	// Roles are additive: an admin may enter the employee area
	if required != AnyAuthenticated && !snapshot.Role().AtLeast(required) {
		return Decision{Outcome: RedirectLanding, Location: p.Landing(snapshot.Role())}
	}

	return Decision{Outcome: Render}
}

// Decide applies DefaultPaths
func Decide(snapshot session.Snapshot, required users.Role, attempted string) Decision {
	return DefaultPaths().Decide(snapshot, required, attempted)
}

// AfterLogin picks where a freshly signed-in visitor goes: the remembered
// location when it is a local path their role may see, else their landing.
func (p Paths) AfterLogin(role users.Role, next string) string {
	landing := p.Landing(role)
	next = SafeReturn(next, "")
	if next == "" || next == p.Login {
		return landing
	}

	switch {
	case strings.HasPrefix(next, "/admin"):
		if !role.AtLeast(users.RoleAdmin) {
			return landing
		}
	case strings.HasPrefix(next, "/employee"):
		if !role.AtLeast(users.RoleEmployee) {
			return landing
		}
	}
	return next
}

// SafeReturn returns next if it is a local absolute path, fallback otherwise
func SafeReturn(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
