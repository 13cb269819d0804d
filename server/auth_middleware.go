package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-console/guard"
	"github.com/jrsteele09/go-hr-console/server/browsers"
	"github.com/jrsteele09/go-hr-console/session"
	"github.com/jrsteele09/go-hr-console/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyBrowser stores the visitor's *browsers.Browser
const ContextKeyBrowser ContextKey = "browser"

// WithBrowser resolves the visitor's browser from its cookie, creating and
// rehydrating it on first sight
func (s *Server) WithBrowser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(browserCookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		s.SetBrowserCookie(w, r, id)

		ctx := withNavigation(r.Context(), r.URL.Path)
		b, err := s.browsers.GetOrCreate(ctx, id)
		if err != nil {
			log.Err(err).Str("browser", id).Msg("Failed to create browser context")
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
		b.Session.Init(ctx)

		ctx = context.WithValue(ctx, ContextKeyBrowser, b)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole applies the access guard to a screen needing role
func (s *Server) RequireRole(role users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b := browserFrom(r.Context())
			decision := s.paths.Decide(b.Session.Snapshot(), role, r.URL.RequestURI())

			switch decision.Outcome {
			case guard.Render:
				next(w, r)
			case guard.Pending:
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusNoContent)
			default:
				redirectSuccess(w, r, decision.Location)
			}
		}
	}
}

func browserFrom(ctx context.Context) *browsers.Browser {
	b, _ := ctx.Value(ContextKeyBrowser).(*browsers.Browser)
	return b
}

func snapshotFrom(ctx context.Context) session.Snapshot {
	if b := browserFrom(ctx); b != nil {
		return b.Session.Snapshot()
	}
	return session.Snapshot{}
}
