package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-hr-console/users"
)

// sessionResponse is the JSON view of the visitor's session
type sessionResponse struct {
	State         string          `json:"state"`
	Authenticated bool            `json:"authenticated"`
	Identity      *users.Identity `json:"identity,omitempty"`
	Profile       *users.Profile  `json:"profile,omitempty"`
	Landing       string          `json:"landing,omitempty"`
	Persistent    bool            `json:"persistent"` // false when the session will not survive a reload
}

// SessionHandler reports the session of the calling browser (GET /api/session)
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := snapshotFrom(r.Context())
		resp := sessionResponse{
			State:         snapshot.State.String(),
			Authenticated: snapshot.Authenticated(),
			Identity:      snapshot.Identity,
			Profile:       snapshot.Profile,
			Persistent:    persistent(r.Context()),
		}
		if resp.Authenticated {
			resp.Landing = s.paths.Landing(snapshot.Role())
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
