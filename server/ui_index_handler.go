package server

import (
	"net/http"
)

// IndexHandler sends the visitor to their landing page or the login screen
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := snapshotFrom(r.Context())
		if !snapshot.Authenticated() {
			redirectSuccess(w, r, s.paths.Login)
			return
		}
		redirectSuccess(w, r, s.paths.Landing(snapshot.Role()))
	}
}
