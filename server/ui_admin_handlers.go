package server

import (
	"net/http"
)

// AdminDashboardHandler renders the admin dashboard
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.pages.render(w, http.StatusOK, "admin_dashboard.html", s.newPageData(r, "Dashboard"))
	}
}
