package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hr-console/gateway"
	"github.com/jrsteele09/go-hr-console/hr"
	"github.com/jrsteele09/go-hr-console/resource"
	"github.com/rs/zerolog/log"
)

// EmployeeDashboardHandler shows the employee's profile, tasks and the
// latest announcements
func (s *Server) EmployeeDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())

		var problems []string
		if err := b.Session.LoadProfile(r.Context()); err != nil {
			if redirectForced(w, r) {
				return
			}
			log.Debug().Err(err).Msg("Profile refresh failed, showing stored profile")
			problems = append(problems, gateway.UserMessage(err))
		}

		tasks, err := listOnce[hr.Task](r.Context(), b.API, "tasks")
		if err != nil {
			if redirectForced(w, r) {
				return
			}
			problems = append(problems, gateway.UserMessage(err))
		}
		announcements, err := listOnce[hr.Announcement](r.Context(), b.API, "announcements")
		if err != nil {
			if redirectForced(w, r) {
				return
			}
			problems = append(problems, gateway.UserMessage(err))
		}

		data := s.newPageData(r, "My dashboard")
		data.Tasks = tasks
		data.Announcements = announcements
		if len(problems) > 0 && data.Error == "" {
			data.Error = problems[0]
		}
		s.pages.render(w, http.StatusOK, "employee_dashboard.html", data)
	}
}

// listOnce mounts a synchronizer for a single read
func listOnce[T any](ctx context.Context, api resource.API, endpoint string) ([]T, error) {
	items, err := resource.New[T](api, endpoint)
	if err != nil {
		return nil, err
	}
	defer items.Close()

	if err := items.List(ctx); err != nil {
		return nil, err
	}
	return items.Items(), nil
}

// ChangePhotoHandler submits a new profile photo
func (s *Server) ChangePhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		photo := strings.TrimSpace(r.PostForm.Get("photo"))
		if err := browserFrom(r.Context()).Session.ChangePhoto(r.Context(), photo); err != nil {
			if redirectForced(w, r) {
				return
			}
			message := gateway.UserMessage(err)
			if fields := gateway.FieldErrors(err); len(fields["photo"]) > 0 {
				message = fields["photo"][0]
			}
			redirectWithError(w, r, RouteEmployeeDashboard, message)
			return
		}
		redirectSuccess(w, r, withQuery(RouteEmployeeDashboard, "notice", "Photo updated"))
	}
}
