package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hr-console/gateway"
	"github.com/jrsteele09/go-hr-console/guard"
	"github.com/rs/zerolog/log"
)

const messageTooManyAttempts = "Too many attempts. Please wait a moment and try again."

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := guard.SafeReturn(r.URL.Query().Get("next"), "")

		if snapshot := snapshotFrom(r.Context()); snapshot.Authenticated() {
			redirectSuccess(w, r, s.paths.AfterLogin(snapshot.Role(), next))
			return
		}

		data := s.newPageData(r, "Sign in")
		data.Next = next
		data.Form = map[string]string{"email": r.URL.Query().Get("email")}
		s.pages.render(w, http.StatusOK, "login.html", data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		next := guard.SafeReturn(r.FormValue("next"), "")

		b := browserFrom(r.Context())
		if b.LoginLimiter != nil && !b.LoginLimiter.Allow() {
			s.renderLoginError(w, r, http.StatusTooManyRequests, messageTooManyAttempts, email, next, nil)
			return
		}

		if email == "" || password == "" {
			s.renderLoginError(w, r, http.StatusUnprocessableEntity, "Email and password are required", email, next, nil)
			return
		}

		if err := b.Session.Login(r.Context(), email, password); err != nil {
			log.Debug().Err(err).Str("email", email).Msg("Login failed")
			s.renderLoginError(w, r, statusFor(err), gateway.UserMessage(err), email, next, gateway.FieldErrors(err))
			return
		}

		role := b.Session.Snapshot().Role()
		redirectSuccess(w, r, s.paths.AfterLogin(role, next))
	}
}

// renderLoginError shows the login page again with the backend's message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, status int, errorMsg, email, next string, fields map[string][]string) {
	data := s.newPageData(r, "Sign in")
	data.Error = errorMsg
	data.Fields = fields
	data.Next = next
	data.Form = map[string]string{"email": email}
	s.pages.render(w, status, "login.html", data)
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if snapshot := snapshotFrom(r.Context()); snapshot.Authenticated() {
			redirectSuccess(w, r, s.paths.Landing(snapshot.Role()))
			return
		}
		s.pages.render(w, http.StatusOK, "register.html", s.newPageData(r, "Create account"))
	}
}

// RegisterSubmissionHandler creates an account and signs it in
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(r.FormValue("name"))
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		data := s.newPageData(r, "Create account")
		data.Form = map[string]string{"name": name, "email": email}

		b := browserFrom(r.Context())
		if b.LoginLimiter != nil && !b.LoginLimiter.Allow() {
			data.Error = messageTooManyAttempts
			s.pages.render(w, http.StatusTooManyRequests, "register.html", data)
			return
		}

		if password != r.FormValue("password_confirmation") {
			data.Error = gateway.MessageInvalidInput
			data.Fields = map[string][]string{"password_confirmation": {"The passwords do not match."}}
			s.pages.render(w, http.StatusUnprocessableEntity, "register.html", data)
			return
		}

		if err := b.Session.Register(r.Context(), name, email, password); err != nil {
			data.Error = gateway.UserMessage(err)
			data.Fields = gateway.FieldErrors(err)
			s.pages.render(w, statusFor(err), "register.html", data)
			return
		}

		redirectSuccess(w, r, s.paths.Landing(b.Session.Snapshot().Role()))
	}
}

// LogoutHandler ends the session locally whatever the backend says
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		browserFrom(r.Context()).Session.Logout(r.Context())
		redirectSuccess(w, r, s.paths.Login)
	}
}
