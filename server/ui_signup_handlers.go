package server

import (
	"html"
	"net/http"

	"github.com/jrsteele09/go-hr-console/users"
)

// ValidatePasswordHandler gives the register form live feedback on password
// strength. The backend remains the authority on acceptance.
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		password := r.FormValue("password")
		w.Header().Set("Content-Type", contentTypeHTML)

		if password == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := users.ValidatePasswordStrength(password); err != nil {
			w.Header().Set("HX-Trigger", "passwordInvalid")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`<span class="hint error">` + html.EscapeString(err.Error()) + `</span>`))
			return
		}

		w.Header().Set("HX-Trigger", "passwordValid")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<span class="hint ok">Strong password</span>`))
	}
}
