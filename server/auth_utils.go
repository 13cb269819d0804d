package server

import (
	"net/http"
	"net/url"
)

const (
	// browserCookieName identifies the visitor's browser profile
	browserCookieName = "console_browser"
	browserCookieAge  = 365 * 24 * 60 * 60
)

func (s *Server) SetBrowserCookie(w http.ResponseWriter, r *http.Request, browserID string) {
	isSecure := s.config.GetCookieSecure() || getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     browserCookieName,
		Value:    browserID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   browserCookieAge,
	})
}

// redirectForced follows a navigation the session forced during the request.
// The login screen is shown as for any visitor, without an error banner.
// It reports false when there was none.
func redirectForced(w http.ResponseWriter, r *http.Request) bool {
	location, ok := forcedNavigation(r.Context())
	if !ok {
		return false
	}
	redirectSuccess(w, r, location)
	return true
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	fullPath := withQuery(path, "error", errorMsg)

	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", fullPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fullPath, http.StatusSeeOther)
}

func withQuery(path, key, value string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
