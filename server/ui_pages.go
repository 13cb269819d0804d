package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-hr-console/hr"
	"github.com/jrsteele09/go-hr-console/users"
)

// menuItem is one entry of the navigation bar
type menuItem struct {
	Title  string
	Path   string
	Active bool
}

// PageData is the template model shared by every console page
type PageData struct {
	AppName  string
	Title    string
	Path     string
	Identity *users.Identity
	Profile  *users.Profile
	Menu     []menuItem
	Error    string
	Notice   string
	Warning  string
	Fields   map[string][]string // Field errors from the backend
	Form     map[string]string   // Submitted values echoed back
	Next     string

	// Resource screens
	Area   string
	Screen hr.Screen
	Items  []hr.Record
	Item   hr.Record

	// Employee dashboard
	Tasks         []hr.Task
	Announcements []hr.Announcement
}

// newPageData fills the fields every page needs from the request
func (s *Server) newPageData(r *http.Request, title string) PageData {
	snapshot := snapshotFrom(r.Context())
	data := PageData{
		AppName:  s.config.GetAppName(),
		Title:    title,
		Path:     r.URL.Path,
		Identity: snapshot.Identity,
		Profile:  snapshot.Profile,
		Error:    r.URL.Query().Get("error"),
		Notice:   r.URL.Query().Get("notice"),
	}
	if snapshot.Authenticated() {
		data.Menu = s.menuFor(snapshot.Role(), r.URL.Path)
		if !persistent(r.Context()) {
			data.Warning = messageNotPersistent
		}
	}
	return data
}

const messageNotPersistent = "Your sign-in could not be saved. You will need to sign in again after a restart."

// persistent reports whether the visitor's credentials reached storage
func persistent(ctx context.Context) bool {
	if b := browserFrom(ctx); b != nil {
		return b.Store.Persistent()
	}
	return false
}

func (s *Server) menuFor(role users.Role, current string) []menuItem {
	area := areaEmployee
	if role == users.RoleAdmin {
		area = areaAdmin
	}

	landing := s.paths.Landing(role)
	menu := []menuItem{{Title: "Dashboard", Path: landing, Active: current == landing}}
	for _, screen := range hr.ForRole(role) {
		path := area + "/" + screen.Name
		menu = append(menu, menuItem{Title: screen.Title, Path: path, Active: current == path})
	}
	return menu
}
