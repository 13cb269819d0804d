package server

import (
	"net/http"

	"github.com/jrsteele09/go-hr-console/gateway"
	"github.com/jrsteele09/go-hr-console/hr"
	errs "github.com/jrsteele09/go-hr-console/internal/errors"
	"github.com/jrsteele09/go-hr-console/resource"
	"github.com/rs/zerolog/log"
)

// statusFor maps a backend failure onto the status of the rendered page
func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errs.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errs.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errs.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrTransport), errs.Is(err, errs.ErrServer), errs.Is(err, errs.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// screenFor resolves the {screen} segment for an area. Admin-only screens are
// not reachable from the employee area.
func screenFor(r *http.Request, area string) (hr.Screen, bool) {
	screen, ok := hr.Lookup(r.PathValue("screen"))
	if !ok {
		return hr.Screen{}, false
	}
	if area == areaEmployee && screen.Role != "" {
		return hr.Screen{}, false
	}
	return screen, true
}

// mountScreen creates the synchronizer backing one rendering of a screen.
// The caller must Close it when the handler returns.
func mountScreen(r *http.Request, screen hr.Screen) (*resource.Synchronizer[hr.Record], error) {
	return resource.New[hr.Record](browserFrom(r.Context()).API, screen.Endpoint,
		resource.WithLogger(log.With().Str("screen", screen.Name).Logger()))
}

func (s *Server) screenPage(r *http.Request, area string, screen hr.Screen, items []hr.Record) PageData {
	data := s.newPageData(r, screen.Title)
	data.Area = area
	data.Screen = screen
	data.Items = items
	return data
}

// ResourceListHandler renders a screen's collection
func (s *Server) ResourceListHandler(area string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := screenFor(r, area)
		if !ok {
			http.NotFound(w, r)
			return
		}
		items, err := mountScreen(r, screen)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer items.Close()

		data := s.screenPage(r, area, screen, nil)
		status := http.StatusOK
		if err := items.List(r.Context()); err != nil {
			if redirectForced(w, r) {
				return
			}
			status = statusFor(err)
			data.Error = gateway.UserMessage(err)
		}
		data.Items = items.Items()
		s.pages.render(w, status, "resource.html", data)
	}
}

// ResourceCreateHandler submits a new item from the screen's form
func (s *Server) ResourceCreateHandler(area string) http.HandlerFunc {
	return s.mutationHandler(area, "resource.html", "created", func(r *http.Request, items *resource.Synchronizer[hr.Record], payload hr.Record) error {
		return items.Create(r.Context(), payload)
	})
}

// ResourceUpdateHandler submits the edit form of one item
func (s *Server) ResourceUpdateHandler(area string) http.HandlerFunc {
	return s.mutationHandler(area, "resource_edit.html", "updated", func(r *http.Request, items *resource.Synchronizer[hr.Record], payload hr.Record) error {
		return items.Update(r.Context(), r.PathValue("id"), payload)
	})
}

// ResourceDeleteHandler removes one item
func (s *Server) ResourceDeleteHandler(area string) http.HandlerFunc {
	return s.mutationHandler(area, "resource.html", "deleted", func(r *http.Request, items *resource.Synchronizer[hr.Record], _ hr.Record) error {
		return items.Remove(r.Context(), r.PathValue("id"))
	})
}

type mutation func(r *http.Request, items *resource.Synchronizer[hr.Record], payload hr.Record) error

// mutationHandler runs one write through the screen's synchronizer. Success
// redirects back to the list with "<Title> <verb>"; failure re-renders the
// form with the backend's message and field errors.
func (s *Server) mutationHandler(area, failurePage, verb string, mutate mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := screenFor(r, area)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		items, err := mountScreen(r, screen)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer items.Close()

		payload := screen.RecordFromForm(r.PostForm.Get)
		listPath := area + "/" + screen.Name

		err = mutate(r, items, payload)
		if err == nil {
			redirectSuccess(w, r, withQuery(listPath, "notice", screen.Title+" "+verb))
			return
		}
		if redirectForced(w, r) {
			return
		}
		var apiErr *gateway.Error
		if errs.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			log.Debug().Str("screen", screen.Name).Strs("fields", apiErr.FieldNames()).Msg("Backend rejected submitted values")
		}

		data := s.screenPage(r, area, screen, nil)
		data.Error = gateway.UserMessage(err)
		data.Fields = gateway.FieldErrors(err)
		data.Form = formValues(screen, r)
		data.Item = hr.Record{"id": r.PathValue("id")}

		if failurePage == "resource.html" {
			// The write did not take effect, show the list as the backend has it
			if listErr := items.List(r.Context()); listErr != nil && redirectForced(w, r) {
				return
			}
			data.Items = items.Items()
		}
		s.pages.render(w, statusFor(err), failurePage, data)
	}
}

// ResourceEditHandler renders the edit form of one item
func (s *Server) ResourceEditHandler(area string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := screenFor(r, area)
		if !ok {
			http.NotFound(w, r)
			return
		}
		items, err := mountScreen(r, screen)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer items.Close()

		item, err := items.Find(r.Context(), r.PathValue("id"))
		if err != nil {
			if redirectForced(w, r) {
				return
			}
			redirectWithError(w, r, area+"/"+screen.Name, gateway.UserMessage(err))
			return
		}

		data := s.screenPage(r, area, screen, nil)
		data.Item = item
		data.Form = make(map[string]string, len(screen.Fields))
		for _, f := range screen.Fields {
			data.Form[f.Name] = item.String(f.Name)
		}
		s.pages.render(w, http.StatusOK, "resource_edit.html", data)
	}
}

func formValues(screen hr.Screen, r *http.Request) map[string]string {
	values := make(map[string]string, len(screen.Fields))
	for _, f := range screen.Fields {
		values[f.Name] = r.PostForm.Get(f.Name)
	}
	return values
}
