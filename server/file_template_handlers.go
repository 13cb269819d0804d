package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hr-console/hr"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"field": func(r hr.Record, name string) string {
		return r.String(name)
	},
	"firstError": func(fields map[string][]string, name string) string {
		if msgs := fields[name]; len(msgs) > 0 {
			return msgs[0]
		}
		return ""
	},
	"title": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), "layout.html", name)
}

// pages holds every parsed page template
type pages struct {
	byName map[string]*template.Template
}

func parsePages() (*pages, error) {
	names := []string{
		"login.html",
		"register.html",
		"admin_dashboard.html",
		"employee_dashboard.html",
		"resource.html",
		"resource_edit.html",
	}
	p := &pages{byName: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

// render writes a page inside the layout
func (p *pages) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := p.byName[name]
	if !ok {
		http.Error(w, "Unknown page", http.StatusInternalServerError)
		return
	}

	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}
