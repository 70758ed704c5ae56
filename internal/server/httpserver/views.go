package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dmitrijs2005/webportal/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "login", "register", "dashboard", "users", "error"}

// pageData is what every template receives. Unused fields stay zero.
type pageData struct {
	Title    string
	Message  string
	Session  *models.Session
	Accounts []*models.Account
}

type Views struct {
	templates map[string]*template.Template
}

func NewViews() (*Views, error) {
	funcs := template.FuncMap{
		"fmtTime": func(t *time.Time) string {
			if t == nil {
				return "never"
			}
			return t.Format("2006-01-02 15:04")
		},
	}

	v := &Views{templates: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		v.templates[p] = t
	}
	return v, nil
}

// Render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (v *Views) Render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := v.templates[name]
	if !ok {
		http.Error(w, "unknown view "+name, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
