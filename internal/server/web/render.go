package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/server/auth"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

//go:embed templates
var templateFS embed.FS

// Renderer writes a named view. Views are paths under templates/ without the
// .html suffix, e.g. "campgrounds/show".
type Renderer interface {
	Render(w io.Writer, view string, data any) error
}

// viewData is what every page template receives.
type viewData struct {
	CurrentUser *models.User
	Flash       *flash
	Page        any
}

// TemplateRenderer renders html/template views wrapped in a shared layout.
type TemplateRenderer struct {
	views map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"canModify": auth.CanModify,
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	return newTemplateRenderer(templateFS)
}

func newTemplateRenderer(fsys fs.FS) (*TemplateRenderer, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	views := make(map[string]*template.Template)

	err = fs.WalkDir(fsys, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == "templates/layout.html" || !strings.HasSuffix(path, ".html") {
			return nil
		}

		t, err := layout.Clone()
		if err != nil {
			return err
		}
		if t, err = t.ParseFS(fsys, path); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		views[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TemplateRenderer{views: views}, nil
}

func (tr *TemplateRenderer) Render(w io.Writer, view string, data any) error {
	t, ok := tr.views[view]
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// render writes view with the given status. Output is buffered so a template
// error still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view string, page any) {
	data := viewData{
		CurrentUser: currentUser(r),
		Flash:       s.popFlash(w, r),
		Page:        page,
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, view, data); err != nil {
		s.logger.Error(r.Context(), "render failed", "view", view, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
