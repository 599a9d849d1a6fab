// Package views renders the embedded HTML templates.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/labstack/echo/v4"
)

//go:embed templates
var templateFS embed.FS

// Renderer implements echo.Renderer. Every page template is parsed together with
// the base layout and the shared includes.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses all page templates. mediaURL maps a stored image name to
// the URL it is served from.
func NewRenderer(mediaURL func(string) string) (*Renderer, error) {
	if mediaURL == nil {
		mediaURL = func(name string) string { return name }
	}
	funcs := template.FuncMap{
		"media": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("02 Jan 2006 15:04")
		},
		"truncatewords": truncateWords,
	}

	shared, err := fs.Glob(templateFS, "templates/includes/*.html")
	if err != nil {
		return nil, err
	}
	shared = append([]string{"templates/base.html"}, shared...)

	r := &Renderer{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		name := strings.TrimPrefix(path, "templates/")
		if name == "base.html" || strings.HasPrefix(name, "includes/") {
			return nil
		}
		files := append(append([]string{}, shared...), path)
		tpl, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes the named page. Map data gets the current user and CSRF
// token added under "CurrentUser" and "CSRFToken".
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tpl.ExecuteTemplate(w, "base.html", withRequestData(data, c))
}

func withRequestData(data interface{}, c echo.Context) map[string]interface{} {
	out := make(map[string]interface{})
	switch d := data.(type) {
	case echo.Map:
		for k, v := range d {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range d {
			out[k] = v
		}
	case nil:
	default:
		out["Data"] = d
	}
	if c != nil {
		out["CurrentUser"] = middleware.CurrentUser(c)
		out["CSRFToken"], _ = c.Get("csrf").(string)
		out["Path"] = c.Request().URL.Path
	}
	return out
}

func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}
