// Package view renders the server-side HTML pages.
// Every page is parsed together with layout.html once, when the Renderer is built.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutFile = "layout.html"

// Renderer executes the embedded page templates
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page
func NewRenderer() (*Renderer, error) {
	return newRenderer(templatesFS, "templates")
}

func newRenderer(fsys fs.FS, dir string) (*Renderer, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == layoutFile {
			continue
		}
		t, err := template.New(layoutFile).Funcs(funcs()).ParseFS(fsys, path.Join(dir, layoutFile), name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", base, err)
		}
		pages[strings.TrimSuffix(base, ".html")] = t
	}

	return &Renderer{pages: pages}, nil
}

// Render writes the named page with the given status.
// The page is rendered into a buffer first so a template error never yields a partial page.
func (v *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a page exists
func (v *Renderer) Has(page string) bool {
	_, ok := v.pages[page]
	return ok
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"year": func() int { return time.Now().Year() },
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
		"join": strings.Join,
	}
}
