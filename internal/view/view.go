// Package view renders the catalog's HTML pages.
//
// Each page is parsed together with the shared layout into its own template
// set, so pages can define the same block names without clashing.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/validation"
)

//go:embed templates/*.html
var embedded embed.FS

// Page names.
const (
	PageHome     = "home"
	PageCategory = "category"
	PageBook     = "book"
	PageNew      = "new"
	PageEdit     = "edit"
	PageDelete   = "delete"
	PageLogin    = "login"
	PageError    = "error"
)

var pageNames = []string{PageHome, PageCategory, PageBook, PageNew, PageEdit, PageDelete, PageLogin, PageError}

// shared are parsed into every page set.
var shared = []string{"base.html", "form_fields.html"}

// Page is the data every template receives.
type Page struct {
	Session *domain.WebSession
	Flashes []string

	Categories []*domain.Category
	Category   *domain.Category
	Books      []domain.BookDetail
	Book       *domain.BookDetail
	Owns       bool

	Form        map[string]string
	FieldErrors validation.FieldErrors

	State    string
	ClientID string

	Error *ErrorView
}

// Options configures the renderer.
type Options struct {
	// Dir, when set, loads templates from disk instead of the embedded copy.
	Dir string
}

// Renderer executes page templates.
type Renderer struct {
	source fs.FS
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New parses all pages.
func New(opts Options, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var source fs.FS
	if opts.Dir != "" {
		source = os.DirFS(opts.Dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		source = sub
	}

	r := &Renderer{source: source, dir: opts.Dir, logger: logger}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses every page. On failure the previous set stays in use.
func (r *Renderer) Reload() error {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		files := append(append([]string(nil), shared...), name+".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(r.source, files...)
		if err != nil {
			return fmt.Errorf("parse %s page: %w", name, err)
		}
		pages[name] = t
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

// Render writes page with the given status. The page is executed into a
// buffer first so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data *Page) {
	r.mu.RLock()
	t, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error("unknown page", "page", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderError renders the error page matching err's code.
func (r *Renderer) RenderError(w http.ResponseWriter, data *Page, err error) {
	ev := ErrorFor(err)
	data.Error = &ev
	r.Render(w, ev.Status, PageError, data)
}

var funcs = template.FuncMap{
	"categoryURL": func(c any) string {
		switch v := c.(type) {
		case domain.Category:
			return CategoryURL(v.Slug)
		case *domain.Category:
			if v != nil {
				return CategoryURL(v.Slug)
			}
		}
		return "/"
	},
	"bookURL": func(d any) string {
		switch v := d.(type) {
		case domain.BookDetail:
			return BookURL(v.Category.Slug, v.Book.Slug)
		case *domain.BookDetail:
			if v != nil {
				return BookURL(v.Category.Slug, v.Book.Slug)
			}
		}
		return "/"
	},
}

// CategoryURL is the category listing path.
func CategoryURL(categorySlug string) string {
	return "/tech/" + categorySlug
}

// BookURL is the book page path.
func BookURL(categorySlug, bookSlug string) string {
	return "/tech/" + categorySlug + "/" + bookSlug
}
