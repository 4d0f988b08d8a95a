// Package ui renders stored experiments as HTML reports.
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"abkit/domain/core"
	"abkit/internal"
	"abkit/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

const pageSize = 50

// App serves the report pages.
type App struct {
	router    *chi.Mux
	repo      ports.ExperimentRepository
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Repo   ports.ExperimentRepository
	Logger *internal.Logger
}

// NewApp parses the embedded templates and builds the router.
func NewApp(config Config) (*App, error) {
	if config.Repo == nil {
		return nil, fmt.Errorf("ui: repository is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		repo:      config.Repo,
		templates: templates,
		logger:    logger.Named("ui"),
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err == nil {
		a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	a.router.Get("/", a.handleIndex)
	a.router.Get("/{id}", a.handleReport)
	a.router.Get("/{id}/markdown", a.handleMarkdown)
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (a *App) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("writing %s: %v", name, err)
	}
}

func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFoundError(err):
		http.Error(w, "experiment not found", http.StatusNotFound)
	case core.IsInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		a.logger.Error("ui: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, core.NewInvalidInputError("page", "must be a positive integer")
	}
	return page, nil
}
