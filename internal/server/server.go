package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TobiSchelling/startracker/internal/export"
	"github.com/TobiSchelling/startracker/internal/history"
	"github.com/TobiSchelling/startracker/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the HTTP server for browsing recorded runs.
type Server struct {
	db     *history.DB
	pages  map[string]*template.Template
	router chi.Router
}

// New creates a new Server.
func New(db *history.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatTime": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
		"duration":   func(d time.Duration) string { return d.Round(time.Second).String() },
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so "title" and "content" blocks
	// don't collide.
	pageNames := []string{"index.html", "run.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/runs/{id}", s.handleRun)
	r.Get("/runs/{id}/report.md", s.handleReportMarkdown)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns(0)
	if err != nil {
		logger.WithError(err).Errorf("Listing runs")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Runs": runs,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.render(w, "run.html", map[string]any{
		"Run": run,
	})
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.Report == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, run.Report)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*history.Run, bool) {
	run, err := s.db.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		logger.WithError(err).Errorf("Loading run")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if run == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return run, true
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logger.Errorf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logger.Errorf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	html, err := export.RenderMarkdown(text)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return html
}

// Serve starts the HTTP server on the given port.
func Serve(db *history.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	logger.Infof("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
