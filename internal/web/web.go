// Package web serves the rendered timeline views and a small JSON API.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"timelineview/internal/config"
	appLog "timelineview/internal/log"
	"timelineview/internal/render"
	"timelineview/internal/source"
	"timelineview/internal/view"
)

//go:embed templates
var templates embed.FS

var (
	pageTmpl  = template.Must(template.ParseFS(templates, "templates/page.html.tmpl"))
	indexTmpl = template.Must(template.ParseFS(templates, "templates/index.html.tmpl"))
)

// Server exposes the mounted views over HTTP.
type Server struct {
	cfg      *config.Config
	registry *view.Registry
	pipeline *render.Pipeline
	mux      *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, registry *view.Registry, pipeline *render.Pipeline) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		pipeline: pipeline,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Start runs the HTTP server until ctx is done, then shuts it down.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always exposed without auth.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="timelineview", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/{$}", s.handleIndex)
	s.mux.HandleFunc("/view/{id}", s.handleView)
	s.mux.HandleFunc("/api/views", s.handleViews)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// indexEntry is one row of the index page. Link is the escaped /view path
// segment for the view.
type indexEntry struct {
	ID      string
	Link    string
	Doc     string
	Mounted bool
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	views := s.registry.List()
	entries := make([]indexEntry, 0, len(views))
	for _, v := range views {
		entries = append(entries, indexEntry{
			ID:      v.ID(),
			Link:    url.PathEscape(v.ID()),
			Doc:     v.Doc(),
			Mounted: v.Container().Mounted(),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, entries); err != nil {
		appLog.Error("index template execution failed", err)
	}
}

// handleView serves one rendered view as a full page. The id segment is
// path-escaped (doc names may contain slashes, indices follow a '#').
//
// GET /view/notes.md%230
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, ok := s.registry.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	html := v.HTML()
	if html == nil {
		// Mounted views render on attach; an empty container means the
		// first render has not completed (or failed leaving no content).
		// Still marked ready so a preview capture gets the placeholder
		// instead of waiting out its timeout.
		html = []byte(`<div class="timeline-pending" data-ready="true">not rendered yet</div>`)
	}

	data := struct {
		Title string
		Grid  template.HTML
	}{
		Title: v.ID(),
		Grid:  template.HTML(html),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		appLog.Error("page template execution failed", err)
	}
}

// viewDTO is the JSON shape of one mounted view.
type viewDTO struct {
	ID      string `json:"id"`
	Doc     string `json:"doc"`
	Mounted bool   `json:"mounted"`
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	views := s.registry.List()
	dtos := make([]viewDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, viewDTO{
			ID:      v.ID(),
			Doc:     v.Doc(),
			Mounted: v.Container().Mounted(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	View       string     `json:"view"`
	Now        time.Time  `json:"now"`
	WindowFrom string     `json:"window_from"`
	WindowTo   string     `json:"window_to"`
	Events     []eventDTO `json:"events"`
}

// eventDTO is a JSON-friendly projection of one selected record.
type eventDTO struct {
	SourceID string         `json:"source_id"`
	Text     string         `json:"text"`
	Attrs    map[string]any `json:"attrs"`
}

// handleEvents evaluates a view's block without mounting anything and
// returns the selected events and the visible window.
//
// GET /api/events?view=notes.md%230
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("view")
	v, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no such view")
		return
	}

	res, err := s.pipeline.Evaluate(r.Context(), v.Source())
	if err != nil {
		appLog.Error("api events: evaluate failed", err, "view", id)
		if errors.Is(err, source.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "data source unavailable")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := eventsResponse{
		View:   id,
		Now:    res.Now,
		Events: make([]eventDTO, 0, len(res.Events)),
	}
	if len(res.Days) > 0 {
		resp.WindowFrom = res.Days[0].Key()
		resp.WindowTo = res.Days[len(res.Days)-1].Key()
	}
	for _, rec := range res.Events {
		resp.Events = append(resp.Events, eventDTO{
			SourceID: rec.SourceID,
			Text:     rec.Text,
			Attrs:    rec.Attrs,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handlePreview serves the last captured PNG snapshot from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Preview == nil || s.cfg.Preview.Path == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.cfg.Preview.Path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
