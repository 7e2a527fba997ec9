// Package server is the HTTP front controller: a form to request a snapshot,
// a preview of the result and a download endpoint for the markup.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/resolve"
)

// ScrapeFailed is the only error text clients see for a failed preview.
const ScrapeFailed = "Something went wrong while scraping the page."

// DownloadName is the attachment name of a downloaded snapshot.
const DownloadName = "offline_page.html"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Snapshotter produces a snapshot for a normalized target URL.
type Snapshotter interface {
	Snapshot(ctx context.Context, target string) (*core.Snapshot, error)
}

// Server routes requests to the snapshot pipeline.
type Server struct {
	snap         Snapshotter
	logger       *slog.Logger
	limiter      *rate.Limiter
	maxFormBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithPreviewLimit allows perSecond previews with the given burst across all
// clients. perSecond <= 0 disables limiting.
func WithPreviewLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMaxFormBytes caps form-encoded request bodies.
func WithMaxFormBytes(n int64) Option {
	return func(s *Server) { s.maxFormBytes = n }
}

// New creates a Server.
func New(snap Snapshotter, opts ...Option) *Server {
	s := &Server{
		snap:         snap,
		logger:       slog.New(slog.DiscardHandler),
		maxFormBytes: 32 << 20,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(maxFormBody(s.maxFormBytes))

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleIndex)
	r.Post("/preview", s.handlePreview)
	r.Post("/download", s.handleDownload)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "index.html", nil)
}

type previewPage struct {
	URL     string
	HTML    string
	Inlined int
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	target, err := resolve.NormalizeTarget(r.PostForm.Get("url"))
	if errors.Is(err, core.ErrEmptyURL) {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}

	snap, err := s.snap.Snapshot(r.Context(), target)
	if err != nil {
		s.logger.Error("preview failed", "url", target, "error", err,
			"request_id", middleware.GetReqID(r.Context()))
		http.Error(w, ScrapeFailed, http.StatusBadRequest)
		return
	}

	s.render(w, "preview.html", previewPage{
		URL:     target,
		HTML:    snap.Markup,
		Inlined: snap.Inlined,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	content, ok := r.PostForm["html_content"]
	if !ok || len(content) == 0 {
		http.Error(w, "html_content is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content[0]))
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
