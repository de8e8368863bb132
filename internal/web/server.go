// Package web serves the browser interface: a URL form, the results grid and
// the /api proxy the grid's links point at.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/config"
	"github.com/five82/pixgrab/internal/locale"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/monitoring"
	"github.com/five82/pixgrab/internal/render"
	"github.com/five82/pixgrab/internal/state"
	"github.com/five82/pixgrab/internal/submit"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const (
	shutdownTimeout = 5 * time.Second
	maxFormBytes    = 16 << 10
)

// Options configures a Server.
type Options struct {
	Addr string
	// Processor performs submissions, normally a *backend.Client.
	Processor backend.Processor
	// PublicBase is the collaborator base address as seen by the browser,
	// e.g. "/api". Empty derives http://{request hostname}/api per request.
	PublicBase string
	// Proxy, when set, is mounted at config.ProxyPrefix.
	Proxy         http.Handler
	Metrics       *monitoring.Metrics
	Logger        *logger.Logger
	Timeout       time.Duration
	DefaultLocale string
}

// Server is the pixgrab web interface.
type Server struct {
	opts    Options
	log     *logger.Logger
	handler http.Handler
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	s := &Server{opts: opts, log: opts.Logger}
	if s.log == nil {
		s.log = logger.Nop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			s.log.Error().Err(err).Msg("unable to write healthcheck")
		}
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	if opts.Proxy != nil {
		mux.Handle(config.ProxyPrefix+"/", opts.Proxy)
	}
	s.handler = mux
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("pixgrab web interface available")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		s.log.Info().Msg("server stopped")
		return nil
	case err := <-serverErr:
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
}

type pageData struct {
	URL     string
	Locale  string
	Status  string
	Message string
	Done    bool
	View    render.View
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{
		Locale: locale.FromAcceptLanguage(r.Header.Get("Accept-Language"), s.opts.DefaultLocale),
		Status: state.Idle.String(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	loc := locale.Normalize(r.PostFormValue("locale"))
	if loc == "" {
		loc = locale.FromAcceptLanguage(r.Header.Get("Accept-Language"), s.opts.DefaultLocale)
	}
	pageURL := strings.TrimSpace(r.PostFormValue("url"))

	// Each request gets its own controller and store.
	controller := submit.NewController(s.opts.Processor, backend.NewLinks(s.publicBase(r)), nil,
		submit.WithTimeout(s.opts.Timeout),
		submit.WithMetrics(s.opts.Metrics),
		submit.WithLogger(s.log),
	)
	sub := controller.Submit(r.Context(), pageURL, loc)
	if r.Context().Err() != nil {
		return
	}

	data := pageData{
		URL:     sub.URL,
		Locale:  loc,
		Status:  sub.Status.String(),
		Message: sub.Message,
		Done:    sub.Status == state.Success,
	}
	if sub.Status == state.Success {
		data.View = render.Render(sub.Images, sub.ArchiveURL)
	}
	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) publicBase(r *http.Request) string {
	if s.opts.PublicBase != "" {
		return s.opts.PublicBase
	}
	return config.BaseFromHost(r.Host)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("render page failed")
	}
}
