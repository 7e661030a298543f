// Package web serves the HTML application: accounts, preference search, the
// one-at-a-time recommendation flow and the shortlist.
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

	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/recommend"
	"github.com/your-org/internmatch/internal/session"
	"github.com/your-org/internmatch/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login", "register", "home", "dashboard", "predict", "recommendations", "shortlist"}

// Options wires a Server to its dependencies.
type Options struct {
	Store    store.Store
	Sessions *session.Manager
	// Recommenders supplies the current recommender; it may be swapped at
	// runtime by a recommend.Watcher.
	Recommenders *recommend.Holder
	// ApplicationsDir receives a tracker per apply when WriteTrackers is set.
	ApplicationsDir string
	WriteTrackers   bool
	Logger          *zap.Logger
	Now             func() time.Time
}

// Server is the HTTP front end.
type Server struct {
	store     store.Store
	sessions  *session.Manager
	recs      *recommend.Holder
	appsDir   string
	trackers  bool
	logger    *zap.Logger
	now       func() time.Time
	templates map[string]*template.Template
	handler   http.Handler
}

// New parses the templates and builds the route table.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("web: store is required")
	}
	s := &Server{
		store:    opts.Store,
		sessions: opts.Sessions,
		recs:     opts.Recommenders,
		appsDir:  opts.ApplicationsDir,
		trackers: opts.WriteTrackers,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(opts.Store)
	}
	if s.recs == nil {
		s.recs = recommend.NewHolder(nil)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	if err := s.parseTemplates(); err != nil {
		return nil, err
	}
	s.handler = s.recoverer(s.logRequests(s.withSession(s.routes())))
	return s, nil
}

func (s *Server) parseTemplates() error {
	funcs := template.FuncMap{"join": strings.Join}
	s.templates = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return fmt.Errorf("parse template %s: %w", page, err)
		}
		s.templates[page] = t
	}
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleLoginPage)
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /do_register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /set_language/{code}", s.handleSetLanguage)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.Handle("GET /home", s.requireLogin(s.handleHome))
	mux.Handle("GET /dashboard", s.requireLogin(s.handleDashboard))
	mux.Handle("GET /predict", s.requireLogin(s.handlePredictForm))
	mux.Handle("POST /predict", s.requireLogin(s.handlePredict))
	mux.Handle("POST /next_recommendation", s.requireLogin(s.handleNextRecommendation))
	mux.Handle("GET /shortlist", s.requireLogin(s.handleShortlist))
	mux.Handle("POST /remove_saved", s.requireLogin(s.handleRemoveSaved))
	mux.Handle("POST /apply", s.requireLogin(s.handleApply))

	return mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
