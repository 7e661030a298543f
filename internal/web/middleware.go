package web

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/session"
	"github.com/your-org/internmatch/internal/store"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	userKey
)

func sessionFrom(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(sessionKey).(*session.Session); ok {
		return s
	}
	return &session.Session{}
}

func userFrom(ctx context.Context) store.User {
	u, _ := ctx.Value(userKey).(store.User)
	return u
}

// responseWriter records the status and runs beforeHeader once, right before
// the header is sent.
type responseWriter struct {
	http.ResponseWriter
	status       int
	wroteHeader  bool
	beforeHeader func()
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	if rw.beforeHeader != nil {
		rw.beforeHeader()
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// recoverer turns handler panics into a logged 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.logger.Error("Handler panicked",
					zap.Any("panic", p),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Info("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", s.now().Sub(start)),
			zap.String("remote", r.RemoteAddr))
	})
}

// withSession loads the session into the request context and saves it just
// before the response header goes out, so handlers only mutate it.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Load(r.Context(), r)
		if err != nil {
			s.logger.Error("Cannot load session", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		rw.beforeHeader = func() {
			if err := s.sessions.Save(r.Context(), rw.ResponseWriter, sess); err != nil {
				s.logger.Error("Cannot save session", zap.Error(err))
			}
		}
		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		if !rw.wroteHeader {
			rw.WriteHeader(http.StatusOK)
		}
	})
}

// requireLogin redirects anonymous visitors, and sessions whose account is
// gone, to the login page.
func (s *Server) requireLogin(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		if !sess.LoggedIn() {
			s.loginRedirect(w, r, sess)
			return
		}
		user, err := s.store.FindUserByUsername(r.Context(), sess.Username)
		if errors.Is(err, store.ErrNotFound) {
			sess.Clear()
			s.loginRedirect(w, r, sess)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func (s *Server) loginRedirect(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.AddFlash(session.FlashInfo, "Please log in to access this page.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
