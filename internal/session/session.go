// Package session keeps web session state server side. The browser only holds
// an opaque token cookie; the state is JSON in a store.SessionStore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/store"
)

const (
	DefaultCookieName = "internmatch_session"
	DefaultTTL        = 24 * time.Hour
)

// Flash categories used by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Data is everything persisted for one browser.
type Data struct {
	Username string               `json:"username,omitempty"`
	Lang     string               `json:"lang,omitempty"`
	Current  *catalog.Internship  `json:"current,omitempty"`
	Queue    []catalog.Internship `json:"queue,omitempty"`
	Flashes  []Flash              `json:"flashes,omitempty"`
}

// Session is the per-request view of a browser session.
type Session struct {
	Data

	token    string
	oldToken string
	stored   bool
}

// Token returns the session token; empty for a session never saved.
func (s *Session) Token() string { return s.token }

// LoggedIn reports whether a username is attached.
func (s *Session) LoggedIn() bool { return s.Username != "" }

// SetUser attaches username and rotates the token. Switching to a different
// user drops the previous user's recommendations; language and flashes stay.
func (s *Session) SetUser(username string) {
	if username != s.Username {
		s.Current, s.Queue = nil, nil
	}
	s.Username = username
	if s.stored && s.oldToken == "" {
		s.oldToken = s.token
	}
	s.token = ""
}

// SetLang records the chosen language code.
func (s *Session) SetLang(code string) {
	s.Lang = code
}

// SetQueue stores the first recommendation as current and the rest as the
// queue.
func (s *Session) SetQueue(items []catalog.Internship) {
	s.Current, s.Queue = nil, nil
	if len(items) > 0 {
		first := items[0]
		s.Current = &first
		s.Queue = append([]catalog.Internship(nil), items[1:]...)
	}
}

// Advance moves to the next queued recommendation and returns it, or nil when
// the queue is exhausted.
func (s *Session) Advance() *catalog.Internship {
	if len(s.Queue) == 0 {
		s.Current = nil
		s.Queue = nil
		return nil
	}
	next := s.Queue[0]
	s.Current = &next
	s.Queue = s.Queue[1:]
	if len(s.Queue) == 0 {
		s.Queue = nil
	}
	return s.Current
}

// AddFlash queues a message for the next page.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns and clears queued messages.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// Clear drops all state, language included.
func (s *Session) Clear() {
	s.Data = Data{}
}

func (s *Session) empty() bool {
	return s.Username == "" && s.Lang == "" && s.Current == nil &&
		len(s.Queue) == 0 && len(s.Flashes) == 0
}

// Manager loads and saves sessions.
type Manager struct {
	store      store.SessionStore
	clock      clock.Clock
	ttl        time.Duration
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

func WithClock(c clock.Clock) Option { return func(m *Manager) { m.clock = c } }
func WithTTL(ttl time.Duration) Option { return func(m *Manager) { m.ttl = ttl } }
func WithCookieName(name string) Option { return func(m *Manager) { m.cookieName = name } }
func WithSecureCookies(secure bool) Option { return func(m *Manager) { m.secure = secure } }
func WithLogger(logger *zap.Logger) Option { return func(m *Manager) { m.logger = logger } }

// NewManager returns a Manager backed by st.
func NewManager(st store.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:      st,
		clock:      clock.New(),
		ttl:        DefaultTTL,
		cookieName: DefaultCookieName,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	return m
}

// CookieName returns the name of the token cookie.
func (m *Manager) CookieName() string { return m.cookieName }

// Load returns the session for r. A missing, unknown or expired token yields
// a fresh empty session; only store failures are errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return &Session{}, nil
	}
	rec, err := m.store.LoadSession(ctx, c.Value, m.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s := &Session{token: rec.Token, stored: true}
	if err := json.Unmarshal(rec.Data, &s.Data); err != nil {
		m.logger.Warn("Discarding unreadable session", zap.Error(err))
		return &Session{token: rec.Token, stored: true}, nil
	}
	return s, nil
}

// Save persists s and refreshes the cookie. Expiry slides on every save.
// Empty sessions that were never stored are not written.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.oldToken != "" {
		if err := m.store.DeleteSession(ctx, s.oldToken); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		s.oldToken = ""
	}
	if !s.stored && s.empty() {
		return nil
	}
	if s.token == "" {
		s.token = uuid.NewString()
	}

	data, err := json.Marshal(s.Data)
	if err != nil {
		return err
	}
	expires := m.clock.Now().Add(m.ttl)
	if err := m.store.SaveSession(ctx, store.SessionRecord{Token: s.token, Data: data, ExpiresAt: expires}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.stored = true

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Sweep deletes expired sessions.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.clock.Now())
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	t := m.clock.Ticker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				m.logger.Warn("Session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				m.logger.Debug("Swept expired sessions", zap.Int64("count", n))
			}
		}
	}
}
