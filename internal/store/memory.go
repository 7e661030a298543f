package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Memory is a process-local Store for demos and tests. Nothing survives a
// restart.
type Memory struct {
	mu sync.RWMutex

	now func() time.Time

	users       map[string]User
	nextUserID  int64
	preferences map[int64]Preferences
	shortlist   []ShortlistedInternship
	nextItemID  int64
	sessions    map[string]SessionRecord
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:         time.Now,
		users:       make(map[string]User),
		preferences: make(map[int64]Preferences),
		sessions:    make(map[string]SessionRecord),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return User{}, ErrUserExists
	}
	m.nextUserID++
	u := User{
		ID:           m.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    m.now().UTC().Truncate(time.Millisecond),
	}
	m.users[username] = u
	return u, nil
}

func (m *Memory) FindUserByUsername(ctx context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) SavePreferences(ctx context.Context, p Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = m.now().UTC().Truncate(time.Millisecond)
	m.preferences[p.UserID] = p
	return nil
}

func (m *Memory) FindPreferences(ctx context.Context, userID int64) (Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.preferences[userID]
	if !ok {
		return Preferences{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) AddShortlisted(ctx context.Context, item ShortlistedInternship) (ShortlistedInternship, error) {
	if strings.TrimSpace(item.Title) == "" {
		return ShortlistedInternship{}, errors.New("shortlisted internship needs a title")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.InternshipID != "" {
		for _, it := range m.shortlist {
			if it.UserID == item.UserID && it.InternshipID == item.InternshipID {
				return it, nil
			}
		}
	}
	m.nextItemID++
	item.ID = m.nextItemID
	item.CreatedAt = m.now().UTC().Truncate(time.Millisecond)
	m.shortlist = append(m.shortlist, item)
	return item, nil
}

func (m *Memory) ListShortlisted(ctx context.Context, userID int64) ([]ShortlistedInternship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ShortlistedInternship
	for _, it := range m.shortlist {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Memory) CountShortlisted(ctx context.Context, userID int64) (int, error) {
	items, err := m.ListShortlisted(ctx, userID)
	return len(items), err
}

func (m *Memory) RemoveShortlisted(ctx context.Context, userID, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.shortlist {
		if it.ID == id && it.UserID == userID {
			m.shortlist = append(m.shortlist[:i], m.shortlist[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) SaveSession(ctx context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Data = append([]byte(nil), rec.Data...)
	m.sessions[rec.Token] = rec
	return nil
}

func (m *Memory) LoadSession(ctx context.Context, token string, now time.Time) (SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[token]
	if !ok || !rec.ExpiresAt.After(now) {
		return SessionRecord{}, ErrNotFound
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return rec, nil
}

func (m *Memory) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *Memory) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, rec := range m.sessions {
		if !rec.ExpiresAt.After(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}
