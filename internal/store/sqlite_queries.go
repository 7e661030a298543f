package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

func (s *SQLite) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{Username: username, PasswordHash: passwordHash, CreatedAt: s.now().UTC().Truncate(time.Millisecond)}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, toMillis(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return User{}, err
	}
	s.logger.Debug("Created user", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *SQLite) FindUserByUsername(ctx context.Context, username string) (User, error) {
	var (
		u       User
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}

func (s *SQLite) SavePreferences(ctx context.Context, p Preferences) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, education, skills, sector, location, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			education = excluded.education,
			skills = excluded.skills,
			sector = excluded.sector,
			location = excluded.location,
			updated_at = excluded.updated_at
	`, p.UserID, p.Education, p.Skills, p.Sector, p.Location, toMillis(s.now()))
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *SQLite) FindPreferences(ctx context.Context, userID int64) (Preferences, error) {
	var (
		p       Preferences
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, education, skills, sector, location, updated_at
		FROM user_preferences WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Education, &p.Skills, &p.Sector, &p.Location, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, ErrNotFound
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("find preferences: %w", err)
	}
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

const shortlistColumns = `id, user_id, internship_id, title, company, sector, location, duration, stipend, created_at`

func scanShortlisted(row interface{ Scan(...any) error }) (ShortlistedInternship, error) {
	var (
		it      ShortlistedInternship
		created int64
	)
	err := row.Scan(&it.ID, &it.UserID, &it.InternshipID, &it.Title, &it.Company,
		&it.Sector, &it.Location, &it.Duration, &it.Stipend, &created)
	it.CreatedAt = fromMillis(created)
	return it, err
}

func (s *SQLite) AddShortlisted(ctx context.Context, item ShortlistedInternship) (ShortlistedInternship, error) {
	if strings.TrimSpace(item.Title) == "" {
		return ShortlistedInternship{}, errors.New("shortlisted internship needs a title")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ShortlistedInternship{}, err
	}
	defer tx.Rollback()

	if item.InternshipID != "" {
		existing, err := scanShortlisted(tx.QueryRowContext(ctx,
			`SELECT `+shortlistColumns+` FROM shortlisted_internships WHERE user_id = ? AND internship_id = ?`,
			item.UserID, item.InternshipID))
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return ShortlistedInternship{}, fmt.Errorf("check shortlist: %w", err)
		}
	}

	item.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO shortlisted_internships
			(user_id, internship_id, title, company, sector, location, duration, stipend, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.UserID, item.InternshipID, item.Title, item.Company, item.Sector,
		item.Location, item.Duration, item.Stipend, toMillis(item.CreatedAt))
	if err != nil {
		return ShortlistedInternship{}, fmt.Errorf("add to shortlist: %w", err)
	}
	if item.ID, err = res.LastInsertId(); err != nil {
		return ShortlistedInternship{}, err
	}
	if err := tx.Commit(); err != nil {
		return ShortlistedInternship{}, err
	}
	return item, nil
}

func (s *SQLite) ListShortlisted(ctx context.Context, userID int64) ([]ShortlistedInternship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shortlistColumns+` FROM shortlisted_internships WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	defer rows.Close()

	var items []ShortlistedInternship
	for rows.Next() {
		it, err := scanShortlisted(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLite) CountShortlisted(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM shortlisted_internships WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count shortlist: %w", err)
	}
	return n, nil
}

func (s *SQLite) RemoveShortlisted(ctx context.Context, userID, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shortlisted_internships WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("remove from shortlist: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLite) SaveSession(ctx context.Context, rec SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, rec.Token, rec.Data, toMillis(rec.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLite) LoadSession(ctx context.Context, token string, now time.Time) (SessionRecord, error) {
	var (
		rec     SessionRecord
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, data, expires_at FROM sessions WHERE token = ? AND expires_at > ?`,
		token, toMillis(now)).Scan(&rec.Token, &rec.Data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("load session: %w", err)
	}
	rec.ExpiresAt = fromMillis(expires)
	return rec, nil
}

func (s *SQLite) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (s *SQLite) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
