// Package store persists user accounts and their personalization (favorites,
// view history, preferences) in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/r1cksync/skycast/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateFavorite = errors.New("city already in favorites")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	google_id TEXT UNIQUE,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	picture TEXT NOT NULL DEFAULT '',
	temperature_unit TEXT NOT NULL DEFAULT 'celsius',
	theme TEXT NOT NULL DEFAULT 'light',
	created_at DATETIME NOT NULL,
	last_login DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS favorites (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	city TEXT NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	added_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	city TEXT NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	viewed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
CREATE INDEX IF NOT EXISTS idx_history_user ON history(user_id, viewed_at);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open user db: %w", err)
	}
	// modernc sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate user db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertGoogleUser finds or creates the account for a verified Google
// identity: match by google_id first, then link by email, else create.
// LastLogin is refreshed in all three paths.
func (s *Store) UpsertGoogleUser(ctx context.Context, googleID, email, name, picture string) (models.User, error) {
	now := time.Now().UTC()

	user, err := s.getUserBy(ctx, "google_id", googleID)
	if err == nil {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET last_login = ? WHERE id = ?`, now, user.ID); err != nil {
			return models.User{}, fmt.Errorf("update last login: %w", err)
		}
		user.LastLogin = now
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	user, err = s.getUserBy(ctx, "email", email)
	if err == nil {
		// Link the Google identity to the existing account.
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET google_id = ?, picture = ?, last_login = ? WHERE id = ?`,
			googleID, picture, now, user.ID); err != nil {
			return models.User{}, fmt.Errorf("link google account: %w", err)
		}
		user.GoogleID = googleID
		user.Picture = picture
		user.LastLogin = now
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	prefs := models.DefaultPreferences()
	user = models.User{
		ID:          uuid.New().String(),
		GoogleID:    googleID,
		Email:       email,
		Name:        name,
		Picture:     picture,
		Preferences: prefs,
		CreatedAt:   now,
		LastLogin:   now,
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, google_id, email, name, picture, temperature_unit, theme, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.GoogleID, user.Email, user.Name, user.Picture,
		prefs.TemperatureUnit, prefs.Theme, now, now); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUser returns the account with the given ID, or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Store) getUserBy(ctx context.Context, column, value string) (models.User, error) {
	var (
		u        models.User
		googleID sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, google_id, email, name, picture, temperature_unit, theme, created_at, last_login
		 FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &googleID, &u.Email, &u.Name, &u.Picture,
		&u.Preferences.TemperatureUnit, &u.Preferences.Theme, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by %s: %w", column, err)
	}
	u.GoogleID = googleID.String
	return u, nil
}

// GetPreferences returns a user's preferences.
func (s *Store) GetPreferences(ctx context.Context, userID string) (models.Preferences, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.Preferences{}, err
	}
	return user.Preferences, nil
}

// UpdatePreferences applies the non-nil fields and returns the result. Value
// validation happens at the HTTP boundary.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, unit, theme *string) (models.Preferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return models.Preferences{}, err
	}
	if unit != nil {
		prefs.TemperatureUnit = *unit
	}
	if theme != nil {
		prefs.Theme = *theme
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET temperature_unit = ?, theme = ? WHERE id = ?`,
		prefs.TemperatureUnit, prefs.Theme, userID); err != nil {
		return models.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}
	return prefs, nil
}
