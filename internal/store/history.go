package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/r1cksync/skycast/internal/models"
)

// historyCap is the maximum number of entries retained per user.
const historyCap = 20

// ListHistory returns a user's most recently viewed cities, newest first,
// capped at limit.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, city, country, lat, lon, viewed_at FROM history
		 WHERE user_id = ? ORDER BY viewed_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := []models.HistoryEntry{}
	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.ID, &h.City, &h.Country, &h.Lat, &h.Lon, &h.ViewedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// AddHistory records a city view. A repeat of the most recent entry refreshes
// its timestamp instead of appending; otherwise a new entry is added and the
// oldest entries beyond the cap are dropped.
func (s *Store) AddHistory(ctx context.Context, userID string, entry models.HistoryEntry) error {
	now := time.Now().UTC()

	var lastID, lastCity, lastCountry string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, city, country FROM history
		 WHERE user_id = ? ORDER BY viewed_at DESC LIMIT 1`, userID,
	).Scan(&lastID, &lastCity, &lastCountry)
	switch {
	case err == nil:
		if lastCity == entry.City && lastCountry == entry.Country {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE history SET viewed_at = ? WHERE id = ?`, now, lastID); err != nil {
				return fmt.Errorf("refresh history entry: %w", err)
			}
			return nil
		}
	case errors.Is(err, sql.ErrNoRows):
		// first entry
	default:
		return fmt.Errorf("read last history entry: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, user_id, city, country, lat, lon, viewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), userID, entry.City, entry.Country, entry.Lat, entry.Lon, now); err != nil {
		return fmt.Errorf("add history entry: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE user_id = ? AND id NOT IN (
			SELECT id FROM history WHERE user_id = ? ORDER BY viewed_at DESC LIMIT ?
		)`, userID, userID, historyCap); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

// ClearHistory removes all of a user's history.
func (s *Store) ClearHistory(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
