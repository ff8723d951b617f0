package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/r1cksync/skycast/internal/models"
)

// ListFavorites returns a user's saved cities, oldest first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, city, country, lat, lon, added_at FROM favorites
		 WHERE user_id = ? ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.City, &f.Country, &f.Lat, &f.Lon, &f.AddedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// AddFavorite saves a city. Duplicate city+country pairs for the same user
// yield ErrDuplicateFavorite.
func (s *Store) AddFavorite(ctx context.Context, userID string, fav models.Favorite) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND city = ? AND country = ?`,
		userID, fav.City, fav.Country).Scan(&n)
	if err != nil {
		return fmt.Errorf("check favorite: %w", err)
	}
	if n > 0 {
		return ErrDuplicateFavorite
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, city, country, lat, lon, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), userID, fav.City, fav.Country, fav.Lat, fav.Lon, time.Now().UTC()); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a saved city by its ID. Removing an absent ID is not
// an error.
func (s *Store) RemoveFavorite(ctx context.Context, userID, favoriteID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND id = ?`, userID, favoriteID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}
