package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/robertmeta/badge-cli/model"
)

// ListFavorites retrieves all favorites in no particular order.
func (s *Store) ListFavorites(ctx context.Context) ([]model.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, app_id, name, image_url, is_foil FROM favorites")
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []model.Favorite
	for rows.Next() {
		var f model.Favorite
		var name, imageURL sql.NullString
		var isFoil int
		if err := rows.Scan(&f.ID, &f.AppID, &name, &imageURL, &isFoil); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		f.Name = name.String
		f.ImageURL = imageURL.String
		f.IsFoil = intToBool(isFoil)
		favorites = append(favorites, f)
	}

	return favorites, rows.Err()
}

// ToggleFavorite removes the favorite with f's id if it exists, otherwise
// inserts f. It reports whether f is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, f model.Favorite) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	f.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM favorites WHERE id = ?", f.ID).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO favorites (id, app_id, name, image_url, is_foil) VALUES (?, ?, ?, ?, ?)",
			f.ID, f.AppID, f.Name, f.ImageURL, boolToInt(f.IsFoil),
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert favorite: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("failed to look up favorite: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", f.ID); err != nil {
			return false, fmt.Errorf("failed to delete favorite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit favorite: %w", err)
	}

	return exists == 0, nil
}

// UpsertFavorites writes all favorites in one transaction, overwriting
// entries with the same id. Existing entries not in favs are kept.
func (s *Store) UpsertFavorites(ctx context.Context, favs []model.Favorite) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO favorites (id, app_id, name, image_url, is_foil) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			app_id = excluded.app_id,
			name = excluded.name,
			image_url = excluded.image_url,
			is_foil = excluded.is_foil`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare favorite upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range favs {
		if err := f.Validate(); err != nil {
			return 0, err
		}
		f.Normalize()
		if _, err := stmt.ExecContext(ctx, f.ID, f.AppID, f.Name, f.ImageURL, boolToInt(f.IsFoil)); err != nil {
			return 0, fmt.Errorf("failed to upsert favorite %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit favorites: %w", err)
	}

	return len(favs), nil
}
