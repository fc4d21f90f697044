package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
)

// ArtistRepository persists artists. Genres are stored as a JSON array.
type ArtistRepository struct {
	db Querier
}

func NewArtistRepository(db Querier) *ArtistRepository {
	return &ArtistRepository{db: db}
}

func (r *ArtistRepository) Upsert(ctx context.Context, a models.Artist) error {
	genres, err := encodeStrings(a.Genres)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO artists (id, name, genres, popularity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			genres = excluded.genres,
			popularity = excluded.popularity
	`
	if _, err := r.db.ExecContext(ctx, query, a.ID, a.Name, genres, a.Popularity); err != nil {
		return fmt.Errorf("failed to upsert artist %s: %w", a.ID, err)
	}
	return nil
}

// List returns all artists ordered by name.
func (r *ArtistRepository) List(ctx context.Context) ([]models.Artist, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, genres, popularity FROM artists ORDER BY name COLLATE NOCASE ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		var a models.Artist
		var genres string
		if err := rows.Scan(&a.ID, &a.Name, &genres, &a.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		if a.Genres, err = decodeStrings(genres); err != nil {
			return nil, fmt.Errorf("artist %s: %w", a.ID, err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return artists, nil
}

func (r *ArtistRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM artists"); err != nil {
		return fmt.Errorf("failed to clear artists: %w", err)
	}
	return nil
}
