package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles saved playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Create records a playlist saved to Spotify.
func (r *PlaylistRepository) Create(ctx context.Context, p *Playlist) error {
	query := `
		INSERT INTO playlists (id, user_id, name, mood, url, track_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Mood,
		p.URL,
		p.TrackCount,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// ListForUser returns the user's saved playlists, newest first.
func (r *PlaylistRepository) ListForUser(ctx context.Context, userID string) ([]Playlist, error) {
	query := `
		SELECT id, user_id, name, mood, url, track_count, created_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}

	playlists, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Playlist, error) {
		var p Playlist
		err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Mood, &p.URL, &p.TrackCount, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning playlists: %w", err)
	}
	return playlists, nil
}
