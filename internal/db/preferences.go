package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferencesRepository stores one preferences document per user.
type PreferencesRepository struct {
	pool *pgxpool.Pool
}

// Get returns the user's stored preferences, or ErrNotFound.
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*PreferencesDocument, error) {
	query := `SELECT document FROM preferences WHERE user_id = $1`

	var doc PreferencesDocument
	err := r.pool.QueryRow(ctx, query, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}
	return &doc, nil
}

// Put replaces the user's preferences.
func (r *PreferencesRepository) Put(ctx context.Context, userID string, doc PreferencesDocument) error {
	if doc.FavoriteArtists == nil {
		doc.FavoriteArtists = []string{}
	}
	if doc.FavoriteGenres == nil {
		doc.FavoriteGenres = []string{}
	}

	query := `
		INSERT INTO preferences (user_id, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, userID, doc); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
