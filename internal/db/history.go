package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository handles mood history database operations.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// Add inserts a history entry, assigning an ID when missing.
func (r *HistoryRepository) Add(ctx context.Context, entry *HistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO mood_history (id, user_id, day, mood, playlist_name, track_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Day,
		entry.Mood,
		entry.PlaylistName,
		entry.TrackCount,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// ListForUser returns the user's most recent history entries, newest first.
func (r *HistoryRepository) ListForUser(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT id, user_id, day, mood, playlist_name, track_count, created_at
		FROM mood_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryEntry, error) {
		var e HistoryEntry
		err := row.Scan(&e.ID, &e.UserID, &e.Day, &e.Mood, &e.PlaylistName, &e.TrackCount, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning history: %w", err)
	}
	return entries, nil
}
