package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a Spotify user profile.
type User struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated web session.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenType    string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// PreferencesDocument is the stored form of a user's favorite artists and genres.
type PreferencesDocument struct {
	FavoriteArtists []string `json:"favoriteArtists"`
	FavoriteGenres  []string `json:"favoriteGenres"`
}

// HistoryEntry is one row of a user's mood history.
type HistoryEntry struct {
	ID           uuid.UUID
	UserID       string
	Day          time.Time // date only
	Mood         string
	PlaylistName string
	TrackCount   int
	CreatedAt    time.Time
}

// Playlist is a playlist saved to the user's Spotify account.
type Playlist struct {
	ID         string // Spotify playlist ID
	UserID     string
	Name       string
	Mood       string
	URL        string
	TrackCount int
	CreatedAt  time.Time
}
