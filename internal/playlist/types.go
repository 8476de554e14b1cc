// Package playlist turns a mood into a bounded, deduplicated set of tracks and
// assembles it into a named playlist that can be saved to the catalog.
package playlist

import (
	"strings"
	"time"

	"github.com/justestif/moodify/internal/mood"
)

// MaxTracks is the hard upper bound on tracks in a playlist draft.
const MaxTracks = 25

// Artist is a catalog artist credited on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a catalog track. Identity is ID.
type Track struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Artists         []Artist `json:"artists"`
	DurationSeconds int      `json:"duration"`
	PreviewURL      string   `json:"previewUrl,omitempty"` // empty when the catalog has no preview
	URI             string   `json:"uri"`
}

// ArtistNames returns the credited artist names in order.
func (t Track) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}

// ArtistLine returns the artist names joined by ", ".
func (t Track) ArtistLine() string {
	return strings.Join(t.ArtistNames(), ", ")
}

// ArtistProfile is an artist from the user's listening history.
type ArtistProfile struct {
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// Draft is an assembled, not yet saved playlist.
type Draft struct {
	Mood        mood.Mood `json:"mood"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tracks      []Track   `json:"tracks"`
	ColorTag    string    `json:"color"`
}

// URIs returns the catalog URIs of the draft's tracks in order.
func (d Draft) URIs() []string {
	uris := make([]string, len(d.Tracks))
	for i, t := range d.Tracks {
		uris[i] = t.URI
	}
	return uris
}

// CreatedPlaylist is the catalog's answer to a playlist creation request.
type CreatedPlaylist struct {
	ID  string
	URL string
}

// Persisted describes a draft that was saved to the catalog.
type Persisted struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Mood       mood.Mood `json:"mood"`
	TrackCount int       `json:"trackCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RecommendationParams is a feature-targeted recommendation query.
// Nil targets are omitted from the request.
type RecommendationParams struct {
	TargetValence      *float64
	TargetEnergy       *float64
	TargetDanceability *float64
	SeedArtistIDs      []string // at most 2
	SeedGenres         []string // at most 2
	Limit              int
	Market             string
}
