package playlist

import "context"

// Catalog is the music catalog the pipeline queries and saves playlists to.
//
// A successful call with no matches returns an empty slice and a nil error;
// a failed call returns a non-nil error.
type Catalog interface {
	// Search returns up to limit tracks for query. The query accepts
	// field filters such as "artist:Name".
	Search(ctx context.Context, query string, limit int) ([]Track, error)
	Recommend(ctx context.Context, params RecommendationParams) ([]Track, error)
	CreatePlaylist(ctx context.Context, ownerID, name, description string) (CreatedPlaylist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}
