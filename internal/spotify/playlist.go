package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/moodify/internal/playlist"
)

const maxTracksPerRequest = 100

const trackURIPrefix = "spotify:track:"

// CreatePlaylist creates a private playlist owned by ownerID.
func (c *Client) CreatePlaylist(ctx context.Context, ownerID, name, description string) (playlist.CreatedPlaylist, error) {
	pl, err := c.api.CreatePlaylistForUser(ctx, ownerID, name, description, false, false)
	if err != nil {
		return playlist.CreatedPlaylist{}, wrap("creating playlist", err)
	}

	return playlist.CreatedPlaylist{
		ID:  pl.ID.String(),
		URL: pl.ExternalURLs["spotify"],
	}, nil
}

// AddTracks adds tracks by URI to a playlist, batching large sets.
// Spotify allows max 100 tracks per request.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(uris))
	for i, uri := range uris {
		id, err := trackID(uri)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		batch := ids[i:end]

		if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return wrap(fmt.Sprintf("adding tracks (batch %d-%d)", i+1, end), err)
		}
	}

	return nil
}

// trackID extracts the track ID from a "spotify:track:<id>" URI.
func trackID(uri string) (spotify.ID, error) {
	id, ok := strings.CutPrefix(uri, trackURIPrefix)
	if !ok || id == "" || strings.Contains(id, ":") {
		return "", fmt.Errorf("invalid track URI %q", uri)
	}
	return spotify.ID(id), nil
}
