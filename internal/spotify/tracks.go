package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/moodify/internal/playlist"
)

// Search returns up to limit tracks matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]playlist.Track, error) {
	var result *spotify.SearchResult
	err := c.read(ctx, func() error {
		var err error
		result, err = c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
		return err
	})
	if err != nil {
		return nil, wrap("searching tracks", err)
	}

	tracks := []playlist.Track{}
	if result.Tracks != nil {
		for _, t := range result.Tracks.Tracks {
			tracks = append(tracks, convertTrack(t.SimpleTrack))
		}
	}
	return tracks, nil
}

// Recommend returns tracks near the requested audio feature targets.
func (c *Client) Recommend(ctx context.Context, params playlist.RecommendationParams) ([]playlist.Track, error) {
	seeds := spotify.Seeds{Genres: params.SeedGenres}
	for _, id := range params.SeedArtistIDs {
		seeds.Artists = append(seeds.Artists, spotify.ID(id))
	}

	attrs := spotify.NewTrackAttributes()
	if params.TargetValence != nil {
		attrs = attrs.TargetValence(*params.TargetValence)
	}
	if params.TargetEnergy != nil {
		attrs = attrs.TargetEnergy(*params.TargetEnergy)
	}
	if params.TargetDanceability != nil {
		attrs = attrs.TargetDanceability(*params.TargetDanceability)
	}

	opts := []spotify.RequestOption{spotify.Limit(params.Limit)}
	if params.Market != "" {
		opts = append(opts, spotify.Market(params.Market))
	}

	var recs *spotify.Recommendations
	err := c.read(ctx, func() error {
		var err error
		recs, err = c.api.GetRecommendations(ctx, seeds, attrs, opts...)
		return err
	})
	if err != nil {
		return nil, wrap("getting recommendations", err)
	}

	tracks := make([]playlist.Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// TopTracks returns the user's medium-term top tracks.
func (c *Client) TopTracks(ctx context.Context, limit int) ([]playlist.Track, error) {
	var page *spotify.FullTrackPage
	err := c.read(ctx, func() error {
		var err error
		page, err = c.api.CurrentUsersTopTracks(ctx, spotify.Limit(limit), spotify.Timerange(spotify.MediumTermRange))
		return err
	})
	if err != nil {
		return nil, wrap("getting top tracks", err)
	}

	tracks := make([]playlist.Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		tracks = append(tracks, convertTrack(t.SimpleTrack))
	}
	return tracks, nil
}

// convertTrack converts a Spotify SimpleTrack to a playlist.Track.
func convertTrack(t spotify.SimpleTrack) playlist.Track {
	artists := make([]playlist.Artist, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = playlist.Artist{ID: a.ID.String(), Name: a.Name}
	}

	return playlist.Track{
		ID:              t.ID.String(),
		Name:            t.Name,
		Artists:         artists,
		DurationSeconds: int(t.Duration) / 1000,
		PreviewURL:      t.PreviewURL,
		URI:             string(t.URI),
	}
}
