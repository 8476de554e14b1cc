package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/moodify/internal/playlist"
)

// Profile is the signed-in user's public profile.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Profile returns the current user's profile.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var user *spotify.PrivateUser
	err := c.read(ctx, func() error {
		var err error
		user, err = c.api.CurrentUser(ctx)
		return err
	})
	if err != nil {
		return Profile{}, wrap("getting current user", err)
	}

	p := Profile{ID: user.ID, DisplayName: user.DisplayName}
	if len(user.Images) > 0 {
		p.AvatarURL = user.Images[0].URL
	}
	return p, nil
}

// TopArtists returns the user's medium-term top artists with their genres.
func (c *Client) TopArtists(ctx context.Context, limit int) ([]playlist.ArtistProfile, error) {
	var page *spotify.FullArtistPage
	err := c.read(ctx, func() error {
		var err error
		page, err = c.api.CurrentUsersTopArtists(ctx, spotify.Limit(limit), spotify.Timerange(spotify.MediumTermRange))
		return err
	})
	if err != nil {
		return nil, wrap("getting top artists", err)
	}

	artists := make([]playlist.ArtistProfile, 0, len(page.Artists))
	for _, a := range page.Artists {
		genres := a.Genres
		if genres == nil {
			genres = []string{}
		}
		artists = append(artists, playlist.ArtistProfile{Name: a.Name, Genres: genres})
	}
	return artists, nil
}
