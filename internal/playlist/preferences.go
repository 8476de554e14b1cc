package playlist

import (
	"slices"
	"strings"
)

const (
	derivedArtistCount = 5
	derivedGenreWindow = 5
)

// Preferences holds the listener's favorite artists and genres.
// Artists keep insertion order without duplicates; genres behave as a set
// that remembers insertion order.
type Preferences struct {
	FavoriteArtists []string `json:"favoriteArtists"`
	FavoriteGenres  []string `json:"favoriteGenres"`
}

// IsEmpty reports whether no artists and no genres are set.
func (p *Preferences) IsEmpty() bool {
	return p == nil || (len(p.FavoriteArtists) == 0 && len(p.FavoriteGenres) == 0)
}

// AddArtist appends a trimmed artist name. Blank and duplicate names are ignored.
func (p *Preferences) AddArtist(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(p.FavoriteArtists, name) {
		return false
	}
	p.FavoriteArtists = append(p.FavoriteArtists, name)
	return true
}

// RemoveArtist drops an artist by exact name.
func (p *Preferences) RemoveArtist(name string) {
	p.FavoriteArtists = slices.DeleteFunc(p.FavoriteArtists, func(a string) bool { return a == name })
}

// AddGenre appends a trimmed genre. Blank and duplicate genres are ignored.
func (p *Preferences) AddGenre(genre string) bool {
	genre = strings.TrimSpace(genre)
	if genre == "" || slices.Contains(p.FavoriteGenres, genre) {
		return false
	}
	p.FavoriteGenres = append(p.FavoriteGenres, genre)
	return true
}

// ToggleGenre adds the genre if missing and removes it otherwise.
func (p *Preferences) ToggleGenre(genre string) {
	if slices.Contains(p.FavoriteGenres, genre) {
		p.FavoriteGenres = slices.DeleteFunc(p.FavoriteGenres, func(g string) bool { return g == genre })
		return
	}
	p.FavoriteGenres = append(p.FavoriteGenres, genre)
}

// Normalize rebuilds both lists through AddArtist and AddGenre, dropping
// blanks and duplicates from externally supplied preferences.
func (p *Preferences) Normalize() {
	artists, genres := p.FavoriteArtists, p.FavoriteGenres
	p.FavoriteArtists, p.FavoriteGenres = []string{}, []string{}
	for _, a := range artists {
		p.AddArtist(a)
	}
	for _, g := range genres {
		p.AddGenre(g)
	}
}

// Clone returns a deep copy.
func (p *Preferences) Clone() *Preferences {
	if p == nil {
		return nil
	}
	return &Preferences{
		FavoriteArtists: append([]string{}, p.FavoriteArtists...),
		FavoriteGenres:  append([]string{}, p.FavoriteGenres...),
	}
}

// DerivePreferences builds preferences from the user's top artists: the
// first five artist names, and the distinct genres among the first five
// entries of the artists' combined genre list.
func DerivePreferences(artists []ArtistProfile) Preferences {
	prefs := Preferences{FavoriteArtists: []string{}, FavoriteGenres: []string{}}

	for _, a := range artists[:min(derivedArtistCount, len(artists))] {
		prefs.AddArtist(a.Name)
	}

	var genres []string
	for _, a := range artists {
		genres = append(genres, a.Genres...)
	}
	for _, g := range genres[:min(derivedGenreWindow, len(genres))] {
		prefs.AddGenre(g)
	}

	return prefs
}
