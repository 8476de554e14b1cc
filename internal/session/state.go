// Package session holds the per-user state of one signed-in session.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
)

// MaxHistory is the number of mood history entries kept.
const MaxHistory = 10

// HistoryEntry records a saved playlist in the mood history.
type HistoryEntry struct {
	ID       uuid.UUID `json:"id"`
	Date     string    `json:"date"` // YYYY-MM-DD
	Mood     mood.Mood `json:"mood"`
	Playlist string    `json:"playlist"`
	Tracks   int       `json:"tracks"`
}

// NewHistoryEntry builds the history entry for a saved playlist.
func NewHistoryEntry(p playlist.Persisted) HistoryEntry {
	return HistoryEntry{
		ID:       uuid.New(),
		Date:     p.CreatedAt.UTC().Format(time.DateOnly),
		Mood:     p.Mood,
		Playlist: p.Name,
		Tracks:   p.TrackCount,
	}
}

// State is the mutable state of one session. It is safe for concurrent use.
type State struct {
	mu      sync.Mutex
	prefs   playlist.Preferences
	draft   *playlist.Draft
	history []HistoryEntry
	created []playlist.Persisted
	liked   map[string]struct{}
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		prefs: playlist.Preferences{FavoriteArtists: []string{}, FavoriteGenres: []string{}},
		liked: make(map[string]struct{}),
	}
}

// Restore replaces preferences, history and created playlists, e.g. when
// hydrating from storage. Both lists are newest first.
func (s *State) Restore(prefs playlist.Preferences, history []HistoryEntry, created []playlist.Persisted) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = *prefs.Clone()
	s.history = slices.Clone(history[:min(MaxHistory, len(history))])
	s.created = slices.Clone(created)
}

// Preferences returns a copy of the current preferences.
func (s *State) Preferences() playlist.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.prefs.Clone()
}

// SetPreferences replaces the preferences after normalizing them.
func (s *State) SetPreferences(p playlist.Preferences) playlist.Preferences {
	p = *p.Clone()
	p.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	return *p.Clone()
}

// Draft returns the current draft, if any.
func (s *State) Draft() (playlist.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return playlist.Draft{}, false
	}
	d := *s.draft
	d.Tracks = slices.Clone(d.Tracks)
	return d, true
}

// SetDraft makes d the current draft.
func (s *State) SetDraft(d playlist.Draft) {
	d.Tracks = slices.Clone(d.Tracks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = &d
}

// Reset clears the current draft.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

// RecordPersisted prepends p to the created playlists and adds a history
// entry, keeping at most MaxHistory entries.
func (s *State) RecordPersisted(p playlist.Persisted) HistoryEntry {
	entry := NewHistoryEntry(p)
	s.AddHistory(entry)
	s.AddCreated(p)
	return entry
}

// AddCreated prepends p to the created playlists.
func (s *State) AddCreated(p playlist.Persisted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append([]playlist.Persisted{p}, s.created...)
}

// AddHistory prepends entry to the mood history.
func (s *State) AddHistory(entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]HistoryEntry{entry}, s.history[:min(MaxHistory-1, len(s.history))]...)
}

// History returns the mood history, newest first.
func (s *State) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HistoryEntry{}, s.history...)
}

// Created returns the playlists saved in this session, newest first.
func (s *State) Created() []playlist.Persisted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]playlist.Persisted{}, s.created...)
}

// ToggleLike flips the liked flag of a track and reports the new value.
func (s *State) ToggleLike(trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liked[trackID]; ok {
		delete(s.liked, trackID)
		return false
	}
	s.liked[trackID] = struct{}{}
	return true
}

// Liked reports whether a track is liked.
func (s *State) Liked(trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.liked[trackID]
	return ok
}

// Clear drops everything held by the session.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = playlist.Preferences{FavoriteArtists: []string{}, FavoriteGenres: []string{}}
	s.draft = nil
	s.history = nil
	s.created = nil
	s.liked = make(map[string]struct{})
}
