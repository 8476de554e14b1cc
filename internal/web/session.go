package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/moodify/internal/db"
	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
	"github.com/justestif/moodify/internal/session"
	"github.com/justestif/moodify/internal/spotify"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// Session represents an authenticated user session.
type Session struct {
	ID        string
	Token     *oauth2.Token
	Profile   spotify.Profile
	CreatedAt time.Time
	State     *session.State
}

// UserID returns the Spotify ID of the session's user.
func (s *Session) UserID() string {
	return s.Profile.ID
}

// SessionManager defines the interface for session management.
type SessionManager interface {
	Create(ctx context.Context, token *oauth2.Token, profile spotify.Profile) (*Session, error)
	Get(ctx context.Context, id string) *Session
	Delete(ctx context.Context, id string)
	GetFromRequest(r *http.Request) *Session
	SetCookie(w http.ResponseWriter, session *Session)
	ClearCookie(w http.ResponseWriter)

	// SavePreferences replaces the session's preferences and returns the
	// normalized result.
	SavePreferences(ctx context.Context, s *Session, prefs playlist.Preferences) (playlist.Preferences, error)
	// RecordPersisted adds a saved playlist to the session's created list
	// and mood history.
	RecordPersisted(ctx context.Context, s *Session, p playlist.Persisted) (session.HistoryEntry, error)
}

// ============================================================================
// In-Memory Session Store (for development/testing)
// ============================================================================

// SessionStore manages user sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create generates a new session with empty state.
func (s *SessionStore) Create(_ context.Context, token *oauth2.Token, profile spotify.Profile) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        id,
		Token:     token,
		Profile:   profile,
		CreatedAt: time.Now(),
		State:     session.NewState(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	// Check if session has expired
	if time.Since(sess.CreatedAt) > sessionTTL {
		return nil
	}

	return sess
}

// Delete removes a session by ID and drops its state.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.State.Clear()
	}
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Session {
	return sessionFromCookie(r, s)
}

// SetCookie sets the session cookie on the response.
func (s *SessionStore) SetCookie(w http.ResponseWriter, sess *Session) {
	setCookie(w, sess)
}

// ClearCookie removes the session cookie from the response.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	clearCookie(w)
}

// SavePreferences stores preferences in the session state.
func (s *SessionStore) SavePreferences(_ context.Context, sess *Session, prefs playlist.Preferences) (playlist.Preferences, error) {
	return sess.State.SetPreferences(prefs), nil
}

// RecordPersisted records a saved playlist in the session state.
func (s *SessionStore) RecordPersisted(_ context.Context, sess *Session, p playlist.Persisted) (session.HistoryEntry, error) {
	return sess.State.RecordPersisted(p), nil
}

// PurgeExpired drops expired sessions and clears their state.
func (s *SessionStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if time.Since(sess.CreatedAt) > sessionTTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.State.Clear()
	}
	return int64(len(expired)), nil
}

// ============================================================================
// Database-Backed Session Store
// ============================================================================

type userRepository interface {
	Upsert(ctx context.Context, user *db.User) error
	Get(ctx context.Context, id string) (*db.User, error)
}

type sessionRepository interface {
	Create(ctx context.Context, session *db.Session) error
	Get(ctx context.Context, id string) (*db.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type preferencesRepository interface {
	Get(ctx context.Context, userID string) (*db.PreferencesDocument, error)
	Put(ctx context.Context, userID string, doc db.PreferencesDocument) error
}

type historyRepository interface {
	Add(ctx context.Context, entry *db.HistoryEntry) error
	ListForUser(ctx context.Context, userID string, limit int) ([]db.HistoryEntry, error)
}

type playlistRepository interface {
	Create(ctx context.Context, p *db.Playlist) error
	ListForUser(ctx context.Context, userID string) ([]db.Playlist, error)
}

// repositories groups the tables backing a DBSessionStore.
type repositories struct {
	users       userRepository
	sessions    sessionRepository
	preferences preferencesRepository
	history     historyRepository
	playlists   playlistRepository
}

// DBSessionStore manages user sessions in PostgreSQL. Session state is
// hydrated from the database once per session and then cached; preference
// and playlist changes are written through.
type DBSessionStore struct {
	repos  repositories
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*Session
}

// NewDBSessionStore creates a new database-backed session store.
func NewDBSessionStore(database *db.DB, logger *slog.Logger) *DBSessionStore {
	return newDBSessionStore(repositories{
		users:       database.Users(),
		sessions:    database.Sessions(),
		preferences: database.Preferences(),
		history:     database.History(),
		playlists:   database.Playlists(),
	}, logger)
}

func newDBSessionStore(repos repositories, logger *slog.Logger) *DBSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBSessionStore{
		repos:  repos,
		logger: logger,
		cache:  make(map[string]*Session),
	}
}

// Create upserts the user, stores a new session and hydrates its state.
func (s *DBSessionStore) Create(ctx context.Context, token *oauth2.Token, profile spotify.Profile) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	user := &db.User{ID: profile.ID, DisplayName: profile.DisplayName, AvatarURL: profile.AvatarURL}
	if err := s.repos.users.Upsert(ctx, user); err != nil {
		return nil, err
	}

	now := time.Now()
	dbSession := &db.Session{
		ID:           id,
		UserID:       profile.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		TokenExpiry:  token.Expiry,
		CreatedAt:    now,
		ExpiresAt:    now.Add(sessionTTL),
	}
	if err := s.repos.sessions.Create(ctx, dbSession); err != nil {
		return nil, err
	}

	state, err := s.hydrate(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        id,
		Token:     token,
		Profile:   profile,
		CreatedAt: now,
		State:     state,
	}

	s.mu.Lock()
	s.cache[id] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get retrieves a session by ID, loading it from the database on a cache miss.
func (s *DBSessionStore) Get(ctx context.Context, id string) *Session {
	s.mu.Lock()
	sess, ok := s.cache[id]
	s.mu.Unlock()
	if ok {
		if time.Since(sess.CreatedAt) > sessionTTL {
			s.evict(id)
			return nil
		}
		return sess
	}

	dbSession, err := s.repos.sessions.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Error("loading session", "error", err)
		}
		return nil
	}

	// Get user info for the session
	user, err := s.repos.users.Get(ctx, dbSession.UserID)
	if err != nil {
		s.logger.Error("loading session user", "user", dbSession.UserID, "error", err)
		return nil
	}

	state, err := s.hydrate(ctx, dbSession.UserID)
	if err != nil {
		s.logger.Error("hydrating session state", "user", dbSession.UserID, "error", err)
		return nil
	}

	sess = &Session{
		ID: dbSession.ID,
		Token: &oauth2.Token{
			AccessToken:  dbSession.AccessToken,
			RefreshToken: dbSession.RefreshToken,
			Expiry:       dbSession.TokenExpiry,
			TokenType:    dbSession.TokenType,
		},
		Profile: spotify.Profile{
			ID:          user.ID,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
		},
		CreatedAt: dbSession.CreatedAt,
		State:     state,
	}

	s.mu.Lock()
	if cached, ok := s.cache[id]; ok {
		sess = cached
	} else {
		s.cache[id] = sess
	}
	s.mu.Unlock()

	return sess
}

// Delete removes a session from the database and the cache.
func (s *DBSessionStore) Delete(ctx context.Context, id string) {
	s.evict(id)
	if err := s.repos.sessions.Delete(ctx, id); err != nil {
		s.logger.Error("deleting session", "error", err)
	}
}

// GetFromRequest extracts the session from the request cookie.
func (s *DBSessionStore) GetFromRequest(r *http.Request) *Session {
	return sessionFromCookie(r, s)
}

// SetCookie sets the session cookie on the response.
func (s *DBSessionStore) SetCookie(w http.ResponseWriter, sess *Session) {
	setCookie(w, sess)
}

// ClearCookie removes the session cookie from the response.
func (s *DBSessionStore) ClearCookie(w http.ResponseWriter) {
	clearCookie(w)
}

// SavePreferences writes preferences to the database, then to the session state.
func (s *DBSessionStore) SavePreferences(ctx context.Context, sess *Session, prefs playlist.Preferences) (playlist.Preferences, error) {
	normalized := *prefs.Clone()
	normalized.Normalize()

	doc := db.PreferencesDocument{
		FavoriteArtists: normalized.FavoriteArtists,
		FavoriteGenres:  normalized.FavoriteGenres,
	}
	if err := s.repos.preferences.Put(ctx, sess.UserID(), doc); err != nil {
		return playlist.Preferences{}, err
	}
	return sess.State.SetPreferences(normalized), nil
}

// RecordPersisted writes the saved playlist and its history entry to the
// database, then records them in the session state.
func (s *DBSessionStore) RecordPersisted(ctx context.Context, sess *Session, p playlist.Persisted) (session.HistoryEntry, error) {
	entry := session.NewHistoryEntry(p)

	day, err := time.Parse(time.DateOnly, entry.Date)
	if err != nil {
		return session.HistoryEntry{}, fmt.Errorf("parsing history date: %w", err)
	}

	if err := s.repos.playlists.Create(ctx, &db.Playlist{
		ID:         p.ID,
		UserID:     sess.UserID(),
		Name:       p.Name,
		Mood:       p.Mood.String(),
		URL:        p.URL,
		TrackCount: p.TrackCount,
		CreatedAt:  p.CreatedAt,
	}); err != nil {
		return session.HistoryEntry{}, err
	}

	if err := s.repos.history.Add(ctx, &db.HistoryEntry{
		ID:           entry.ID,
		UserID:       sess.UserID(),
		Day:          day,
		Mood:         entry.Mood.String(),
		PlaylistName: entry.Playlist,
		TrackCount:   entry.Tracks,
	}); err != nil {
		return session.HistoryEntry{}, err
	}

	sess.State.AddHistory(entry)
	sess.State.AddCreated(p)
	return entry, nil
}

// hydrate builds session state from the user's stored preferences, history
// and playlists.
func (s *DBSessionStore) hydrate(ctx context.Context, userID string) (*session.State, error) {
	state := session.NewState()

	var prefs playlist.Preferences
	doc, err := s.repos.preferences.Get(ctx, userID)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		prefs = playlist.Preferences{FavoriteArtists: doc.FavoriteArtists, FavoriteGenres: doc.FavoriteGenres}
	}

	rows, err := s.repos.history.ListForUser(ctx, userID, session.MaxHistory)
	if err != nil {
		return nil, err
	}
	history := make([]session.HistoryEntry, len(rows))
	for i, row := range rows {
		history[i] = session.HistoryEntry{
			ID:       row.ID,
			Date:     row.Day.Format(time.DateOnly),
			Mood:     mood.Mood(row.Mood),
			Playlist: row.PlaylistName,
			Tracks:   row.TrackCount,
		}
	}

	saved, err := s.repos.playlists.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	created := make([]playlist.Persisted, len(saved))
	for i, p := range saved {
		created[i] = playlist.Persisted{
			ID:         p.ID,
			URL:        p.URL,
			Name:       p.Name,
			Mood:       mood.Mood(p.Mood),
			TrackCount: p.TrackCount,
			CreatedAt:  p.CreatedAt,
		}
	}

	state.Restore(prefs, history, created)
	return state, nil
}

// PurgeExpired deletes expired sessions from the database and drops them
// from the cache.
func (s *DBSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	for id, sess := range s.cache {
		if time.Since(sess.CreatedAt) > sessionTTL {
			delete(s.cache, id)
		}
	}
	s.mu.Unlock()

	n, err := s.repos.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *DBSessionStore) evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, id)
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func sessionFromCookie(r *http.Request, m SessionManager) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return m.Get(r.Context(), cookie.Value)
}

// setCookie sets the session cookie on the response.
func setCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// clearCookie removes the session cookie from the response.
func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// purger is implemented by stores that can drop expired sessions.
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Ensure both stores implement SessionManager.
var (
	_ SessionManager = (*SessionStore)(nil)
	_ SessionManager = (*DBSessionStore)(nil)
	_ purger         = (*SessionStore)(nil)
	_ purger         = (*DBSessionStore)(nil)
)
