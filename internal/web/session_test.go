package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/moodify/internal/db"
	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
	"github.com/justestif/moodify/internal/spotify"
)

// fakeTables implements every repository over in-memory maps.
type fakeTables struct {
	mu        sync.Mutex
	users     map[string]db.User
	sessions  map[string]db.Session
	prefs     map[string]db.PreferencesDocument
	history   []db.HistoryEntry
	playlists []db.Playlist

	playlistErr error
	prefsErr    error

	sessionGets atomic.Int32
	purges      atomic.Int32
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		users:    make(map[string]db.User),
		sessions: make(map[string]db.Session),
		prefs:    make(map[string]db.PreferencesDocument),
	}
}

func (f *fakeTables) repositories() repositories {
	return repositories{
		users:       fakeUsers{f},
		sessions:    fakeSessions{f},
		preferences: fakePreferences{f},
		history:     fakeHistory{f},
		playlists:   fakePlaylists{f},
	}
}

type fakeUsers struct{ *fakeTables }

func (f fakeUsers) Upsert(_ context.Context, u *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
	return nil
}

func (f fakeUsers) Get(_ context.Context, id string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

type fakeSessions struct{ *fakeTables }

func (f fakeSessions) Create(_ context.Context, s *db.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = *s
	return nil
}

func (f fakeSessions) Get(_ context.Context, id string) (*db.Session, error) {
	f.sessionGets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (f fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f fakeSessions) DeleteExpired(_ context.Context) (int64, error) {
	f.purges.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakePreferences struct{ *fakeTables }

func (f fakePreferences) Get(_ context.Context, userID string) (*db.PreferencesDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.prefs[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &doc, nil
}

func (f fakePreferences) Put(_ context.Context, userID string, doc db.PreferencesDocument) error {
	if f.prefsErr != nil {
		return f.prefsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[userID] = doc
	return nil
}

type fakeHistory struct{ *fakeTables }

func (f fakeHistory) Add(_ context.Context, e *db.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append([]db.HistoryEntry{*e}, f.history...)
	return nil
}

func (f fakeHistory) ListForUser(_ context.Context, userID string, limit int) ([]db.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.HistoryEntry
	for _, e := range f.history {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePlaylists struct{ *fakeTables }

func (f fakePlaylists) Create(_ context.Context, p *db.Playlist) error {
	if f.playlistErr != nil {
		return f.playlistErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists = append([]db.Playlist{*p}, f.playlists...)
	return nil
}

func (f fakePlaylists) ListForUser(_ context.Context, userID string) ([]db.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Playlist
	for _, p := range f.playlists {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

var testProfile = spotify.Profile{ID: "user-1", DisplayName: "Test User", AvatarURL: "https://i.scdn.co/a.jpg"}

func testToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, testToken(), testProfile)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(sess.ID) != 64 {
		t.Errorf("len(ID) = %d, want 64", len(sess.ID))
	}
	if store.Get(ctx, sess.ID) != sess {
		t.Error("Get() did not return the created session")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.ID})
	if store.GetFromRequest(r) != sess {
		t.Error("GetFromRequest() did not find the session")
	}

	sess.State.ToggleLike("t1")
	store.Delete(ctx, sess.ID)
	if store.Get(ctx, sess.ID) != nil {
		t.Error("Get() after Delete() returned a session")
	}
	if sess.State.Liked("t1") {
		t.Error("state not cleared on delete")
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess, _ := store.Create(ctx, testToken(), testProfile)
	sess.CreatedAt = time.Now().Add(-sessionTTL - time.Minute)

	if store.Get(ctx, sess.ID) != nil {
		t.Error("expired session returned")
	}
	n, err := store.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("PurgeExpired() = %d, %v, want 1, nil", n, err)
	}
}

func TestCookies(t *testing.T) {
	w := httptest.NewRecorder()
	setCookie(w, &Session{ID: "abc"})
	c := w.Result().Cookies()[0]
	if c.Name != sessionCookieName || c.Value != "abc" || !c.HttpOnly || c.MaxAge != int(sessionTTL.Seconds()) {
		t.Errorf("cookie = %+v", c)
	}

	w = httptest.NewRecorder()
	clearCookie(w)
	if c := w.Result().Cookies()[0]; c.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", c.MaxAge)
	}
}

func TestDBSessionStore_CreateHydrates(t *testing.T) {
	tables := newFakeTables()
	tables.prefs["user-1"] = db.PreferencesDocument{FavoriteArtists: []string{"Artist A"}, FavoriteGenres: []string{"pop"}}
	tables.history = []db.HistoryEntry{{
		UserID: "user-1", Day: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Mood: "happy", PlaylistName: "Happy Vibes - 3/5/2024", TrackCount: 20,
	}}
	tables.playlists = []db.Playlist{{ID: "pl-0", UserID: "user-1", Name: "Old", Mood: "sad", TrackCount: 5}}

	store := newDBSessionStore(tables.repositories(), quietLogger())
	sess, err := store.Create(context.Background(), testToken(), testProfile)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if u := tables.users["user-1"]; u.AvatarURL != testProfile.AvatarURL {
		t.Errorf("stored user = %+v", u)
	}
	if s := tables.sessions[sess.ID]; s.TokenType != "Bearer" || s.RefreshToken != "refresh" {
		t.Errorf("stored session = %+v", s)
	}

	prefs := sess.State.Preferences()
	if !slices.Equal(prefs.FavoriteArtists, []string{"Artist A"}) {
		t.Errorf("FavoriteArtists = %v", prefs.FavoriteArtists)
	}
	history := sess.State.History()
	if len(history) != 1 || history[0].Date != "2024-03-05" || history[0].Mood != mood.Happy || history[0].Tracks != 20 {
		t.Errorf("history = %+v", history)
	}
	if created := sess.State.Created(); len(created) != 1 || created[0].ID != "pl-0" {
		t.Errorf("created = %+v", created)
	}
}

func TestDBSessionStore_GetLoadsOnCacheMiss(t *testing.T) {
	tables := newFakeTables()
	ctx := context.Background()

	first := newDBSessionStore(tables.repositories(), quietLogger())
	sess, err := first.Create(ctx, testToken(), testProfile)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := first.SavePreferences(ctx, sess, playlist.Preferences{FavoriteGenres: []string{"rock", "rock"}}); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}

	// A second store simulates a restart: nothing is cached.
	second := newDBSessionStore(tables.repositories(), quietLogger())
	got := second.Get(ctx, sess.ID)
	if got == nil {
		t.Fatal("Get() = nil, want session loaded from the database")
	}
	if got.Profile != testProfile {
		t.Errorf("Profile = %+v, want %+v", got.Profile, testProfile)
	}
	if got.Token.AccessToken != "access" || got.Token.TokenType != "Bearer" {
		t.Errorf("Token = %+v", got.Token)
	}
	if g := got.State.Preferences().FavoriteGenres; !slices.Equal(g, []string{"rock"}) {
		t.Errorf("FavoriteGenres = %v, want [rock]", g)
	}

	gets := tables.sessionGets.Load()
	if second.Get(ctx, sess.ID) != got {
		t.Error("second Get() returned a different session")
	}
	if tables.sessionGets.Load() != gets {
		t.Error("cached session was loaded again")
	}

	if second.Get(ctx, "missing") != nil {
		t.Error("Get(missing) returned a session")
	}
}

func TestDBSessionStore_SavePreferencesFailure(t *testing.T) {
	tables := newFakeTables()
	store := newDBSessionStore(tables.repositories(), quietLogger())
	sess, _ := store.Create(context.Background(), testToken(), testProfile)

	tables.prefsErr = errors.New("db down")
	_, err := store.SavePreferences(context.Background(), sess, playlist.Preferences{FavoriteArtists: []string{"A"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if p := sess.State.Preferences(); !p.IsEmpty() {
		t.Errorf("state changed despite failure: %+v", p)
	}
}

func TestDBSessionStore_RecordPersisted(t *testing.T) {
	persisted := playlist.Persisted{
		ID: "pl-1", URL: "https://open.spotify.com/playlist/pl-1", Name: "Calm Vibes - 3/5/2024",
		Mood: mood.Calm, TrackCount: 12, CreatedAt: time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC),
	}

	t.Run("writes through", func(t *testing.T) {
		tables := newFakeTables()
		store := newDBSessionStore(tables.repositories(), quietLogger())
		sess, _ := store.Create(context.Background(), testToken(), testProfile)

		entry, err := store.RecordPersisted(context.Background(), sess, persisted)
		if err != nil {
			t.Fatalf("RecordPersisted() error = %v", err)
		}
		if entry.Date != "2024-03-05" || entry.Tracks != 12 {
			t.Errorf("entry = %+v", entry)
		}
		if len(tables.playlists) != 1 || tables.playlists[0].UserID != "user-1" {
			t.Errorf("playlists = %+v", tables.playlists)
		}
		if len(tables.history) != 1 || tables.history[0].ID != entry.ID || tables.history[0].Mood != "calm" {
			t.Errorf("history = %+v", tables.history)
		}
		if len(sess.State.History()) != 1 || len(sess.State.Created()) != 1 {
			t.Error("state not updated")
		}
	})

	t.Run("storage failure leaves state untouched", func(t *testing.T) {
		tables := newFakeTables()
		tables.playlistErr = errors.New("db down")
		store := newDBSessionStore(tables.repositories(), quietLogger())
		sess, _ := store.Create(context.Background(), testToken(), testProfile)

		if _, err := store.RecordPersisted(context.Background(), sess, persisted); err == nil {
			t.Fatal("expected error")
		}
		if len(tables.history) != 0 || len(sess.State.History()) != 0 {
			t.Error("history written despite playlist failure")
		}
	})
}

func TestDBSessionStore_DeleteAndPurge(t *testing.T) {
	tables := newFakeTables()
	store := newDBSessionStore(tables.repositories(), quietLogger())
	ctx := context.Background()

	sess, _ := store.Create(ctx, testToken(), testProfile)
	store.Delete(ctx, sess.ID)
	if _, ok := tables.sessions[sess.ID]; ok {
		t.Error("session row not deleted")
	}
	if store.Get(ctx, sess.ID) != nil {
		t.Error("deleted session still returned")
	}

	old, _ := store.Create(ctx, testToken(), testProfile)
	row := tables.sessions[old.ID]
	row.ExpiresAt = time.Now().Add(-time.Minute)
	tables.sessions[old.ID] = row
	old.CreatedAt = time.Now().Add(-sessionTTL - time.Minute)

	n, err := store.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("PurgeExpired() = %d, %v, want 1, nil", n, err)
	}
	if len(store.cache) != 0 {
		t.Errorf("cache size = %d, want 0", len(store.cache))
	}
}
