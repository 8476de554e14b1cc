package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/moodify/internal/auth"
	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
	"github.com/justestif/moodify/internal/session"
	"github.com/justestif/moodify/internal/spotify"
)

const (
	stateCookieName = "oauth_state"
	topLimit        = 10
)

// Authenticator runs the OAuth authorization code flow.
type Authenticator interface {
	AuthURL(state string) string
	Callback(r *http.Request, state string) (*oauth2.Token, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// Catalog is the music catalog as seen by one signed-in user.
type Catalog interface {
	playlist.Catalog
	Profile(ctx context.Context) (spotify.Profile, error)
	TopArtists(ctx context.Context, limit int) ([]playlist.ArtistProfile, error)
	TopTracks(ctx context.Context, limit int) ([]playlist.Track, error)
}

// CatalogFactory returns a catalog that authorizes its calls with token.
type CatalogFactory func(token *oauth2.Token) Catalog

var _ Catalog = (*spotify.Client)(nil)

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth       Authenticator
	sessions   SessionManager
	newCatalog CatalogFactory
	classifier *mood.Classifier
	assembler  *playlist.Assembler
	aggOpts    []playlist.Option
	logger     *slog.Logger

	mu       sync.Mutex
	catalogs map[string]Catalog // by session ID
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithClassifier sets the mood classifier.
func WithClassifier(c *mood.Classifier) HandlerOption {
	return func(h *Handlers) {
		if c != nil {
			h.classifier = c
		}
	}
}

// WithAssembler sets the playlist assembler.
func WithAssembler(a *playlist.Assembler) HandlerOption {
	return func(h *Handlers) {
		if a != nil {
			h.assembler = a
		}
	}
}

// WithAggregatorOptions sets the options of the per-request aggregator.
func WithAggregatorOptions(opts ...playlist.Option) HandlerOption {
	return func(h *Handlers) {
		h.aggOpts = opts
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handlers) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(a Authenticator, sessions SessionManager, catalogs CatalogFactory, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		auth:       a,
		sessions:   sessions,
		newCatalog: catalogs,
		classifier: mood.NewClassifier(),
		assembler:  playlist.NewAssembler(),
		logger:     slog.Default(),
		catalogs:   make(map[string]Catalog),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ============================================================================
// Auth
// ============================================================================

// Home reports whether the request is signed in (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Authenticated bool             `json:"authenticated"`
		User          *spotify.Profile `json:"user,omitempty"`
	}{}
	if sess := h.sessions.GetFromRequest(r); sess != nil {
		resp.Authenticated = true
		resp.User = &sess.Profile
	}
	writeJSON(w, http.StatusOK, resp)
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := auth.NewState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to generate state")
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_state", "missing state cookie")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	ctx := r.Context()
	token, err := h.auth.Callback(r, stateCookie.Value)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	catalog := h.newCatalog(token)
	profile, err := catalog.Profile(ctx)
	if err != nil {
		h.logger.Error("loading profile", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to get user info")
		return
	}

	sess, err := h.sessions.Create(ctx, token, profile)
	if err != nil {
		h.logger.Error("creating session", "user", profile.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}
	h.cacheCatalog(sess.ID, catalog)

	if prefs := sess.State.Preferences(); prefs.IsEmpty() {
		h.derivePreferences(ctx, sess, catalog)
	}

	h.sessions.SetCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// derivePreferences seeds an empty preference set from the user's top artists.
// Failures are logged; the session stays usable without preferences.
func (h *Handlers) derivePreferences(ctx context.Context, sess *Session, catalog Catalog) {
	artists, err := catalog.TopArtists(ctx, topLimit)
	if err != nil {
		h.logger.Warn("loading top artists", "user", sess.UserID(), "error", err)
		return
	}
	prefs := playlist.DerivePreferences(artists)
	if prefs.IsEmpty() {
		return
	}
	if _, err := h.sessions.SavePreferences(ctx, sess, prefs); err != nil {
		h.logger.Warn("saving derived preferences", "user", sess.UserID(), "error", err)
	}
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := h.sessions.GetFromRequest(r); sess != nil {
		h.dropCatalog(sess.ID)
		h.sessions.Delete(r.Context(), sess.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func newTokenResponse(t *oauth2.Token) tokenResponse {
	resp := tokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if scope, ok := t.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	if !t.Expiry.IsZero() {
		resp.ExpiresIn = max(0, int(time.Until(t.Expiry).Round(time.Second).Seconds()))
	}
	return resp
}

// ExchangeToken trades an authorization code for a token (POST /api/spotify/token).
func (h *Handlers) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "authorization code is required")
		return
	}

	token, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(token))
}

func (h *Handlers) writeAuthError(w http.ResponseWriter, err error) {
	var exErr *auth.ExchangeError
	switch {
	case errors.Is(err, auth.ErrStateMismatch), errors.Is(err, auth.ErrCallbackRejected):
		writeError(w, http.StatusBadRequest, "auth_failed", err.Error())
	case errors.As(err, &exErr):
		status := exErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorBody{Error: exErr.Code, Description: exErr.Description})
	default:
		h.logger.Error("token exchange", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "token_exchange_failed", Description: err.Error()})
	}
}

// ============================================================================
// Moods
// ============================================================================

type moodResponse struct {
	Mood        mood.Mood    `json:"mood"`
	Label       string       `json:"label"`
	Emoji       string       `json:"emoji"`
	Color       string       `json:"color"`
	SearchTerms []string     `json:"searchTerms"`
	Vibe        string       `json:"vibe"`
	Targets     mood.Targets `json:"targets"`
}

// Moods lists the supported moods (GET /api/moods).
func (h *Handlers) Moods(w http.ResponseWriter, _ *http.Request) {
	all := mood.All()
	resp := make([]moodResponse, 0, len(all))
	for _, m := range all {
		profile, _ := mood.ProfileFor(m)
		resp = append(resp, moodResponse{
			Mood:        m,
			Label:       m.Label(),
			Emoji:       mood.EmojiFor(m),
			Color:       mood.ColorTag(m),
			SearchTerms: profile.SearchTerms,
			Vibe:        profile.Vibe(),
			Targets:     profile.Targets(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Classify ranks moods for free text, or confirms an explicitly picked mood
// (POST /api/moods/classify).
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
		Mood string `json:"mood"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var candidates []mood.Candidate
	switch {
	case req.Mood != "":
		m, err := mood.Parse(req.Mood)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_mood", err.Error())
			return
		}
		candidates = []mood.Candidate{h.classifier.Select(m)}
	case strings.TrimSpace(req.Text) == "":
		writeError(w, http.StatusBadRequest, "empty_text", "text is required")
		return
	default:
		candidates = h.classifier.Classify(req.Text)
	}

	writeJSON(w, http.StatusOK, struct {
		Candidates   []mood.Candidate `json:"candidates"`
		AutoGenerate bool             `json:"autoGenerate"`
	}{
		Candidates:   candidates,
		AutoGenerate: candidates[0].Confidence > mood.AutoGenerateThreshold,
	})
}

// ============================================================================
// User
// ============================================================================

// Me returns the signed-in user's profile (GET /api/me).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Profile)
}

// Top returns the user's top artists and tracks (GET /api/me/top).
func (h *Handlers) Top(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	catalog := h.catalogFor(sess)

	var (
		artists []playlist.ArtistProfile
		tracks  []playlist.Track
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		artists, err = catalog.TopArtists(ctx, topLimit)
		return err
	})
	g.Go(func() error {
		var err error
		tracks, err = catalog.TopTracks(ctx, topLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeCatalogError(w, "loading top items", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Artists []playlist.ArtistProfile `json:"artists"`
		Tracks  []playlist.Track         `json:"tracks"`
	}{nonNil(artists), nonNil(tracks)})
}

func (h *Handlers) writeCatalogError(w http.ResponseWriter, action string, err error) {
	var apiErr *spotify.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized", apiErr.Message)
		return
	}
	h.logger.Error(action, "error", err)
	writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
}

// GetPreferences returns the session's preferences (GET /api/preferences).
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).State.Preferences())
}

// PutPreferences replaces the session's preferences (PUT /api/preferences).
func (h *Handlers) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs playlist.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess := sessionFrom(r.Context())
	saved, err := h.sessions.SavePreferences(r.Context(), sess, prefs)
	if err != nil {
		h.logger.Error("saving preferences", "user", sess.UserID(), "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to save preferences")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// ============================================================================
// Playlists
// ============================================================================

// Generate builds a draft playlist for a mood and makes it the session's
// current draft (POST /api/playlists/generate).
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	m, err := mood.Parse(req.Mood)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_mood", err.Error())
		return
	}

	sess := sessionFrom(r.Context())
	prefs := sess.State.Preferences()
	agg := playlist.NewAggregator(h.catalogFor(sess), h.aggOpts...)

	tracks, err := agg.BuildCandidateTracks(r.Context(), m, &prefs)
	if err != nil {
		if errors.Is(err, mood.ErrUnknownMood) {
			writeError(w, http.StatusBadRequest, "unknown_mood", err.Error())
			return
		}
		h.logger.Error("building candidate tracks", "mood", m, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	draft := h.assembler.Assemble(m, tracks)
	sess.State.SetDraft(draft)
	writeJSON(w, http.StatusOK, draft)
}

// SavePlaylist persists the current draft to the user's account
// (POST /api/playlists).
func (h *Handlers) SavePlaylist(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	draft, ok := sess.State.Draft()
	if !ok {
		writeError(w, http.StatusConflict, "no_draft", "generate a playlist first")
		return
	}

	persisted, err := h.assembler.Persist(r.Context(), draft, sess.UserID(), h.catalogFor(sess))
	if err != nil {
		var pErr *playlist.PersistError
		switch {
		case errors.Is(err, playlist.ErrEmptyDraft):
			writeError(w, http.StatusUnprocessableEntity, "empty_draft", err.Error())
		case errors.As(err, &pErr):
			writeJSON(w, http.StatusBadGateway, errorBody{
				Error:      "persist_failed",
				Message:    pErr.Err.Error(),
				Stage:      pErr.Stage,
				PlaylistID: pErr.PlaylistID,
			})
		default:
			writeError(w, http.StatusBadGateway, "persist_failed", err.Error())
		}
		return
	}

	entry, err := h.sessions.RecordPersisted(r.Context(), sess, persisted)
	if err != nil {
		// The playlist exists upstream; keep it in this session even if storage failed.
		h.logger.Error("recording saved playlist", "user", sess.UserID(), "playlist", persisted.ID, "error", err)
		entry = sess.State.RecordPersisted(persisted)
	}

	writeJSON(w, http.StatusCreated, struct {
		Playlist playlist.Persisted   `json:"playlist"`
		History  session.HistoryEntry `json:"history"`
	}{persisted, entry})
}

// Playlists lists the playlists saved in this session (GET /api/playlists).
func (h *Handlers) Playlists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).State.Created())
}

// History returns the mood history (GET /api/history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).State.History())
}

// ToggleLike flips the liked flag of a track (POST /api/tracks/{id}/like).
func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "track id is required")
		return
	}
	liked := sessionFrom(r.Context()).State.ToggleLike(id)
	writeJSON(w, http.StatusOK, struct {
		ID    string `json:"id"`
		Liked bool   `json:"liked"`
	}{id, liked})
}

// Reset clears the current draft (POST /api/reset).
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).State.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Helpers
// ============================================================================

type sessionKey struct{}

// RequireSession rejects requests without a valid session cookie.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := h.sessions.GetFromRequest(r)
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "sign in first")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}

// catalogFor returns the session's catalog, building it on first use so
// every request of a session shares one rate limiter.
func (h *Handlers) catalogFor(sess *Session) Catalog {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.catalogs[sess.ID]; ok {
		return c
	}
	c := h.newCatalog(sess.Token)
	h.catalogs[sess.ID] = c
	return c
}

func (h *Handlers) cacheCatalog(sessionID string, c Catalog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.catalogs[sessionID] = c
}

func (h *Handlers) dropCatalog(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.catalogs, sessionID)
}

// pruneCatalogs drops cached catalogs whose session is gone.
func (h *Handlers) pruneCatalogs(ctx context.Context) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.catalogs))
	for id := range h.catalogs {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		if h.sessions.Get(ctx, id) == nil {
			h.dropCatalog(id)
		}
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
