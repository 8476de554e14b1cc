// Package auth provides Spotify OAuth2 authorization code exchange.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	// DefaultRedirectURI uses explicit IPv4 loopback as required by Spotify for local development.
	// See: https://developer.spotify.com/documentation/web-api/concepts/redirect-uri
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"
	callbackTimeout    = 2 * time.Minute
)

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
}

var (
	// ErrMissingCredentials is returned when the client ID or secret is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")

	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrCallbackRejected is returned when the redirect carries an error or no code.
	ErrCallbackRejected = errors.New("authorization callback rejected")
)

// ExchangeError is a rejected authorization code exchange.
type ExchangeError struct {
	Status      int    // HTTP status of the token endpoint, 0 if unknown
	Code        string // OAuth error code, e.g. "invalid_grant"
	Description string
}

func (e *ExchangeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("token exchange failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("token exchange failed: %s", e.Code)
}

// Config holds the registered application's credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Authenticator handles Spotify OAuth2 authentication.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	redirectURL string
	out         io.Writer
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithOutput sets where the interactive flow prints its instructions.
func WithOutput(w io.Writer) Option {
	return func(a *Authenticator) {
		if w != nil {
			a.out = w
		}
	}
}

// New creates an Authenticator for cfg.
// Returns ErrMissingCredentials if the client ID or secret is empty.
func New(cfg Config, opts ...Option) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURI
	}

	a := &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURL),
			spotifyauth.WithScopes(Scopes...),
		),
		redirectURL: cfg.RedirectURL,
		out:         os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AuthURL returns the consent page URL for state. The consent dialog is
// always shown so users can switch accounts.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state, spotifyauth.ShowDialog)
}

// Exchange trades an authorization code for a token.
// A rejection by the token endpoint is returned as *ExchangeError.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.auth.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(err)
	}
	return token, nil
}

// Callback validates an OAuth redirect against the expected state and
// exchanges its code for a token.
func (a *Authenticator) Callback(r *http.Request, state string) (*oauth2.Token, error) {
	q := r.URL.Query()
	if q.Get("state") != state {
		return nil, ErrStateMismatch
	}
	if errMsg := q.Get("error"); errMsg != "" {
		return nil, fmt.Errorf("%w: spotify auth error: %s", ErrCallbackRejected, errMsg)
	}
	code := q.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code", ErrCallbackRejected)
	}
	return a.Exchange(r.Context(), code)
}

// Client returns an HTTP client that authorizes requests with token.
func (a *Authenticator) Client(ctx context.Context, token *oauth2.Token) *http.Client {
	return a.auth.Client(ctx, token)
}

// Interactive runs the authorization code flow for a terminal user: it
// prints the consent URL and serves the redirect URI on loopback until the
// callback arrives. The token is returned, not stored.
func (a *Authenticator) Interactive(ctx context.Context) (*oauth2.Token, error) {
	redirect, err := url.Parse(a.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect URI: %w", err)
	}

	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	// Channel to receive the token from callback
	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		a.handleCallback(w, r, state, tokenCh, errCh)
	})

	server := &http.Server{
		Addr:              redirect.Host,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	fmt.Fprintln(a.out, "\nTo authenticate, open this URL in your browser:")
	fmt.Fprintln(a.out, a.AuthURL(state))
	fmt.Fprintln(a.out, "\nWaiting for authentication...")

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}

	select {
	case token := <-tokenCh:
		shutdown()
		return token, nil
	case err := <-errCh:
		shutdown()
		return nil, err
	case <-time.After(callbackTimeout):
		shutdown()
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		shutdown()
		return nil, ctx.Err()
	}
}

// handleCallback processes the OAuth callback from Spotify.
func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request, expectedState string, tokenCh chan<- *oauth2.Token, errCh chan<- error) {
	token, err := a.Callback(r, expectedState)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrStateMismatch) || errors.Is(err, ErrCallbackRejected) {
			status = http.StatusBadRequest
		}
		http.Error(w, "Authentication failed: "+err.Error(), status)
		select {
		case errCh <- err:
		default:
		}
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body>
<h1>Authentication Successful!</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`)

	select {
	case tokenCh <- token:
	default:
	}
}

// NewState creates a random state string for OAuth.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// exchangeError converts a token endpoint rejection into *ExchangeError.
// Transport failures are wrapped unchanged.
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("exchanging code for token: %w", err)
	}

	exErr := &ExchangeError{
		Code:        re.ErrorCode,
		Description: re.ErrorDescription,
	}
	if re.Response != nil {
		exErr.Status = re.Response.StatusCode
	}
	if exErr.Code == "" {
		exErr.Code = "token_exchange_failed"
	}
	return exErr
}
