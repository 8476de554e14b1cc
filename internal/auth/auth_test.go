package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New(Config{ClientID: "client-id", ClientSecret: "client-secret"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no id", Config{ClientSecret: "secret"}},
		{"no secret", Config{ClientID: "id"}},
		{"empty", Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("New() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestAuthURL(t *testing.T) {
	a := newTestAuthenticator(t)

	raw := a.AuthURL("state-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing auth URL: %v", err)
	}
	q := u.Query()

	if q.Get("state") != "state-123" {
		t.Errorf("state = %q, want %q", q.Get("state"), "state-123")
	}
	if q.Get("show_dialog") != "true" {
		t.Errorf("show_dialog = %q, want %q", q.Get("show_dialog"), "true")
	}
	if q.Get("redirect_uri") != DefaultRedirectURI {
		t.Errorf("redirect_uri = %q, want %q", q.Get("redirect_uri"), DefaultRedirectURI)
	}
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}

	scopes := strings.Fields(q.Get("scope"))
	want := []string{
		"user-read-private", "user-read-email", "playlist-modify-public",
		"playlist-modify-private", "user-top-read", "user-read-recently-played",
	}
	if strings.Join(scopes, " ") != strings.Join(want, " ") {
		t.Errorf("scope = %v, want %v", scopes, want)
	}
}

func TestCallback_Rejections(t *testing.T) {
	a := newTestAuthenticator(t)

	tests := []struct {
		name    string
		query   string
		wantErr error
		wantMsg string
	}{
		{"state mismatch", "state=other&code=abc", ErrStateMismatch, ""},
		{"missing state", "code=abc", ErrStateMismatch, ""},
		{"access denied", "state=expected&error=access_denied", ErrCallbackRejected, "access_denied"},
		{"no code", "state=expected", ErrCallbackRejected, "no authorization code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil)
			_, err := a.Callback(r, "expected")
			if err == nil {
				t.Fatal("Callback() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Callback() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Callback() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	a := newTestAuthenticator(t)
	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=abc", nil)
	a.handleCallback(w, r, "expected", tokenCh, errCh)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrStateMismatch) {
			t.Errorf("error = %v, want ErrStateMismatch", err)
		}
	default:
		t.Error("expected an error on errCh")
	}
	if len(tokenCh) != 0 {
		t.Error("expected no token")
	}
}

func TestExchangeError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDesc   string
		wantTyped  bool
	}{
		{
			name: "invalid grant",
			err: &oauth2.RetrieveError{
				Response:         &http.Response{StatusCode: http.StatusBadRequest},
				ErrorCode:        "invalid_grant",
				ErrorDescription: "Invalid authorization code",
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_grant",
			wantDesc:   "Invalid authorization code",
			wantTyped:  true,
		},
		{
			name: "no error code",
			err: &oauth2.RetrieveError{
				Response: &http.Response{StatusCode: http.StatusServiceUnavailable},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "token_exchange_failed",
			wantTyped:  true,
		},
		{
			name: "transport failure",
			err:  errors.New("dial tcp: connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exchangeError(tt.err)

			var exErr *ExchangeError
			if errors.As(got, &exErr) != tt.wantTyped {
				t.Fatalf("errors.As(*ExchangeError) = %v, want %v (%v)", !tt.wantTyped, tt.wantTyped, got)
			}
			if !tt.wantTyped {
				if !errors.Is(got, tt.err) {
					t.Errorf("expected transport error to be wrapped, got %v", got)
				}
				return
			}
			if exErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", exErr.Status, tt.wantStatus)
			}
			if exErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", exErr.Code, tt.wantCode)
			}
			if exErr.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", exErr.Description, tt.wantDesc)
			}
		})
	}
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	b, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}

	if len(a) != 32 {
		t.Errorf("len(state) = %d, want 32", len(a))
	}
	if a == b {
		t.Error("NewState() returned the same value twice")
	}
}
