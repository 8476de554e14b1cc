package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every bound variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envNames {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Config{
		RedirectURI:       "http://127.0.0.1:8080/callback",
		Addr:              "127.0.0.1:8080",
		Market:            "US",
		Concurrency:       1,
		RequestsPerSecond: 10,
		ReadAttempts:      3,
		LogLevel:          slog.LevelInfo,
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPOTIFY_ID", " id ")
	t.Setenv("SPOTIFY_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/moodify")
	t.Setenv("MOODIFY_MARKET", "gb")
	t.Setenv("MOODIFY_CONCURRENCY", "4")
	t.Setenv("MOODIFY_RPS", "2.5")
	t.Setenv("MOODIFY_LOG_LEVEL", "debug")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SpotifyID != "id" || cfg.SpotifySecret != "secret" {
		t.Errorf("credentials = %q/%q", cfg.SpotifyID, cfg.SpotifySecret)
	}
	if cfg.DatabaseURL != "postgres://localhost/moodify" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Market != "GB" {
		t.Errorf("Market = %q, want GB", cfg.Market)
	}
	if cfg.Concurrency != 4 || cfg.RequestsPerSecond != 2.5 {
		t.Errorf("Concurrency = %d, RequestsPerSecond = %v", cfg.Concurrency, cfg.RequestsPerSecond)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOODIFY_LOG_LEVEL", "loud")

	if _, err := Load(New()); err == nil {
		t.Error("Load() error = nil, want error")
	}
}

func TestReadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "moodify.yaml")
	if err := os.WriteFile(path, []byte("market: SE\nconcurrency: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	v := New()
	used, err := ReadFile(v, path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if used != path {
		t.Errorf("ReadFile() = %q, want %q", used, path)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Market != "SE" || cfg.Concurrency != 3 {
		t.Errorf("Market = %q, Concurrency = %d", cfg.Market, cfg.Concurrency)
	}

	// The environment wins over the file.
	t.Setenv("MOODIFY_CONCURRENCY", "7")
	cfg, _ = Load(v)
	if cfg.Concurrency != 7 {
		t.Errorf("Concurrency = %d, want 7", cfg.Concurrency)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit missing file: error = nil, want error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing file: error = %v, want nil", err)
	}

	clearEnv(t)
	t.Setenv("SPOTIFY_SECRET", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SPOTIFY_ID=from-file\nSPOTIFY_SECRET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("SPOTIFY_ID"); got != "from-file" {
		t.Errorf("SPOTIFY_ID = %q, want from-file", got)
	}
	if got := os.Getenv("SPOTIFY_SECRET"); got != "from-env" {
		t.Errorf("SPOTIFY_SECRET = %q, want the existing value kept", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		SpotifyID:         "id",
		SpotifySecret:     "secret",
		Market:            "US",
		Concurrency:       1,
		RequestsPerSecond: 10,
		ReadAttempts:      3,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no id", func(c *Config) { c.SpotifyID = "" }, true},
		{"no secret", func(c *Config) { c.SpotifySecret = "" }, true},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true},
		{"zero rps", func(c *Config) { c.RequestsPerSecond = 0 }, true},
		{"zero attempts", func(c *Config) { c.ReadAttempts = 0 }, true},
		{"long market", func(c *Config) { c.Market = "USA" }, true},
		{"lowercase market", func(c *Config) { c.Market = "us" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("missing credentials sentinel", func(t *testing.T) {
		if err := (Config{}).Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("Validate() error = %v, want ErrMissingCredentials", err)
		}
	})
}
