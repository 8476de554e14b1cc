// Package config loads Moodify settings from flags, the environment, a .env
// file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/justestif/moodify/internal/auth"
	"github.com/justestif/moodify/internal/playlist"
	"github.com/justestif/moodify/internal/spotify"
)

// Keys of the settings, shared by flags, the environment and the config file.
const (
	KeySpotifyID         = "spotify_id"
	KeySpotifySecret     = "spotify_secret"
	KeyRedirectURI       = "redirect_uri"
	KeyAddr              = "addr"
	KeyDatabaseURL       = "database_url"
	KeyMarket            = "market"
	KeyConcurrency       = "concurrency"
	KeyRequestsPerSecond = "requests_per_second"
	KeyReadAttempts      = "read_attempts"
	KeyLogLevel          = "log_level"
)

// DefaultFileName is the config file looked up in the home directory.
const DefaultFileName = ".moodify.yaml"

var envNames = map[string]string{
	KeySpotifyID:         "SPOTIFY_ID",
	KeySpotifySecret:     "SPOTIFY_SECRET",
	KeyRedirectURI:       "MOODIFY_REDIRECT_URI",
	KeyAddr:              "MOODIFY_ADDR",
	KeyDatabaseURL:       "DATABASE_URL",
	KeyMarket:            "MOODIFY_MARKET",
	KeyConcurrency:       "MOODIFY_CONCURRENCY",
	KeyRequestsPerSecond: "MOODIFY_RPS",
	KeyReadAttempts:      "MOODIFY_READ_ATTEMPTS",
	KeyLogLevel:          "MOODIFY_LOG_LEVEL",
}

// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
var ErrMissingCredentials = auth.ErrMissingCredentials

// Config holds the application settings.
type Config struct {
	SpotifyID         string
	SpotifySecret     string
	RedirectURI       string
	Addr              string
	DatabaseURL       string // empty keeps sessions in memory
	Market            string
	Concurrency       int
	RequestsPerSecond float64
	ReadAttempts      int
	LogLevel          slog.Level
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRedirectURI, auth.DefaultRedirectURI)
	v.SetDefault(KeyAddr, "127.0.0.1:8080")
	v.SetDefault(KeyMarket, playlist.DefaultMarket)
	v.SetDefault(KeyConcurrency, 1)
	v.SetDefault(KeyRequestsPerSecond, spotify.DefaultRequestsPerSecond)
	v.SetDefault(KeyReadAttempts, spotify.DefaultReadAttempts)
	v.SetDefault(KeyLogLevel, "info")

	for key, env := range envNames {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, env)
	}
	return v
}

// LoadDotEnv loads environment variables from path. A missing file is not
// an error and variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ReadFile reads the YAML config file at path into v. With an empty path it
// reads DefaultFileName from the home directory if that file exists.
// It returns the path of the file read, or "" if none was.
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		path = filepath.Join(home, DefaultFileName)
		if _, err := os.Stat(path); err != nil {
			return "", nil
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load builds a Config from v. It does not validate it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		SpotifyID:         strings.TrimSpace(v.GetString(KeySpotifyID)),
		SpotifySecret:     strings.TrimSpace(v.GetString(KeySpotifySecret)),
		RedirectURI:       v.GetString(KeyRedirectURI),
		Addr:              v.GetString(KeyAddr),
		DatabaseURL:       v.GetString(KeyDatabaseURL),
		Market:            strings.ToUpper(strings.TrimSpace(v.GetString(KeyMarket))),
		Concurrency:       v.GetInt(KeyConcurrency),
		RequestsPerSecond: v.GetFloat64(KeyRequestsPerSecond),
		ReadAttempts:      v.GetInt(KeyReadAttempts),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", KeyLogLevel, err)
	}
	return cfg, nil
}

// Validate checks that the settings can drive the Spotify adapter.
func (c Config) Validate() error {
	if c.SpotifyID == "" || c.SpotifySecret == "" {
		return ErrMissingCredentials
	}
	return c.ValidateTuning()
}

// ValidateTuning checks everything except the credentials.
func (c Config) ValidateTuning() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyConcurrency, c.Concurrency)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%s must be positive, got %v", KeyRequestsPerSecond, c.RequestsPerSecond)
	}
	if c.ReadAttempts < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyReadAttempts, c.ReadAttempts)
	}
	if !validMarket(c.Market) {
		return fmt.Errorf("%s must be a two-letter country code, got %q", KeyMarket, c.Market)
	}
	return nil
}

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	return envNames[key]
}

func validMarket(m string) bool {
	if len(m) != 2 {
		return false
	}
	for _, r := range m {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
