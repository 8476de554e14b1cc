package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justestif/moodify/internal/config"
	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
)

// run executes the root command with an isolated config file and no dotenv.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"SPOTIFY_ID", "SPOTIFY_SECRET", "DATABASE_URL", "MOODIFY_LOG_LEVEL"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "moodify.yaml")
	if err := os.WriteFile(cfgFile, []byte("log_level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--config", cfgFile, "--env-file", filepath.Join(dir, ".env")))
	err := root.Execute()
	return out.String(), err
}

func TestMoodsCommand(t *testing.T) {
	out, err := run(t, "moods")
	if err != nil {
		t.Fatalf("moods error = %v", err)
	}
	for _, m := range mood.All() {
		if !strings.Contains(out, m.Label()) {
			t.Errorf("output missing %s:\n%s", m.Label(), out)
		}
	}
	if !strings.Contains(out, "from-yellow-400") {
		t.Errorf("output missing happy color tag")
	}
}

func TestClassifyCommand(t *testing.T) {
	first, err := run(t, "classify", "--seed", "7", "so", "happy", "and", "full", "of", "joy")
	if err != nil {
		t.Fatalf("classify error = %v", err)
	}
	if !strings.Contains(first, "Happy") {
		t.Errorf("output missing Happy:\n%s", first)
	}
	if !strings.Contains(first, "happy, joy") {
		t.Errorf("output missing matched keywords:\n%s", first)
	}

	second, err := run(t, "classify", "--seed", "7", "so", "happy", "and", "full", "of", "joy")
	if err != nil {
		t.Fatalf("classify error = %v", err)
	}
	if first != second {
		t.Errorf("seeded output differs:\n%s\n%s", first, second)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"classify without text", []string{"classify"}, nil},
		{"classify blank text", []string{"classify", "  "}, nil},
		{"generate without mood", []string{"generate", "--token", "x"}, nil},
		{"generate with mood and text", []string{"generate", "--mood", "happy", "--text", "hi"}, nil},
		{"generate unknown mood", []string{"generate", "--mood", "bored"}, mood.ErrUnknownMood},
		{"generate without credentials", []string{"generate", "--mood", "happy", "--token", "x"}, config.ErrMissingCredentials},
		{"serve without credentials", []string{"serve"}, config.ErrMissingCredentials},
		{"invalid log level", []string{"moods", "--log-level", "loud"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrintDraft(t *testing.T) {
	var out bytes.Buffer
	draft := playlist.Draft{
		Name:        "Calm Vibes - 3/5/2024",
		Description: playlist.Description(mood.Calm),
		Tracks: []playlist.Track{{
			ID: "t1", Name: "Weightless", DurationSeconds: 485,
			Artists: []playlist.Artist{{ID: "a1", Name: "Marconi Union"}},
		}},
	}
	if err := printDraft(&out, draft); err != nil {
		t.Fatalf("printDraft() error = %v", err)
	}
	for _, want := range []string{"Calm Vibes - 3/5/2024", "Weightless", "Marconi Union", "8:05"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := printDraft(&out, playlist.Draft{Name: "Sad Vibes"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No tracks found.") {
		t.Errorf("empty draft output = %q", out.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{485, "8:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
