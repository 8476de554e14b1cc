package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/justestif/moodify/internal/mood"
)

// ErrEmptyDraft is returned when persisting a draft without tracks.
var ErrEmptyDraft = errors.New("playlist draft has no tracks")

// Persist stages.
const (
	StageCreate    = "create"
	StageAddTracks = "add-tracks"
)

// PersistError describes a failed save. After a StageAddTracks failure the
// created playlist is left in the catalog and PlaylistID identifies it.
type PersistError struct {
	Stage      string
	PlaylistID string
	Err        error
}

func (e *PersistError) Error() string {
	if e.PlaylistID != "" {
		return fmt.Sprintf("persisting playlist (%s, playlist %s): %v", e.Stage, e.PlaylistID, e.Err)
	}
	return fmt.Sprintf("persisting playlist (%s): %v", e.Stage, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Assembler names, describes and saves playlist drafts.
type Assembler struct {
	now    func() time.Time
	logger *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithClock sets the clock used for playlist names and timestamps.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAssemblerLogger sets the assembler's logger.
func WithAssemblerLogger(l *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssembler creates an assembler.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds a draft for m from tracks. Tracks are deduplicated and
// bounded to MaxTracks.
func (a *Assembler) Assemble(m mood.Mood, tracks []Track) Draft {
	return Draft{
		Mood:        m,
		Name:        Name(m, a.now()),
		Description: Description(m),
		Tracks:      Merge(tracks),
		ColorTag:    mood.ColorTag(m),
	}
}

// Persist creates a private playlist owned by ownerID and adds the draft's
// tracks in one batch.
func (a *Assembler) Persist(ctx context.Context, draft Draft, ownerID string, catalog Catalog) (Persisted, error) {
	if len(draft.Tracks) == 0 {
		return Persisted{}, ErrEmptyDraft
	}

	created, err := catalog.CreatePlaylist(ctx, ownerID, draft.Name, draft.Description)
	if err != nil {
		return Persisted{}, &PersistError{Stage: StageCreate, Err: err}
	}

	if err := catalog.AddTracks(ctx, created.ID, draft.URIs()); err != nil {
		a.logger.Error("adding tracks to playlist", "playlist", created.ID, "tracks", len(draft.Tracks), "error", err)
		return Persisted{}, &PersistError{Stage: StageAddTracks, PlaylistID: created.ID, Err: err}
	}

	a.logger.Info("playlist saved", "playlist", created.ID, "mood", draft.Mood, "tracks", len(draft.Tracks))

	return Persisted{
		ID:         created.ID,
		URL:        created.URL,
		Name:       draft.Name,
		Mood:       draft.Mood,
		TrackCount: len(draft.Tracks),
		CreatedAt:  a.now(),
	}, nil
}

// Name returns the playlist name for m on day t, e.g. "Happy Vibes - 3/7/2025".
func Name(m mood.Mood, t time.Time) string {
	return fmt.Sprintf("%s Vibes - %s", m.Label(), t.Format("1/2/2006"))
}

// Description returns the playlist description for m.
func Description(m mood.Mood) string {
	return fmt.Sprintf("AI-generated %s playlist based on your preferences and mood", m)
}
