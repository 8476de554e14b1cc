package playlist

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/justestif/moodify/internal/mood"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 7, 18, 30, 0, 0, time.UTC)
}

func TestAssemble(t *testing.T) {
	asm := NewAssembler(WithClock(fixedClock))

	tracks := append(makeTracks("x", 20), makeTracks("x", 10)...)
	tracks = append(tracks, makeTracks("y", 10)...)

	d := asm.Assemble(mood.Happy, tracks)

	if d.Name != "Happy Vibes - 3/7/2025" {
		t.Errorf("unexpected name %q", d.Name)
	}
	if d.Description != "AI-generated happy playlist based on your preferences and mood" {
		t.Errorf("unexpected description %q", d.Description)
	}
	if d.ColorTag != mood.ColorTag(mood.Happy) {
		t.Errorf("unexpected color tag %q", d.ColorTag)
	}
	if d.Mood != mood.Happy {
		t.Errorf("unexpected mood %q", d.Mood)
	}
	if len(d.Tracks) != MaxTracks {
		t.Fatalf("expected %d tracks, got %d", MaxTracks, len(d.Tracks))
	}
	want := append(trackIDs(makeTracks("x", 20)), trackIDs(makeTracks("y", 5))...)
	if !slices.Equal(trackIDs(d.Tracks), want) {
		t.Errorf("unexpected tracks %v", trackIDs(d.Tracks))
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		mood mood.Mood
		at   time.Time
		want string
	}{
		{mood.Nostalgic, time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC), "Nostalgic Vibes - 12/25/2024"},
		{mood.Calm, time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC), "Calm Vibes - 1/2/2026"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mood), func(t *testing.T) {
			if got := Name(tt.mood, tt.at); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPersist(t *testing.T) {
	cat := newMockCatalog()
	asm := NewAssembler(WithClock(fixedClock), WithAssemblerLogger(quietLogger()))
	d := asm.Assemble(mood.Sad, makeTracks("s", 3))

	got, err := asm.Persist(context.Background(), d, "user1", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != "pl1" || got.URL == "" {
		t.Errorf("unexpected playlist %+v", got)
	}
	if got.TrackCount != 3 {
		t.Errorf("expected 3 tracks, got %d", got.TrackCount)
	}
	if got.Name != d.Name || got.Mood != mood.Sad {
		t.Errorf("unexpected name or mood %+v", got)
	}
	if !got.CreatedAt.Equal(fixedClock()) {
		t.Errorf("unexpected created at %v", got.CreatedAt)
	}
	if cat.createdName != d.Name || cat.createdDesc != d.Description {
		t.Errorf("playlist created with %q / %q", cat.createdName, cat.createdDesc)
	}
	if cat.addedTo != "pl1" || !slices.Equal(cat.addedURIs, d.URIs()) {
		t.Errorf("tracks added to %q: %v", cat.addedTo, cat.addedURIs)
	}
	if n := cat.addCalls.Load(); n != 1 {
		t.Errorf("expected a single add call, got %d", n)
	}
}

func TestPersist_Errors(t *testing.T) {
	tests := []struct {
		name           string
		tracks         []Track
		createErr      error
		addErr         error
		wantStage      string
		wantPlaylistID string
		wantCreates    int32
		wantAdds       int32
	}{
		{
			name:        "create fails",
			tracks:      makeTracks("t", 2),
			createErr:   errUpstream,
			wantStage:   StageCreate,
			wantCreates: 1,
		},
		{
			name:           "add fails",
			tracks:         makeTracks("t", 2),
			addErr:         errUpstream,
			wantStage:      StageAddTracks,
			wantPlaylistID: "pl1",
			wantCreates:    1,
			wantAdds:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newMockCatalog()
			cat.createErr = tt.createErr
			cat.addErr = tt.addErr

			asm := NewAssembler(WithClock(fixedClock), WithAssemblerLogger(quietLogger()))
			_, err := asm.Persist(context.Background(), asm.Assemble(mood.Angry, tt.tracks), "user1", cat)

			var pe *PersistError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PersistError, got %v", err)
			}
			if pe.Stage != tt.wantStage {
				t.Errorf("expected stage %q, got %q", tt.wantStage, pe.Stage)
			}
			if pe.PlaylistID != tt.wantPlaylistID {
				t.Errorf("expected playlist ID %q, got %q", tt.wantPlaylistID, pe.PlaylistID)
			}
			if !errors.Is(err, errUpstream) {
				t.Errorf("expected error to wrap upstream error, got %v", err)
			}
			if n := cat.createCalls.Load(); n != tt.wantCreates {
				t.Errorf("expected %d create calls, got %d", tt.wantCreates, n)
			}
			if n := cat.addCalls.Load(); n != tt.wantAdds {
				t.Errorf("expected %d add calls, got %d", tt.wantAdds, n)
			}
		})
	}
}

func TestPersist_EmptyDraft(t *testing.T) {
	cat := newMockCatalog()
	asm := NewAssembler(WithClock(fixedClock))

	_, err := asm.Persist(context.Background(), asm.Assemble(mood.Calm, nil), "user1", cat)
	if !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("expected ErrEmptyDraft, got %v", err)
	}
	if n := cat.createCalls.Load() + cat.addCalls.Load(); n != 0 {
		t.Errorf("expected no catalog calls, got %d", n)
	}
}
