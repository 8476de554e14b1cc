// Package mood classifies free text into moods and maps each mood to the
// acoustic targets and search terms used to find matching tracks.
package mood

import (
	"errors"
	"fmt"
	"strings"
)

// Mood is one of a fixed, closed set of labels.
type Mood string

// Supported moods.
const (
	Happy     Mood = "happy"
	Sad       Mood = "sad"
	Energetic Mood = "energetic"
	Calm      Mood = "calm"
	Romantic  Mood = "romantic"
	Confident Mood = "confident"
	Nostalgic Mood = "nostalgic"
	Angry     Mood = "angry"
)

// ErrUnknownMood is returned when a label is not one of the supported moods.
var ErrUnknownMood = errors.New("unknown mood")

var all = []Mood{Happy, Sad, Energetic, Calm, Romantic, Confident, Nostalgic, Angry}

// All returns every supported mood in display order.
func All() []Mood {
	out := make([]Mood, len(all))
	copy(out, all)
	return out
}

// Parse converts a case-insensitive label to a Mood.
func Parse(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMood, s)
	}
	return m, nil
}

// Valid reports whether m is a supported mood.
func (m Mood) Valid() bool {
	_, ok := profiles[m]
	return ok
}

func (m Mood) String() string {
	return string(m)
}

// Label returns the mood with its first letter capitalized ("happy" -> "Happy").
func (m Mood) Label() string {
	if m == "" {
		return ""
	}
	s := string(m)
	return strings.ToUpper(s[:1]) + s[1:]
}
