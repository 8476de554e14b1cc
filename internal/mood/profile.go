package mood

// FeatureRange is an inclusive [Min, Max] interval over one audio feature.
type FeatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the center of the range.
func (r FeatureRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Contains reports whether v lies within the range.
func (r FeatureRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Profile describes the audio features and search terms that fit a mood.
// Features the mood does not constrain are nil.
type Profile struct {
	Valence          *FeatureRange // 0-1
	Energy           *FeatureRange // 0-1
	Danceability     *FeatureRange // 0-1
	Acousticness     *FeatureRange // 0-1
	Instrumentalness *FeatureRange // 0-1
	Tempo            *FeatureRange // BPM
	Loudness         *FeatureRange // dB
	SearchTerms      []string
}

// Targets holds the recommendation targets derived from a profile.
// A nil field means the profile does not constrain that feature.
type Targets struct {
	Valence      *float64 `json:"valence,omitempty"`
	Energy       *float64 `json:"energy,omitempty"`
	Danceability *float64 `json:"danceability,omitempty"`
}

// Targets returns the midpoint of valence, energy and danceability when defined.
func (p Profile) Targets() Targets {
	return Targets{
		Valence:      midpoint(p.Valence),
		Energy:       midpoint(p.Energy),
		Danceability: midpoint(p.Danceability),
	}
}

// Ranges returns the defined feature ranges keyed by feature name.
func (p Profile) Ranges() map[string]FeatureRange {
	ranges := make(map[string]FeatureRange)
	add := func(name string, r *FeatureRange) {
		if r != nil {
			ranges[name] = *r
		}
	}
	add("valence", p.Valence)
	add("energy", p.Energy)
	add("danceability", p.Danceability)
	add("acousticness", p.Acousticness)
	add("instrumentalness", p.Instrumentalness)
	add("tempo", p.Tempo)
	add("loudness", p.Loudness)
	return ranges
}

func midpoint(r *FeatureRange) *float64 {
	if r == nil {
		return nil
	}
	v := r.Midpoint()
	return &v
}

func span(lo, hi float64) *FeatureRange {
	return &FeatureRange{Min: lo, Max: hi}
}

var profiles = map[Mood]Profile{
	Happy: {
		Valence:      span(0.6, 1.0),
		Energy:       span(0.5, 1.0),
		Danceability: span(0.5, 1.0),
		SearchTerms:  []string{"happy", "upbeat", "cheerful", "positive", "joy", "celebration"},
	},
	Sad: {
		Valence:      span(0.0, 0.4),
		Energy:       span(0.0, 0.5),
		Acousticness: span(0.3, 1.0),
		SearchTerms:  []string{"sad", "melancholy", "heartbreak", "emotional", "tears", "lonely"},
	},
	Energetic: {
		Energy:       span(0.7, 1.0),
		Danceability: span(0.6, 1.0),
		Tempo:        span(120, 200),
		SearchTerms:  []string{"energy", "pump", "workout", "power", "intense", "hype"},
	},
	Calm: {
		Valence:          span(0.3, 0.7),
		Energy:           span(0.0, 0.4),
		Acousticness:     span(0.4, 1.0),
		Instrumentalness: span(0.2, 1.0),
		SearchTerms:      []string{"calm", "peaceful", "relax", "chill", "zen", "meditation"},
	},
	Romantic: {
		Valence:      span(0.4, 0.8),
		Energy:       span(0.2, 0.6),
		Acousticness: span(0.3, 0.8),
		SearchTerms:  []string{"love", "romantic", "heart", "valentine", "romance", "intimate"},
	},
	Confident: {
		Valence:      span(0.5, 0.9),
		Energy:       span(0.6, 1.0),
		Danceability: span(0.4, 0.9),
		SearchTerms:  []string{"confident", "boss", "power", "strong", "fierce", "unstoppable"},
	},
	Nostalgic: {
		Valence:      span(0.3, 0.7),
		Energy:       span(0.3, 0.7),
		Acousticness: span(0.2, 0.8),
		SearchTerms:  []string{"classic", "retro", "vintage", "throwback", "memories", "nostalgia"},
	},
	Angry: {
		Valence:     span(0.0, 0.4),
		Energy:      span(0.7, 1.0),
		Loudness:    span(-10, 0),
		SearchTerms: []string{"angry", "rage", "mad", "furious", "intense", "aggressive"},
	},
}

// ProfileFor returns the feature profile for m.
// The returned profile's search terms are a copy and may be modified freely.
func ProfileFor(m Mood) (Profile, bool) {
	p, ok := profiles[m]
	if !ok {
		return Profile{}, false
	}
	p.SearchTerms = append([]string(nil), p.SearchTerms...)
	return p, true
}
