package mood

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
)

const (
	baseConfidence     = 50
	perMatchConfidence = 15
	maxConfidence      = 98
	maxJitter          = 25

	// FallbackConfidence is assigned when no lexicon keyword matches.
	FallbackConfidence = 65

	// SelectedConfidence is assigned to a mood picked directly by the user.
	SelectedConfidence = 95

	// AutoGenerateThreshold is the top-candidate confidence above which a
	// playlist is generated without asking the user to pick a mood.
	AutoGenerateThreshold = 80

	maxCandidates = 3
)

// Candidate is one ranked mood guess for a piece of text.
type Candidate struct {
	Mood            Mood     `json:"mood"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"keywords"`
}

// Jitter returns the noise added to a candidate's confidence. The result is
// clamped to [0, 25].
type Jitter func(matches int, text string) float64

// FixedJitter always adds v.
func FixedJitter(v float64) Jitter {
	return func(int, string) float64 { return v }
}

// NoJitter makes confidence a pure function of the match count.
var NoJitter = FixedJitter(0)

// RandomJitter draws uniform noise in [0, 25) from r.
// r is guarded by a mutex so the classifier stays safe for concurrent use.
func RandomJitter(r *rand.Rand) Jitter {
	var mu sync.Mutex
	return func(int, string) float64 {
		mu.Lock()
		defer mu.Unlock()
		return r.Float64() * maxJitter
	}
}

// Classifier scores text against the mood lexicon.
type Classifier struct {
	jitter Jitter
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithJitter sets the confidence noise source.
func WithJitter(j Jitter) Option {
	return func(c *Classifier) {
		if j != nil {
			c.jitter = j
		}
	}
}

// NewClassifier creates a classifier. Without options the confidence noise is
// drawn from a randomly seeded source.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		jitter: RandomJitter(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns up to three mood candidates for text, highest confidence
// first. It always returns at least one candidate; callers are expected to
// reject blank input before calling.
func (c *Classifier) Classify(text string) []Candidate {
	lower := strings.ToLower(text)

	var candidates []Candidate
	for _, m := range lexiconOrder {
		var matched []string
		for _, kw := range lexicon[m] {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Mood:            m,
			Confidence:      c.confidence(len(matched), text),
			MatchedKeywords: matched,
		})
	}

	if len(candidates) == 0 {
		return []Candidate{fallback(lower)}
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

// Select returns the candidate for a mood the user picked explicitly.
func (c *Classifier) Select(m Mood) Candidate {
	return Candidate{Mood: m, Confidence: SelectedConfidence, MatchedKeywords: []string{}}
}

func (c *Classifier) confidence(matches int, text string) float64 {
	j := min(max(c.jitter(matches, text), 0), maxJitter)
	return min(float64(matches*perMatchConfidence)+j+baseConfidence, maxConfidence)
}

func fallback(lower string) Candidate {
	m := Happy
	for _, w := range neutralWords {
		if strings.Contains(lower, w) {
			m = Calm
			break
		}
	}
	return Candidate{Mood: m, Confidence: FallbackConfidence, MatchedKeywords: []string{}}
}
