package playlist

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/justestif/moodify/internal/mood"
)

// Query sizes used while collecting candidates.
const (
	keywordTerms        = 3
	keywordLimit        = 10
	preferenceArtists   = 3
	preferenceLimit     = 5
	seedArtists         = 2
	seedGenres          = 2
	seedLookupLimit     = 1
	recommendationLimit = 20
)

// DefaultMarket is the market passed to recommendation requests.
const DefaultMarket = "US"

// Aggregator collects candidate tracks for a mood from a Catalog.
type Aggregator struct {
	catalog     Catalog
	concurrency int
	market      string
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency sets how many catalog calls of one phase run at once.
// Results are merged in issuance order regardless of n.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithMarket sets the market for recommendation requests.
func WithMarket(market string) Option {
	return func(a *Aggregator) {
		if market != "" {
			a.market = market
		}
	}
}

// WithLogger sets the logger used for per-call failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an aggregator backed by catalog.
func NewAggregator(catalog Catalog, opts ...Option) *Aggregator {
	a := &Aggregator{
		catalog:     catalog,
		concurrency: 1,
		market:      DefaultMarket,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// call is one catalog request within a phase.
type call struct {
	query string
	fetch func(ctx context.Context) ([]Track, error)
}

// BuildCandidateTracks gathers tracks for m from keyword searches, favorite
// artist searches and one recommendation request, then deduplicates them by
// ID and bounds the result to MaxTracks.
//
// Catalog failures are logged and skipped. The only error is
// mood.ErrUnknownMood.
func (a *Aggregator) BuildCandidateTracks(ctx context.Context, m mood.Mood, prefs *Preferences) ([]Track, error) {
	profile, ok := mood.ProfileFor(m)
	if !ok {
		return nil, fmt.Errorf("%w: %q", mood.ErrUnknownMood, m)
	}
	if prefs == nil {
		prefs = &Preferences{}
	}

	var batches [][]Track

	// Keyword phase.
	terms := profile.SearchTerms[:min(keywordTerms, len(profile.SearchTerms))]
	keywordCalls := make([]call, len(terms))
	for i, term := range terms {
		keywordCalls[i] = a.searchCall(term, keywordLimit)
	}
	batches = append(batches, a.run(ctx, "keyword", keywordCalls)...)

	// Preference phase.
	artists := prefs.FavoriteArtists[:min(preferenceArtists, len(prefs.FavoriteArtists))]
	if len(artists) > 0 {
		prefCalls := make([]call, len(artists))
		for i, name := range artists {
			prefCalls[i] = a.searchCall(artistQuery(name), preferenceLimit)
		}
		batches = append(batches, a.run(ctx, "preference", prefCalls)...)
	}

	// Recommendation phase.
	targets := profile.Targets()
	params := RecommendationParams{
		TargetValence:      targets.Valence,
		TargetEnergy:       targets.Energy,
		TargetDanceability: targets.Danceability,
		SeedArtistIDs:      a.resolveSeedArtists(ctx, prefs.FavoriteArtists),
		SeedGenres:         append([]string{}, prefs.FavoriteGenres[:min(seedGenres, len(prefs.FavoriteGenres))]...),
		Limit:              recommendationLimit,
		Market:             a.market,
	}
	recCall := call{
		query: m.String(),
		fetch: func(ctx context.Context) ([]Track, error) {
			return a.catalog.Recommend(ctx, params)
		},
	}
	batches = append(batches, a.run(ctx, "recommendation", []call{recCall})...)

	return Merge(batches...), nil
}

// resolveSeedArtists looks up catalog artist IDs for up to two favorite
// artists. Lookups that fail or find nothing are skipped.
func (a *Aggregator) resolveSeedArtists(ctx context.Context, favorites []string) []string {
	names := favorites[:min(seedArtists, len(favorites))]
	if len(names) == 0 {
		return []string{}
	}

	calls := make([]call, len(names))
	for i, name := range names {
		calls[i] = a.searchCall(artistQuery(name), seedLookupLimit)
	}

	ids := make([]string, 0, len(names))
	for _, tracks := range a.run(ctx, "seed", calls) {
		if len(tracks) == 0 || len(tracks[0].Artists) == 0 || tracks[0].Artists[0].ID == "" {
			continue
		}
		ids = append(ids, tracks[0].Artists[0].ID)
	}
	return ids
}

func (a *Aggregator) searchCall(query string, limit int) call {
	return call{
		query: query,
		fetch: func(ctx context.Context) ([]Track, error) {
			return a.catalog.Search(ctx, query, limit)
		},
	}
}

// run executes the calls of one phase with at most a.concurrency in flight
// and returns their results in issuance order. A failed call contributes an
// empty batch.
func (a *Aggregator) run(ctx context.Context, phase string, calls []call) [][]Track {
	results := make([][]Track, len(calls))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, c := range calls {
		g.Go(func() error {
			tracks, err := c.fetch(ctx)
			if err != nil {
				a.logger.Warn("catalog call failed", "phase", phase, "query", c.query, "error", err)
				return nil
			}
			results[i] = tracks
			return nil
		})
	}
	_ = g.Wait() // calls never return errors

	return results
}

func artistQuery(name string) string {
	return "artist:" + name
}
