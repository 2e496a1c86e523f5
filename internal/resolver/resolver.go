// Package resolver turns a parsed candidate into a confirmed metadata
// match by querying the registered providers and scoring their results.
package resolver

import (
	"context"
	"io"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"

	"github.com/mydehq/mediasort/internal/cache"
	"github.com/mydehq/mediasort/internal/overrides"
	"github.com/mydehq/mediasort/internal/parser"
	"github.com/mydehq/mediasort/internal/types"
)

const (
	// DefaultMinScore is the confidence floor below which a candidate is
	// reported as unresolved rather than guessed at.
	DefaultMinScore = 0.5

	yearBonus      = 0.2
	episodePenalty = 0.2
)

// Options tune the resolver. Zero values select the defaults.
type Options struct {
	// MinScore is the minimum confidence for a match (default 0.5).
	MinScore float64

	// Cache is optional; nil disables caching.
	Cache *cache.Cache

	// Logger is optional; nil silences the resolver.
	Logger *log.Logger
}

// Resolver scores provider results against parsed candidates. Safe for
// concurrent use: all fields are read-only after construction and the
// cache guards itself.
type Resolver struct {
	providers []types.Provider
	table     *overrides.Table
	minScore  float64
	cache     *cache.Cache
	metric    *metrics.SorensenDice
	log       *log.Logger
}

// New builds a resolver over the given providers and override table.
func New(providers []types.Provider, table *overrides.Table, opts Options) *Resolver {
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		providers: providers,
		table:     table,
		minScore:  minScore,
		cache:     opts.Cache,
		metric:    metrics.NewSorensenDice(),
		log:       logger,
	}
}

// Resolve finds the best metadata match for a candidate in the given
// domain. It applies search-term overrides, consults the cache, queries
// every provider serving the domain (dropping trailing words from the
// term and retrying while nothing matches), and scores the merged
// candidate list. It returns ErrNoMatch when the top score stays below
// the threshold, and a provider error when every lookup failed.
func (r *Resolver) Resolve(ctx context.Context, cand types.ParsedCandidate, mediaType types.MediaType) (*types.MetadataMatch, error) {
	term := r.table.Resolve(cand.NormalizedTitle)
	if term != cand.NormalizedTitle {
		r.log.Debug("search override applied", "title", cand.NormalizedTitle, "term", term)
	}

	key := cache.Key(term, mediaType, cand.Season, cand.Episode)
	if hit, ok := r.cache.Get(key); ok {
		r.log.Debug("cache hit", "term", term, "type", mediaType)
		return &hit, nil
	}

	results, lookupErr := r.search(ctx, term, mediaType, cand.Season, cand.Episode)
	if len(results) == 0 {
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, types.ErrNoMatch{Term: term}
	}

	best, score := r.pick(term, cand, mediaType, results)
	if score < r.minScore {
		return nil, types.ErrNoMatch{Term: term, Best: score}
	}

	match := buildMatch(best, cand, mediaType, score)
	r.cache.Put(key, match)
	return &match, nil
}

// search queries all configured providers serving the domain and merges
// their candidate lists. When a term produces nothing, its last word is
// dropped and the search repeated, down to a single word.
func (r *Resolver) search(ctx context.Context, term string, mediaType types.MediaType, season, episode int) ([]types.RawCandidate, error) {
	var lastErr error

	words := strings.Fields(term)
	for len(words) >= 1 {
		attempt := strings.Join(words, " ")

		var merged []types.RawCandidate
		for _, p := range r.providers {
			if !p.Serves(mediaType) || !p.Configured() {
				continue
			}
			results, err := p.Search(ctx, attempt, mediaType, season, episode)
			if err != nil {
				r.log.Warn("provider query failed", "provider", p.Name(), "term", attempt, "err", err)
				lastErr = err
				continue
			}
			merged = append(merged, results...)
		}
		if len(merged) > 0 {
			return merged, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		words = words[:len(words)-1]
		if len(words) >= 1 {
			r.log.Debug("retrying with shortened term", "term", strings.Join(words, " "))
		}
	}

	return nil, lastErr
}

// pick scores every candidate and returns the best one. An exact
// normalized title match scores 1.0; everything else starts from string
// similarity, gains a bonus for a matching release year and loses a
// penalty when an episodic match was expected but the candidate carries
// no confirmed episode.
func (r *Resolver) pick(term string, cand types.ParsedCandidate, mediaType types.MediaType, results []types.RawCandidate) (types.RawCandidate, float64) {
	bestIdx, bestScore := 0, -1.0
	for i, res := range results {
		score := r.score(term, cand, mediaType, res)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return results[bestIdx], bestScore
}

func (r *Resolver) score(term string, cand types.ParsedCandidate, mediaType types.MediaType, res types.RawCandidate) float64 {
	normalized := parser.NormalizeTitle(res.Title)

	var score float64
	if normalized == term {
		score = 1.0
	} else {
		score = strutil.Similarity(term, normalized, r.metric)
		if cand.Year > 0 && res.Year == cand.Year {
			score += yearBonus
		}
	}
	if mediaType == types.MediaTypeTV && res.Episode == nil {
		score -= episodePenalty
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func buildMatch(res types.RawCandidate, cand types.ParsedCandidate, mediaType types.MediaType, score float64) types.MetadataMatch {
	match := types.MetadataMatch{
		Provider:   res.Provider,
		ProviderID: res.ID,
		Title:      res.Title,
		Year:       res.Year,
		Type:       mediaType,
		Season:     -1,
		Episode:    -1,
		Score:      score,
	}
	if mediaType == types.MediaTypeTV {
		match.Season = cand.Season
		match.Episode = cand.Episode
		if res.Episode != nil {
			match.Season = res.Episode.Season
			match.Episode = res.Episode.Number
			match.EpisodeTitle = res.Episode.Title
		}
	}
	return match
}
