// Package classify commits a parsed candidate to movie or TV so the
// planner knows which layout and output root apply.
package classify

import (
	"context"

	"github.com/mydehq/mediasort/internal/types"
)

// Resolver is the slice of the metadata resolver the classifier needs.
type Resolver interface {
	Resolve(ctx context.Context, cand types.ParsedCandidate, mediaType types.MediaType) (*types.MetadataMatch, error)
}

// Classify decides the media type for a candidate. A forced type from
// the source configuration always wins; otherwise an explicit parse hint
// is trusted. Only when the parse produced no hint are both domains
// resolved and compared by score. The returned match is non-nil only in
// that ambiguous path, where the winning lookup has already been made.
func Classify(ctx context.Context, cand types.ParsedCandidate, forced types.MediaType, res Resolver) (types.MediaType, *types.MetadataMatch, error) {
	if forced == types.MediaTypeMovie || forced == types.MediaTypeTV {
		return forced, nil, nil
	}

	switch cand.TypeHint {
	case types.MediaTypeTV:
		return types.MediaTypeTV, nil, nil
	case types.MediaTypeMovie:
		return types.MediaTypeMovie, nil, nil
	}

	movie, movieErr := res.Resolve(ctx, cand, types.MediaTypeMovie)
	if ctx.Err() != nil {
		return types.MediaTypeUnknown, nil, ctx.Err()
	}
	tv, tvErr := res.Resolve(ctx, cand, types.MediaTypeTV)
	if ctx.Err() != nil {
		return types.MediaTypeUnknown, nil, ctx.Err()
	}

	mediaType, ok := Decide(movie, tv)
	if !ok {
		// Prefer reporting a real lookup failure over the generic tie.
		if movieErr != nil && tvErr != nil {
			return types.MediaTypeUnknown, nil, movieErr
		}
		return types.MediaTypeUnknown, nil, types.ErrClassification{Title: cand.NormalizedTitle}
	}
	if mediaType == types.MediaTypeMovie {
		return mediaType, movie, nil
	}
	return mediaType, tv, nil
}

// Decide compares the best match from each domain and picks the winner.
// Both absent, or an exact score tie, means the classification failed
// and the file must be skipped rather than guessed at.
func Decide(movie, tv *types.MetadataMatch) (types.MediaType, bool) {
	switch {
	case movie == nil && tv == nil:
		return types.MediaTypeUnknown, false
	case tv == nil:
		return types.MediaTypeMovie, true
	case movie == nil:
		return types.MediaTypeTV, true
	case movie.Score > tv.Score:
		return types.MediaTypeMovie, true
	case tv.Score > movie.Score:
		return types.MediaTypeTV, true
	default:
		return types.MediaTypeUnknown, false
	}
}
