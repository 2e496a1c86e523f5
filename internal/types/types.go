// Package types holds the shared data model of the sorting pipeline:
// parsed candidates, metadata matches, plan entries and the capability
// interfaces consumed by the engine.
package types

import "context"

// MediaType classifies a media file.
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeTV      MediaType = "tv"
	MediaTypeUnknown MediaType = "unknown"
)

// Action is the planned outcome for a single source file.
type Action string

const (
	ActionMove           Action = "move"
	ActionRename         Action = "rename"
	ActionSkipCollision  Action = "skip-collision"
	ActionSkipUnresolved Action = "skip-unresolved"
)

// Transfer selects how the mover relocates a file.
type Transfer string

const (
	TransferMove     Transfer = "move"
	TransferCopy     Transfer = "copy"
	TransferHardlink Transfer = "hardlink"
	TransferSymlink  Transfer = "symlink"
)

// ParsedCandidate is the structured guess extracted from a filename.
// Season and Episode are -1 when no episode marker was found; Year is 0
// when no release year was found. Produced once per input file and never
// mutated afterwards.
type ParsedCandidate struct {
	RawName         string
	NormalizedTitle string
	Year            int
	Season          int
	Episode         int
	TypeHint        MediaType
}

// HasEpisodeMarker reports whether the parser found season/episode numbers.
func (c ParsedCandidate) HasEpisodeMarker() bool {
	return c.Season >= 0 && c.Episode >= 0
}

// EpisodeInfo carries provider-confirmed episode details.
type EpisodeInfo struct {
	Title   string
	Season  int
	Number  int
	AirDate string
}

// RawCandidate is a single search result as returned by a metadata
// provider, before any scoring. Episode is non-nil when the provider
// confirmed that the requested season/episode exists.
type RawCandidate struct {
	Provider   string
	ID         string
	Title      string
	Year       int
	Type       MediaType
	Popularity float64
	Episode    *EpisodeInfo
}

// MetadataMatch is a confirmed identification of a media file.
// Never mutated after the resolver produces it.
type MetadataMatch struct {
	Provider     string
	ProviderID   string
	Title        string
	Year         int
	Type         MediaType
	Season       int
	Episode      int
	EpisodeTitle string
	Score        float64
}

// SortPlanEntry is the pipeline's terminal artifact for one file.
// Destination is empty for skip actions; Reason explains skips in the
// report.
type SortPlanEntry struct {
	Source      string
	Destination string
	Action      Action
	Score       float64
	Reason      string
}

// MoveStatus is the outcome of applying a plan entry.
type MoveStatus string

const (
	MoveStatusMoved   MoveStatus = "moved"
	MoveStatusSkipped MoveStatus = "skipped"
	MoveStatusFailed  MoveStatus = "failed"
)

// MoveResult reports what the mover did with a plan entry.
type MoveResult struct {
	Status MoveStatus
	Reason string
}

// Provider is the capability used to look media up on an external
// metadata service. Season and episode are -1 when not applicable.
type Provider interface {
	// Name returns the provider name (e.g. "tmdb").
	Name() string

	// Serves reports whether the provider can answer searches for the
	// given media type.
	Serves(mediaType MediaType) bool

	// Configured reports whether the provider holds the credentials it
	// needs. An unconfigured provider cannot answer any search.
	Configured() bool

	// Search returns ranked candidate results for a search term.
	// A search that completes but finds nothing returns an empty slice
	// and a nil error.
	Search(ctx context.Context, term string, mediaType MediaType, season, episode int) ([]RawCandidate, error)
}

// Mover is the capability that performs the filesystem side of a plan
// entry. Skip entries must be honored without touching the filesystem.
type Mover interface {
	Apply(ctx context.Context, entry SortPlanEntry) (MoveResult, error)
}
